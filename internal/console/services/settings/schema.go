package settings

import (
	"fmt"

	"github.com/haukened/ub-admin/internal/console/domain"
)

// Schema is the immutable registry of resolver tunables. It is built once
// at process start and passed explicitly to the pipeline; there is no
// runtime mutation of the schema itself.
type Schema struct {
	options []domain.Option
	index   map[string]domain.Option
}

func intp(n int) *int { return &n }

// NewSchema declares every configuration option the console manages:
// key, kind, default, integer bounds, and restart requirement.
func NewSchema() *Schema {
	opts := []domain.Option{
		{Key: "custom_config", Kind: domain.OptionBool, Default: false},
		{Key: "access_control", Kind: domain.OptionList,
			Default: []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}},
		{Key: "num_threads", Kind: domain.OptionInt, Default: 2, Min: intp(1), Max: intp(16), RestartRequired: true},
		{Key: "prefetch", Kind: domain.OptionBool, Default: true},
		{Key: "fast_server_permil", Kind: domain.OptionInt, Default: 500, Min: intp(0), Max: intp(1000)},
		{Key: "fast_server_num", Kind: domain.OptionInt, Default: 5, Min: intp(1), Max: intp(20)},
		{Key: "prefer_ip4", Kind: domain.OptionBool, Default: true},
		{Key: "do_ip4", Kind: domain.OptionBool, Default: true},
		{Key: "do_ip6", Kind: domain.OptionBool, Default: true},
		{Key: "cache_min_ttl", Kind: domain.OptionInt, Default: 60, Min: intp(0), Max: intp(86400)},
		{Key: "cache_max_ttl", Kind: domain.OptionInt, Default: 86400, Min: intp(60), Max: intp(604800)},
		{Key: "enable_dnssec", Kind: domain.OptionBool, Default: true},
		{Key: "qname_minimisation", Kind: domain.OptionBool, Default: true},
		{Key: "hide_identity", Kind: domain.OptionBool, Default: true},
		{Key: "hide_version", Kind: domain.OptionBool, Default: true},
		{Key: "forward_servers", Kind: domain.OptionList, Default: []string{}},
		{Key: "forward_tls", Kind: domain.OptionBool, Default: false},
		{Key: "verbosity", Kind: domain.OptionInt, Default: 1, Min: intp(0), Max: intp(5)},
		{Key: "log_queries", Kind: domain.OptionBool, Default: false},
	}

	index := make(map[string]domain.Option, len(opts))
	for _, o := range opts {
		if err := o.Validate(); err != nil {
			// schema is hardcoded; a bad entry is a programming error
			panic(fmt.Sprintf("invalid schema option: %v", err))
		}
		index[o.Key] = o
	}
	return &Schema{options: opts, index: index}
}

// Defaults returns a complete Settings with one value per declared option.
func (s *Schema) Defaults() domain.Settings {
	out := make(domain.Settings, len(s.options))
	for _, o := range s.options {
		out[o.Key] = o.Default
	}
	return out
}

// Describe exposes the declared options in declaration order, for
// client-side form generation.
func (s *Schema) Describe() []domain.Option {
	out := make([]domain.Option, len(s.options))
	copy(out, s.options)
	return out
}

// Lookup returns the Option for key, if declared.
func (s *Schema) Lookup(key string) (domain.Option, bool) {
	o, ok := s.index[key]
	return o, ok
}
