// Package settings owns the resolver configuration: the option schema,
// validation, rendering of unbound.conf, and the safe-apply protocol that
// never leaves a config on disk that failed its own syntax check.
package settings

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/haukened/ub-admin/internal/console/common/log"
	"github.com/haukened/ub-admin/internal/console/common/metrics"
	"github.com/haukened/ub-admin/internal/console/domain"
	"github.com/haukened/ub-admin/internal/console/repos/docstore"
)

// docKeyConfig is the override document in the document store.
const docKeyConfig = "config"

// logMaxSize is the rotation threshold for the resolver query log.
const logMaxSize = 50 * 1024 * 1024 // 50 MiB

// ControlChannel is what the pipeline needs from the resolver's admin
// channel: syntax checking and reloads.
type ControlChannel interface {
	CheckConf(ctx context.Context, path string) (string, bool)
	Reload(ctx context.Context) (string, bool)
}

// Paths locates the artifacts the pipeline reads and writes.
type Paths struct {
	// UnboundConf is the live configuration artifact.
	UnboundConf string
	// BlocklistConf and LocalRecordsConf are referenced via include
	// directives in the rendered output.
	BlocklistConf    string
	LocalRecordsConf string
	// QueryLog is the resolver's query log, rotated by the pipeline.
	QueryLog string
}

// ApplyResult reports the outcome of a safe-apply attempt.
type ApplyResult struct {
	Accepted        bool   `json:"ok"`
	Message         string `json:"message"`
	RestartRequired bool   `json:"restart_required"`
}

// Pipeline validates, persists, renders, syntax-checks, and applies
// resolver configurations.
type Pipeline struct {
	schema  *Schema
	docs    docstore.Store
	channel ControlChannel
	paths   Paths
	logger  log.Logger
}

// NewPipeline wires the pipeline to its schema, document store, control
// channel, and artifact paths.
func NewPipeline(schema *Schema, docs docstore.Store, channel ControlChannel, paths Paths, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Pipeline{
		schema:  schema,
		docs:    docs,
		channel: channel,
		paths:   paths,
		logger:  logger,
	}
}

// Schema returns the pipeline's option registry.
func (p *Pipeline) Schema() *Schema { return p.schema }

// Load merges the stored override document onto the schema defaults.
// Stored keys not in the schema are preserved verbatim so configs written
// by a newer console survive a downgrade; they are ignored by validation
// and rendering.
func (p *Pipeline) Load() (domain.Settings, error) {
	cfg := p.schema.Defaults()

	var stored map[string]any
	if _, err := docstore.GetJSON(p.docs, docKeyConfig, &stored); err != nil {
		return nil, fmt.Errorf("loading stored config: %w", err)
	}
	for k, v := range stored {
		cfg[k] = v
	}
	return p.canonicalize(cfg), nil
}

// Validate checks every schema key present in candidate for kind and bound
// compliance, returning one human-readable message per violation. It never
// mutates state; an empty result means the candidate is acceptable.
func (p *Pipeline) Validate(candidate domain.Settings) []string {
	var errs []string
	for _, opt := range p.schema.Describe() {
		val, ok := candidate[opt.Key]
		if !ok {
			continue
		}
		switch opt.Kind {
		case domain.OptionBool:
			if _, ok := val.(bool); !ok {
				errs = append(errs, fmt.Sprintf("%s: expected bool, got %T", opt.Key, val))
			}
		case domain.OptionInt:
			n, ok := domain.AsInt(val)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s: expected int, got %T", opt.Key, val))
				continue
			}
			if opt.Min != nil && n < *opt.Min {
				errs = append(errs, fmt.Sprintf("%s: minimum is %d, got %d", opt.Key, *opt.Min, n))
			}
			if opt.Max != nil && n > *opt.Max {
				errs = append(errs, fmt.Sprintf("%s: maximum is %d, got %d", opt.Key, *opt.Max, n))
			}
		case domain.OptionList:
			if _, ok := domain.AsStringList(val); !ok {
				errs = append(errs, fmt.Sprintf("%s: expected list, got %T", opt.Key, val))
			}
		}
	}
	return errs
}

// Apply runs the safe-apply protocol:
//
//  1. Validate; on violations nothing is written.
//  2. Compute whether a restart-flagged option changed.
//  3. Stage the rendered artifact next to the live one.
//  4. Run the daemon's syntax checker against the staged file; on failure
//     discard the stage, leaving the live artifact and the stored override
//     document exactly as they were.
//  5. Commit: rename the staged file over the live artifact, then persist
//     the override document. The artifact commits first so the stored
//     config can never get ahead of a syntax-checked artifact.
//  6. Reload the daemon. A reload failure does not roll anything back: the
//     on-disk state is valid, the running process just hasn't picked it up.
func (p *Pipeline) Apply(ctx context.Context, candidate domain.Settings) (ApplyResult, error) {
	if errs := p.Validate(candidate); len(errs) > 0 {
		metrics.ConfigApplies.WithLabelValues("rejected").Inc()
		return ApplyResult{
			Accepted: false,
			Message:  "Validation failed: " + strings.Join(errs, "; "),
		}, nil
	}

	current, err := p.Load()
	if err != nil {
		return ApplyResult{}, err
	}
	cand := p.canonicalize(candidate)
	restart := p.restartRequired(current, cand)

	p.rotateQueryLog(cand)

	stage := p.paths.UnboundConf + ".staged"
	if err := os.WriteFile(stage, []byte(p.Render(cand)), 0o644); err != nil {
		return ApplyResult{}, fmt.Errorf("staging artifact: %w", err)
	}

	if out, ok := p.channel.CheckConf(ctx, stage); !ok {
		_ = os.Remove(stage)
		metrics.ConfigApplies.WithLabelValues("rolled_back").Inc()
		p.logger.Warn(map[string]any{"detail": out}, "config rejected by syntax check")
		return ApplyResult{
			Accepted: false,
			Message:  "syntax check failed: " + out,
		}, nil
	}

	if err := os.Rename(stage, p.paths.UnboundConf); err != nil {
		_ = os.Remove(stage)
		return ApplyResult{}, fmt.Errorf("committing artifact: %w", err)
	}
	if err := docstore.PutJSON(p.docs, docKeyConfig, cand); err != nil {
		return ApplyResult{}, fmt.Errorf("persisting config: %w", err)
	}

	metrics.ConfigApplies.WithLabelValues("accepted").Inc()

	if out, ok := p.channel.Reload(ctx); !ok {
		msg := "config saved but reload failed: " + out
		if restart {
			msg += " (resolver restart required)"
		}
		p.logger.Warn(map[string]any{"detail": out}, "reload failed after apply")
		return ApplyResult{Accepted: true, Message: msg, RestartRequired: restart}, nil
	}

	msg := "Configuration applied successfully."
	if restart {
		msg = "Configuration saved. Resolver restart required for the change to take effect."
	}
	p.logger.Info(map[string]any{"restart_required": restart}, "configuration applied")
	return ApplyResult{Accepted: true, Message: msg, RestartRequired: restart}, nil
}

// Regenerate renders the currently stored configuration to the live
// artifact without the check/reload cycle. Used at startup to seed the
// artifact before the daemon starts.
func (p *Pipeline) Regenerate() error {
	cfg, err := p.Load()
	if err != nil {
		return err
	}
	p.rotateQueryLog(cfg)
	return os.WriteFile(p.paths.UnboundConf, []byte(p.Render(cfg)), 0o644)
}

// restartRequired reports whether any restart-flagged option differs
// between the two configurations.
func (p *Pipeline) restartRequired(current, candidate domain.Settings) bool {
	for _, opt := range p.schema.Describe() {
		if !opt.RestartRequired {
			continue
		}
		if !reflect.DeepEqual(p.optValue(current, opt), p.optValue(candidate, opt)) {
			return true
		}
	}
	return false
}

// optValue reads an option's canonical value with the schema default as
// fallback, so comparisons don't depend on a key being present.
func (p *Pipeline) optValue(cfg domain.Settings, opt domain.Option) any {
	switch opt.Kind {
	case domain.OptionBool:
		return p.boolOpt(cfg, opt.Key)
	case domain.OptionInt:
		return p.intOpt(cfg, opt.Key)
	default:
		return p.listOpt(cfg, opt.Key)
	}
}

// canonicalize coerces schema-known values to stable Go types (bool, int,
// []string) so a persisted configuration loads back type-identical.
// Unknown keys pass through untouched.
func (p *Pipeline) canonicalize(cfg domain.Settings) domain.Settings {
	out := cfg.Clone()
	for _, opt := range p.schema.Describe() {
		val, ok := out[opt.Key]
		if !ok {
			continue
		}
		switch opt.Kind {
		case domain.OptionInt:
			if n, ok := domain.AsInt(val); ok {
				out[opt.Key] = n
			}
		case domain.OptionList:
			if l, ok := domain.AsStringList(val); ok {
				out[opt.Key] = l
			}
		}
	}
	return out
}

// rotateQueryLog archives an oversized query log to a .old suffix and
// starts a fresh one. Only runs when query logging is enabled, since only
// then does the rendered config point at the file.
func (p *Pipeline) rotateQueryLog(cfg domain.Settings) {
	if !p.boolOpt(cfg, "log_queries") {
		return
	}
	info, err := os.Stat(p.paths.QueryLog)
	if err != nil || info.Size() <= logMaxSize {
		return
	}
	if err := os.Rename(p.paths.QueryLog, p.paths.QueryLog+".old"); err != nil {
		p.logger.Warn(map[string]any{"error": err.Error()}, "query log rotation failed")
		return
	}
	if err := os.WriteFile(p.paths.QueryLog, nil, 0o644); err != nil {
		p.logger.Warn(map[string]any{"error": err.Error()}, "creating fresh query log failed")
	}
	p.logger.Info(map[string]any{"path": p.paths.QueryLog}, "query log rotated")
}
