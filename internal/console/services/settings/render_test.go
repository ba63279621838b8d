package settings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/ub-admin/internal/console/common/log"
	"github.com/haukened/ub-admin/internal/console/domain"
	"github.com/haukened/ub-admin/internal/console/repos/docstore"
)

func newRenderPipeline() *Pipeline {
	return NewPipeline(NewSchema(), docstore.NewMemory(), nil, Paths{
		UnboundConf:      "/etc/unbound/unbound.conf",
		BlocklistConf:    "/etc/unbound/blocklist.conf",
		LocalRecordsConf: "/etc/unbound/local_records.conf",
		QueryLog:         "/data/unbound_queries.log",
	}, log.NewNoopLogger())
}

func TestRender_Deterministic(t *testing.T) {
	p := newRenderPipeline()
	cfg := p.Schema().Defaults()

	assert.Equal(t, p.Render(cfg), p.Render(cfg), "same input must render byte-identical output")
}

func TestRender_Defaults(t *testing.T) {
	p := newRenderPipeline()
	out := p.Render(p.Schema().Defaults())

	assert.True(t, strings.HasPrefix(out, "server:\n"), "artifact starts with the server block")
	assert.True(t, strings.HasSuffix(out, "\n"), "artifact ends with a newline")

	for _, directive := range []string{
		"    do-ip4: yes\n",
		"    do-ip6: yes\n",
		"    prefer-ip4: yes\n",
		"    num-threads: 2\n",
		"    prefetch: yes\n",
		"    fast-server-permil: 500\n",
		"    fast-server-num: 5\n",
		"    cache-min-ttl: 60\n",
		"    cache-max-ttl: 86400\n",
		"    qname-minimisation: yes\n",
		"    hide-identity: yes\n",
		"    hide-version: yes\n",
		"    verbosity: 1\n",
		"    logfile: \"\"\n",
		"    log-queries: no\n",
		"    log-replies: no\n",
		"    include: \"/etc/unbound/blocklist.conf\"\n",
		"    include: \"/etc/unbound/local_records.conf\"\n",
		"    access-control: 127.0.0.0/8 allow\n",
		"    access-control: 10.0.0.0/8 allow\n",
		"    access-control: 172.16.0.0/12 allow\n",
		"    access-control: 192.168.0.0/16 allow\n",
		"    val-clean-additional: yes\n",
		"remote-control:\n",
		"    control-enable: yes\n",
	} {
		assert.Contains(t, out, directive)
	}

	assert.NotContains(t, out, "forward-zone:", "no forwarding block without forward servers")
	assert.NotContains(t, out, "module-config", "DNSSEC enabled must not disable the validator")
}

func TestRender_DNSSECDisabledBranch(t *testing.T) {
	p := newRenderPipeline()
	cfg := p.Schema().Defaults()
	cfg["enable_dnssec"] = false

	out := p.Render(cfg)
	assert.Contains(t, out, "    module-config: \"iterator\"\n")
	assert.NotContains(t, out, "val-clean-additional")
}

func TestRender_QueryLogging(t *testing.T) {
	p := newRenderPipeline()
	cfg := p.Schema().Defaults()
	cfg["log_queries"] = true

	out := p.Render(cfg)
	assert.Contains(t, out, "    logfile: \"/data/unbound_queries.log\"\n")
	assert.Contains(t, out, "    log-queries: yes\n")
	assert.Contains(t, out, "    log-replies: yes\n")
}

func TestRender_ForwardZone(t *testing.T) {
	p := newRenderPipeline()
	cfg := p.Schema().Defaults()
	cfg["forward_servers"] = []string{"1.1.1.1@853", "9.9.9.9@853"}
	cfg["forward_tls"] = true

	out := p.Render(cfg)
	idx := strings.Index(out, "forward-zone:")
	assert.Greater(t, idx, 0)
	tail := out[idx:]
	assert.Contains(t, tail, "    name: \".\"\n")
	assert.Contains(t, tail, "    forward-tls-upstream: yes\n")
	assert.Contains(t, tail, "    forward-addr: 1.1.1.1@853\n")
	assert.Contains(t, tail, "    forward-addr: 9.9.9.9@853\n")
}

func TestRender_DiffersOnlyInChangedFields(t *testing.T) {
	p := newRenderPipeline()
	base := p.Schema().Defaults()
	changed := base.Clone()
	changed["num_threads"] = 8

	baseLines := strings.Split(p.Render(base), "\n")
	changedLines := strings.Split(p.Render(changed), "\n")
	assert.Equal(t, len(baseLines), len(changedLines))

	var diffs []string
	for i := range baseLines {
		if baseLines[i] != changedLines[i] {
			diffs = append(diffs, changedLines[i])
		}
	}
	assert.Equal(t, []string{"    num-threads: 8"}, diffs)
}

func TestRender_SparseMapFallsBackToDefaults(t *testing.T) {
	p := newRenderPipeline()

	full := p.Render(p.Schema().Defaults())
	sparse := p.Render(domain.Settings{})
	assert.Equal(t, full, sparse, "missing keys render with schema defaults")
}
