package settings

import (
	"fmt"
	"strings"

	"github.com/haukened/ub-admin/internal/console/domain"
)

// Render produces the unbound.conf text for cfg. It is a pure function of
// its input: the same Settings always renders byte-identical output. The
// rendered text is a derived artifact; only the stored documents are
// authoritative.
func (p *Pipeline) Render(cfg domain.Settings) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		if len(args) > 0 {
			fmt.Fprintf(&b, format, args...)
		} else {
			b.WriteString(format)
		}
		b.WriteByte('\n')
	}

	logFile := ""
	if p.boolOpt(cfg, "log_queries") {
		logFile = p.paths.QueryLog
	}

	line("server:")
	line("    # Daemon settings")
	line("    do-daemonize: no")
	line(`    chroot: ""`)
	line("")
	line("    # Network settings")
	line("    interface: 0.0.0.0")
	line("    port: 53")
	line("    do-ip4: %s", yesno(p.boolOpt(cfg, "do_ip4")))
	line("    do-ip6: %s", yesno(p.boolOpt(cfg, "do_ip6")))
	line("    prefer-ip4: %s", yesno(p.boolOpt(cfg, "prefer_ip4")))
	line("    do-udp: yes")
	line("    do-tcp: yes")
	line("    do-not-query-localhost: no")
	line("")
	line("    # Performance settings")
	line("    num-threads: %d", p.intOpt(cfg, "num_threads"))
	line("    prefetch: %s", yesno(p.boolOpt(cfg, "prefetch")))
	line("    fast-server-permil: %d", p.intOpt(cfg, "fast_server_permil"))
	line("    fast-server-num: %d", p.intOpt(cfg, "fast_server_num"))
	line("    msg-cache-slabs: 4")
	line("    rrset-cache-slabs: 4")
	line("    infra-cache-slabs: 4")
	line("    key-cache-slabs: 4")
	line("")
	line("    # Cache settings")
	line("    cache-min-ttl: %d", p.intOpt(cfg, "cache_min_ttl"))
	line("    cache-max-ttl: %d", p.intOpt(cfg, "cache_max_ttl"))
	line("")
	line("    # Privacy settings")
	line("    qname-minimisation: %s", yesno(p.boolOpt(cfg, "qname_minimisation")))
	line("    hide-identity: %s", yesno(p.boolOpt(cfg, "hide_identity")))
	line("    hide-version: %s", yesno(p.boolOpt(cfg, "hide_version")))
	line("")
	line("    # Root hints for recursive resolution")
	line(`    root-hints: "/etc/unbound/root.hints"`)
	line("")
	line("    # Trust anchor for DNSSEC")
	line(`    auto-trust-anchor-file: "/var/lib/unbound/root.key"`)
	line("")
	line("    # Hardening")
	line("    harden-glue: yes")
	line("    harden-dnssec-stripped: yes")
	line("    harden-referral-path: yes")
	line("")
	line("    # Log settings")
	line("    verbosity: %d", p.intOpt(cfg, "verbosity"))
	line(`    logfile: "%s"`, logFile)
	line("    log-queries: %s", yesno(p.boolOpt(cfg, "log_queries")))
	line("    log-replies: %s", yesno(p.boolOpt(cfg, "log_queries")))
	line("    log-servfail: yes")
	line("")
	line("    # Include blocklist and local records")
	line(`    include: "%s"`, p.paths.BlocklistConf)
	line(`    include: "%s"`, p.paths.LocalRecordsConf)

	// one access-control entry per configured network
	for _, network := range p.listOpt(cfg, "access_control") {
		line("    access-control: %s allow", network)
	}

	if p.boolOpt(cfg, "enable_dnssec") {
		line("")
		line("    # DNSSEC validation")
		line("    val-clean-additional: yes")
	} else {
		line("")
		line("    # DNSSEC validation disabled")
		line(`    module-config: "iterator"`)
	}

	line("")
	line("remote-control:")
	line("    control-enable: yes")
	line("    control-interface: 127.0.0.1")
	line(`    server-key-file: "/etc/unbound/unbound_server.key"`)
	line(`    server-cert-file: "/etc/unbound/unbound_server.pem"`)
	line(`    control-key-file: "/etc/unbound/unbound_control.key"`)
	line(`    control-cert-file: "/etc/unbound/unbound_control.pem"`)

	// forwarding block only when forward servers are configured
	if servers := p.listOpt(cfg, "forward_servers"); len(servers) > 0 {
		line("")
		line("forward-zone:")
		line(`    name: "."`)
		line("    forward-tls-upstream: %s", yesno(p.boolOpt(cfg, "forward_tls")))
		for _, server := range servers {
			line("    forward-addr: %s", server)
		}
	}

	return b.String()
}

func yesno(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// boolOpt, intOpt, and listOpt read cfg values with the schema default as
// fallback, so rendering stays total even for sparse maps.

func (p *Pipeline) boolOpt(cfg domain.Settings, key string) bool {
	var fallback bool
	if o, ok := p.schema.Lookup(key); ok {
		fallback, _ = o.Default.(bool)
	}
	return cfg.Bool(key, fallback)
}

func (p *Pipeline) intOpt(cfg domain.Settings, key string) int {
	var fallback int
	if o, ok := p.schema.Lookup(key); ok {
		fallback, _ = domain.AsInt(o.Default)
	}
	return cfg.Int(key, fallback)
}

func (p *Pipeline) listOpt(cfg domain.Settings, key string) []string {
	var fallback []string
	if o, ok := p.schema.Lookup(key); ok {
		fallback, _ = domain.AsStringList(o.Default)
	}
	return cfg.List(key, fallback)
}
