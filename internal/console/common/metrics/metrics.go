package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges for the console's own operations. Resolver-side
// statistics come from unbound itself and are not duplicated here.
var (
	ConfigApplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ubadmin",
		Name:      "config_applies_total",
		Help:      "Configuration apply attempts by outcome.",
	}, []string{"outcome"}) // accepted, rejected, rolled_back

	RefreshCycles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ubadmin",
		Name:      "blocklist_refresh_total",
		Help:      "Completed blocklist refresh cycles.",
	})

	RefreshSourceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ubadmin",
		Name:      "blocklist_source_errors_total",
		Help:      "Per-source fetch/parse failures across refresh cycles.",
	})

	BlockedDomains = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ubadmin",
		Name:      "blocked_domains",
		Help:      "Domains in the rendered blocklist after the last refresh.",
	})

	ControlCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ubadmin",
		Name:      "control_commands_total",
		Help:      "unbound-control invocations by command and outcome.",
	}, []string{"command", "outcome"}) // ok, error
)
