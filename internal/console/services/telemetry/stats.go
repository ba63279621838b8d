// Package telemetry turns the resolver's observable output, control-channel
// statistics and the query log, into structured views for the admin API.
package telemetry

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/haukened/ub-admin/internal/console/common/log"
)

// StatsSource reads the resolver's cumulative counters without resetting
// them.
type StatsSource interface {
	StatsNoReset(ctx context.Context) (string, bool)
}

// Snapshot is a point-in-time statistics view with derived metrics. Raw
// carries every counter verbatim for clients that want more.
type Snapshot struct {
	TotalQueries        int               `json:"total_queries"`
	CacheHits           int               `json:"cache_hits"`
	CacheMisses         int               `json:"cache_misses"`
	CacheHitRate        float64           `json:"cache_hit_rate"`
	BlockedDomains      int               `json:"blocked_domains"`
	NumThreads          string            `json:"num_threads"`
	Uptime              string            `json:"uptime"`
	QueriesPerSec       float64           `json:"queries_per_sec"`
	RecursionTimeAvg    string            `json:"recursion_time_avg"`
	RecursionTimeMedian string            `json:"recursion_time_median"`
	Prefetch            int               `json:"prefetch"`
	UnwantedQueries     int               `json:"unwanted_queries"`
	UnwantedReplies     int               `json:"unwanted_replies"`
	Rcodes              map[string]int    `json:"rcodes"`
	Qtypes              map[string]int    `json:"qtypes"`
	Memory              map[string]int64  `json:"memory"`
	Raw                 map[string]string `json:"raw"`
}

// Service assembles snapshots and query-log views.
type Service struct {
	source       StatsSource
	policyPath   string
	queryLogPath string
	logger       log.Logger
}

func New(source StatsSource, policyPath, queryLogPath string, logger log.Logger) *Service {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Service{
		source:       source,
		policyPath:   policyPath,
		queryLogPath: queryLogPath,
		logger:       logger,
	}
}

// ParseStats splits key=value statistics output into a map. Lines without
// an equals sign are ignored.
func ParseStats(raw string) map[string]string {
	stats := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		stats[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return stats
}

// Snapshot queries the resolver and derives the dashboard metrics. Rate
// derivations guard against zero denominators on a freshly started
// resolver.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	raw, ok := s.source.StatsNoReset(ctx)
	if !ok {
		return Snapshot{}, fmt.Errorf("unable to read resolver statistics: %s", raw)
	}
	stats := ParseStats(raw)

	totalQueries := statFloat(stats, "total.num.queries")
	cacheHits := statFloat(stats, "total.num.cachehits")
	cacheMiss := statFloat(stats, "total.num.cachemiss")

	var hitRate float64
	if totalQueries > 0 {
		hitRate = cacheHits / totalQueries * 100
	}

	uptime := statFloat(stats, "time.up")
	var qps float64
	if uptime > 0 {
		qps = round1(totalQueries / uptime)
	}

	snap := Snapshot{
		TotalQueries:        int(totalQueries),
		CacheHits:           int(cacheHits),
		CacheMisses:         int(cacheMiss),
		CacheHitRate:        round1(hitRate),
		BlockedDomains:      s.countBlockedDomains(),
		NumThreads:          statString(stats, "num.threads"),
		Uptime:              statString(stats, "time.up"),
		QueriesPerSec:       qps,
		RecursionTimeAvg:    statString(stats, "total.recursion.time.avg"),
		RecursionTimeMedian: statString(stats, "total.recursion.time.median"),
		Prefetch:            int(statFloat(stats, "num.prefetch")),
		UnwantedQueries:     int(statFloat(stats, "unwanted.queries")),
		UnwantedReplies:     int(statFloat(stats, "unwanted.replies")),
		Rcodes:              prefixCounts(stats, "num.answer.rcode."),
		Qtypes:              prefixCounts(stats, "num.query.type."),
		Memory:              memoryUsage(stats),
		Raw:                 stats,
	}
	return snap, nil
}

// countBlockedDomains counts exclusion directives in the policy file. A
// missing file means no blocklist has been generated yet.
func (s *Service) countBlockedDomains() int {
	raw, err := os.ReadFile(s.policyPath)
	if err != nil {
		return 0
	}
	count := 0
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(line, "local-zone:") {
			count++
		}
	}
	return count
}

// prefixCounts collects positive counters sharing a key prefix, keyed by
// the last dotted segment.
func prefixCounts(stats map[string]string, prefix string) map[string]int {
	out := make(map[string]int)
	for key, val := range stats {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		parts := strings.Split(key, ".")
		count := int(parseFloat(val))
		if count > 0 {
			out[parts[len(parts)-1]] = count
		}
	}
	return out
}

// memoryUsage collects every mem.* counter in bytes.
func memoryUsage(stats map[string]string) map[string]int64 {
	out := make(map[string]int64)
	for key, val := range stats {
		if label, found := strings.CutPrefix(key, "mem."); found {
			out[label] = int64(parseFloat(val))
		}
	}
	return out
}

func statFloat(stats map[string]string, key string) float64 {
	return parseFloat(stats[key])
}

// statString returns the raw counter value, or "N/A" when the resolver did
// not report it.
func statString(stats map[string]string, key string) string {
	if v, ok := stats[key]; ok {
		return v
	}
	return "N/A"
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
