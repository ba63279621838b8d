package blocklist

import (
	"context"
	"time"
)

// Scheduler runs periodic refreshes against an Aggregator. Cycles never
// overlap: the next wait starts only after the previous refresh returns.
type Scheduler struct {
	agg      *Aggregator
	interval time.Duration
}

func NewScheduler(agg *Aggregator, interval time.Duration) *Scheduler {
	return &Scheduler{agg: agg, interval: interval}
}

// Run blocks until ctx is cancelled, refreshing once per interval. A cycle
// with no configured sources is skipped outright, so an empty console does
// not rewrite the policy file or poke the resolver. Refresh errors are
// logged and the loop continues; a broken store this tick may be fine the
// next.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.agg.clk.After(s.interval):
		}

		urls, err := s.agg.sourceURLs()
		if err != nil {
			s.agg.logger.Error(map[string]any{"error": err.Error()}, "unable to read blocklist sources")
			continue
		}
		if len(urls) == 0 {
			s.agg.logger.Debug(nil, "no blocklist sources configured, skipping refresh")
			continue
		}

		if _, err := s.agg.Refresh(ctx); err != nil {
			s.agg.logger.Error(map[string]any{"error": err.Error()}, "scheduled blocklist refresh failed")
		}
	}
}
