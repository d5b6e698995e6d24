package live

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const defaultSweepInterval = 30 * time.Second

// Sweeper periodically removes subscribers whose connection is gone but
// which were never unsubscribed.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	metrics  Recorder
	log      zerolog.Logger
}

func NewSweeper(registry *Registry, interval time.Duration, metrics Recorder, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Sweeper{
		registry: registry,
		interval: interval,
		metrics:  metrics,
		log:      log.With().Str("component", "sweeper").Logger(),
	}
}

// Serve runs until ctx is done.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Sweeper) Sweep() int {
	removed := s.registry.Prune()
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("pruned stale subscribers")
	}
	s.metrics.Subscribers(s.registry.Count())
	return removed
}

func (s *Sweeper) String() string {
	return "live-sweeper"
}
