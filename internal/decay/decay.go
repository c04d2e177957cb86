// Package decay implements the Decay Sweeper (C11): a single background
// task that periodically shrinks every document's recent_clicks signal,
// ported from decay_loop/apply_decay in
// original_source/app/search_api.py.
package decay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/devraghav/offlineseo/internal/search"
)

// DefaultRecentClickMultiplier matches RECENT_CLICK_DECAY_MULTIPLIER in
// original_source's config.py.
const DefaultRecentClickMultiplier = 0.85

// Sweeper runs the decay sweep on a fixed interval until stopped. A
// Sweeper instance is single-use: only the first Start launches the sweep
// loop and later calls are no-ops, matching spec.md §4.11's
// single-instance requirement.
type Sweeper struct {
	backend               *search.Backend
	interval              time.Duration
	decayPerHour          float64
	recentClickMultiplier float64
	clock                 clock.Clock
	logger                zerolog.Logger

	startOnce sync.Once
	started   atomic.Bool
}

// Options configures a Sweeper.
type Options struct {
	Backend               *search.Backend
	Interval              time.Duration
	DecayPerHour          float64
	RecentClickMultiplier float64
	Clock                 clock.Clock
	Logger                zerolog.Logger
}

// New builds a Sweeper.
func New(opts Options) *Sweeper {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Sweeper{
		backend:               opts.Backend,
		interval:              opts.Interval,
		decayPerHour:          opts.DecayPerHour,
		recentClickMultiplier: opts.RecentClickMultiplier,
		clock:                 clk,
		logger:                opts.Logger.With().Str("component", "decay-sweeper").Logger(),
	}
}

// Start launches the sweep loop in a goroutine and returns immediately.
// It is a no-op on every call after the first, guarding against
// accidentally starting two sweepers against the same backend. The loop
// exits when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run(ctx)
	})
}

// Started reports whether Start has been called.
func (s *Sweeper) Started() bool {
	return s.started.Load()
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("decay sweep failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// sweepOnce applies one decay pass across every document.
func (s *Sweeper) sweepOnce(ctx context.Context) error {
	nowMs := s.clock.Now().UnixMilli()
	s.logger.Info().Msg("applying ranking decay to all documents")
	return s.backend.ApplyDecaySweep(ctx, map[string]interface{}{
		"recent_click_multiplier": s.recentClickMultiplier,
		"now_ms":                  nowMs,
		"decay_per_hour":          s.decayPerHour,
	})
}
