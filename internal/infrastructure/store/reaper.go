package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/infrastructure/metrics"
)

// Reaper ends sessions that stayed idle longer than idleTTL, e.g. a car
// that left the lane without confirming.
type Reaper struct {
	sessions  session.Service
	idleTTL   time.Duration
	interval  time.Duration
	log       zerolog.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewReaper creates a new idle-session reaper.
func NewReaper(sessions session.Service, idleTTL, interval time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{
		sessions: sessions,
		idleTTL:  idleTTL,
		interval: interval,
		log:      log.With().Str("component", "session-reaper").Logger(),
		done:     make(chan struct{}),
	}
}

// Start begins the reap loop in background.
// Safe to call multiple times - only the first call starts the reaper.
func (r *Reaper) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.run(ctx)
		r.log.Info().Dur("idle_ttl", r.idleTTL).Msg("session reaper started")
	})
}

// Stop gracefully shuts down the reaper.
// Safe to call multiple times - only the first call stops the reaper.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.log.Info().Msg("session reaper stopped")
	})
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *Reaper) reap(ctx context.Context) {
	n, err := r.sessions.ReapIdle(ctx, r.idleTTL)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list sessions")
		return
	}
	for i := 0; i < n; i++ {
		metrics.RecordSessionEnded("idle")
	}
	if n > 0 {
		r.log.Info().Int("reaped", n).Msg("idle sessions ended")
	}
}
