package story

import (
	"context"
	"log"
	"time"

	"github.com/storyloom-dev/storyloom/pkg/observability"
)

// Sweeper deletes sessions that have been idle beyond a TTL. The core
// registry never expires anything on its own; deployments that want
// bounded memory run a sweeper next to the engine.
type Sweeper struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
}

// NewSweeper creates a sweeper that deletes sessions idle longer than ttl,
// checking every interval.
func NewSweeper(store Store, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, ttl: ttl, interval: interval}
}

// Run blocks, sweeping on each tick until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		log.Printf("sweep: list sessions: %v", err)
		return
	}
	cutoff := time.Now().UTC().Add(-s.ttl)
	for _, sess := range sessions {
		if sess.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, sess.ID); err != nil {
			log.Printf("sweep: delete session %s: %v", sess.ID, err)
			continue
		}
		observability.DecActiveSessions()
		log.Printf("sweep: expired session %s (idle since %s)", sess.ID, sess.UpdatedAt.Format(time.RFC3339))
	}
}
