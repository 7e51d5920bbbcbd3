package drop

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultTTL is the inactivity window after which a session is
	// eligible for reclamation.
	DefaultTTL = time.Hour
	// DefaultSweepInterval is the period between sweep cycles.
	DefaultSweepInterval = time.Minute
)

// Sweeper evicts sessions past their inactivity deadline and releases
// their backing objects. One long-lived Run loop per process.
type Sweeper struct {
	registry *Registry
	ttl      time.Duration
	interval time.Duration
	clock    clockwork.Clock
}

// NewSweeper builds a sweeper over the registry. Non-positive ttl or
// interval fall back to the defaults.
func NewSweeper(registry *Registry, ttl, interval time.Duration, clock clockwork.Clock) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{registry: registry, ttl: ttl, interval: interval, clock: clock}
}

// Run sweeps on a fixed period until ctx is cancelled. It never
// terminates otherwise; failures inside a cycle are logged by Sweep
// and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("service=sweeper msg=%q interval=%s ttl=%s", "starting", s.interval, s.ttl)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=sweeper msg=%q", "shutting_down")
			return
		case <-ticker.Chan():
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one scan-and-evict cycle. A session vanishing between the
// snapshot and its deletion, or a backing object already gone, is
// treated as handled; one session's failure never aborts the cycle for
// the rest.
func (s *Sweeper) Sweep(ctx context.Context) int {
	start := s.clock.Now()
	expired := s.registry.Expired(s.ttl)

	swept := 0
	for _, code := range expired {
		entries := s.registry.Delete(code)
		if entries == nil {
			// Already gone, e.g. an explicit end-session raced us.
			continue
		}
		for _, e := range entries {
			if err := s.registry.store.Remove(ctx, e.StorageKey); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Printf("service=sweeper msg=%q session=%s file=%s err=%v",
					"object_remove_failed", code, e.ID, err)
			}
		}
		log.Printf("service=sweeper msg=%q session=%s files=%d",
			"evicted_expired_session", code, len(entries))
		swept++
	}

	if swept > 0 {
		log.Printf("service=sweeper msg=%q swept=%d duration_ms=%d",
			"sweep_complete", swept, s.clock.Since(start).Milliseconds())
	}
	return swept
}
