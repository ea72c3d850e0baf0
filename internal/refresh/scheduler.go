package refresh

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler owns the recurring auto-refresh timer. It is restartable: every
// Start cancels the previous timer first, so there is never more than one
// active schedule. Restarting does not cancel an in-flight pass; the pass
// completes and writes its results.
type Scheduler struct {
	store     Store
	coord     *Coordinator
	clock     Clock
	lookahead time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(store Store, coord *Coordinator, clock Clock) *Scheduler {
	return &Scheduler{
		store:     store,
		coord:     coord,
		clock:     clock,
		lookahead: DefaultLookahead,
	}
}

// Start arms the recurring timer, cancelling any previous one, and runs an
// immediate catch-up pass. The interval is read from settings once per Start;
// a settings change is applied via Restart. The autoRefresh gate is evaluated
// on every pass, so flipping it does not require a restart.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.stopLocked()
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	settings := s.store.GetSettings(context.Background())
	interval := time.Duration(settings.AutoRefreshInterval) * time.Minute
	log.Printf("🔄 Auto-refresh scheduler started (interval: %dmin)", settings.AutoRefreshInterval)

	go s.run(stop, interval)
}

// Restart re-reads settings and re-arms the timer. Invoked on every
// settings change.
func (s *Scheduler) Restart() {
	s.Start()
}

// Stop cancels the timer. Safe to call repeatedly or when never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Scheduler) run(stop chan struct{}, interval time.Duration) {
	// Startup catch-up pass before the first tick.
	s.pass()

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			s.pass()
		}
	}
}

// pass runs one gated refresh pass. All failures are logged and contained;
// the timer must keep ticking for the lifetime of the process.
func (s *Scheduler) pass() {
	settings := s.store.GetSettings(context.Background())
	if !settings.AutoRefresh {
		log.Println("🔄 Auto-refresh disabled, skipping pass")
		return
	}
	if _, err := s.coord.RefreshDue(context.Background(), s.clock.Now(), s.lookahead); err != nil {
		log.Printf("⚠️ Refresh pass failed: %v", err)
	}
}

// RefreshNow runs one ungated pass immediately, for manual triggers and the
// login-success hook. The recurring timer is unaffected.
func (s *Scheduler) RefreshNow(ctx context.Context) ([]Outcome, error) {
	return s.coord.RefreshDue(ctx, s.clock.Now(), s.lookahead)
}
