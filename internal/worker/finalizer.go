package worker

import (
	"sync"
	"time"

	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
	"github.com/KangGunn/Madcamp-Week4/internal/platform/clock"
)

type pendingTimer struct {
	token string
	timer clock.Timer
}

// Finalizer keeps at most one one-shot timer per key. It implements
// vote.Scheduler; the token is the vote ID so a stale vote can never cancel
// or be mistaken for its replacement.
type Finalizer struct {
	clock   clock.Clock
	mu      sync.Mutex
	pending map[string]pendingTimer
}

func NewFinalizer(clk clock.Clock) *Finalizer {
	return &Finalizer{
		clock:   clk,
		pending: make(map[string]pendingTimer),
	}
}

// Schedule arranges for fn to run at the given instant, replacing any timer
// already held for key.
func (f *Finalizer) Schedule(key, token string, at time.Time, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.pending[key]; ok {
		prev.timer.Stop()
	}

	delay := at.Sub(f.clock.Now())
	if delay < 0 {
		delay = 0
	}
	t := f.clock.AfterFunc(delay, func() {
		if !f.release(key, token) {
			return
		}
		fn()
	})
	f.pending[key] = pendingTimer{token: token, timer: t}
	metrics.SetPendingFinalizers(len(f.pending))
}

// Cancel stops the timer for key if it still belongs to token.
func (f *Finalizer) Cancel(key, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.pending[key]
	if !ok || p.token != token {
		return false
	}
	delete(f.pending, key)
	metrics.SetPendingFinalizers(len(f.pending))
	return p.timer.Stop()
}

func (f *Finalizer) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Stop cancels every pending timer.
func (f *Finalizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, p := range f.pending {
		p.timer.Stop()
		delete(f.pending, key)
	}
	metrics.SetPendingFinalizers(0)
}

// release drops the bookkeeping for a fired timer. It reports false when the
// timer was replaced or cancelled after it started firing.
func (f *Finalizer) release(key, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[key]
	if !ok || p.token != token {
		return false
	}
	delete(f.pending, key)
	metrics.SetPendingFinalizers(len(f.pending))
	return true
}
