package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	approval "github.com/holdpoint/holdpoint/service/approval"
)

// errTimedOut marks the timeout terminal outcome inside the coordinator; it
// never escapes RequestDecision, which maps it to the fallback decision.
var errTimedOut = errors.New("decision timed out")

// waitHandle is a single-resolution synchronization primitive. Exactly one
// of {resolver, timeout, cancellation} claims it; later claims are refused
// so a decision can never be overwritten or delivered twice.
type waitHandle struct {
	mu       sync.Mutex
	claimed  bool
	decision *approval.Decision // non-nil only when a resolver won
	done     chan struct{}
}

func newWaitHandle() *waitHandle {
	return &waitHandle{done: make(chan struct{})}
}

// claim attempts to make d the terminal outcome. It reports whether this
// call won; a nil d claims a terminal state without a decision (timeout or
// cancellation). Safe to call from any goroutine.
func (h *waitHandle) claim(d *approval.Decision) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.claimed {
		return false
	}
	h.claimed = true
	h.decision = d
	close(h.done)
	return true
}

func (h *waitHandle) get() *approval.Decision {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.decision
}

// await suspends the calling goroutine until the handle is claimed, the
// timeout elapses, or ctx is cancelled. The registry lock is never held
// here; resolvers and listers stay unblocked for the whole wait. When the
// timer or ctx fires, await must still win the claim race - if a decision
// squeaked in first, that decision is returned instead.
func (h *waitHandle) await(ctx context.Context, timeout time.Duration) (*approval.Decision, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.get(), nil
	case <-timer.C:
		if h.claim(nil) {
			return nil, errTimedOut
		}
		return h.get(), nil
	case <-ctx.Done():
		if h.claim(nil) {
			return nil, ctx.Err()
		}
		return h.get(), nil
	}
}
