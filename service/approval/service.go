package approval

import (
	"context"
	"time"

	"github.com/holdpoint/holdpoint/service/messaging"
)

// Service defines the decision coordination interface.
type Service interface {
	// RequestDecision registers a pending request for owner and blocks the
	// calling goroutine until an external resolver supplies a decision, the
	// timeout elapses (yielding the fallback outcome), or ctx is cancelled
	// (propagated as ctx.Err()). The request is removed from the pending set
	// on every exit path.
	RequestDecision(ctx context.Context, owner string, payload Payload, timeout time.Duration, fallback Outcome) (*Decision, error)

	// Resolve delivers a decision to the waiter blocked on id. It returns
	// ErrNotFound when no such request is pending. The returned decision is
	// the one recorded by this call even when it arrived after a timeout
	// already won the race; "too late" is an internal detail, not a distinct
	// return contract.
	Resolve(ctx context.Context, id string, approved bool, reason string) (*Decision, error)

	// ListPending returns an insertion-ordered snapshot of owner's
	// outstanding requests. It never blocks and never mutates state.
	ListPending(ctx context.Context, owner string) ([]*Request, error)

	// Queue exposes the lifecycle event stream.
	Queue() messaging.Queue[Event]
}
