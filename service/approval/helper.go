package approval

import (
	"context"
	"strings"
	"time"
)

// DecisionFunc decides what to do with a pending request.
// Return (true,  "") to approve
//
//	(false, "…") to reject with reason.
type DecisionFunc func(r *Request) (approved bool, reason string)

// AutoDecider starts a goroutine that polls owner's pending requests and
// applies fn to every one of them. It returns stop(); call it (or cancel
// ctx) to exit. Intended for unattended runs and tests where no interactive
// resolver exists.
func AutoDecider(ctx context.Context,
	svc Service,
	owner string,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				reqs, _ := svc.ListPending(ctx, owner)
				for _, r := range reqs {
					ok, reason := fn(r)
					_, _ = svc.Resolve(ctx, r.ID, ok, reason)
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all of owner's pending requests.
func AutoApprove(ctx context.Context,
	svc Service,
	owner string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc, owner,
		func(*Request) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all of owner's pending requests with the
// given reason.
func AutoReject(ctx context.Context,
	svc Service,
	owner string,
	reason string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc, owner,
		func(*Request) (bool, string) { return false, reason }, interval)
}

// PendingFilter narrows a ListPending snapshot for presentation purposes.
type PendingFilter func(r *Request) bool

// WithName keeps only requests whose payload name matches (case-insensitive).
func WithName(name string) PendingFilter {
	return func(r *Request) bool {
		return strings.EqualFold(r.Payload.Name, name)
	}
}

// OlderThan keeps only requests created before the given instant; useful for
// staleness diagnostics.
func OlderThan(t time.Time) PendingFilter {
	return func(r *Request) bool {
		return r.CreatedAt.Before(t)
	}
}

// FilterPending applies all filters, preserving the snapshot order.
func FilterPending(reqs []*Request, filters ...PendingFilter) []*Request {
	if len(filters) == 0 {
		return reqs
	}
	out := make([]*Request, 0, len(reqs))
outer:
	for _, r := range reqs {
		for _, f := range filters {
			if !f(r) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}
