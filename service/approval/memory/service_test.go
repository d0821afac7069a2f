package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/holdpoint/holdpoint/internal/idgen"
	approval "github.com/holdpoint/holdpoint/service/approval"
	memapproval "github.com/holdpoint/holdpoint/service/approval/memory"
	qmem "github.com/holdpoint/holdpoint/service/messaging/memory"
)

// pollPending polls until owner has count pending requests, returning nil
// when the deadline passes. It never fails the test itself, so helper
// goroutines may call it; t.Fatalf off the test goroutine is unsupported.
func pollPending(svc approval.Service, owner string, count int) []*approval.Request {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pending, err := svc.ListPending(context.Background(), owner)
		if err == nil && len(pending) >= count {
			return pending
		}
		time.Sleep(2 * time.Millisecond)
	}
	return nil
}

// waitForPending is the test-goroutine variant of pollPending; it fails the
// test when the pending set never materialises.
func waitForPending(t *testing.T, svc approval.Service, owner string, count int) []*approval.Request {
	t.Helper()
	pending := pollPending(svc, owner, count)
	if pending == nil {
		t.Fatalf("owner %s never reached %d pending requests", owner, count)
	}
	return pending
}

func TestRequestDecision(t *testing.T) {
	type testCase struct {
		name        string
		approve     bool
		reason      string
		resolve     bool
		timeout     time.Duration
		fallback    approval.Outcome
		expectedOK  bool
		expectedWhy string
	}

	tests := []testCase{{
		name:        "approved before timeout",
		approve:     true,
		reason:      "looks safe",
		resolve:     true,
		timeout:     500 * time.Millisecond,
		fallback:    approval.OutcomeReject,
		expectedOK:  true,
		expectedWhy: "looks safe",
	}, {
		name:        "rejected before timeout",
		approve:     false,
		reason:      "too risky",
		resolve:     true,
		timeout:     500 * time.Millisecond,
		fallback:    approval.OutcomeReject,
		expectedOK:  false,
		expectedWhy: "too risky",
	}, {
		name:        "timeout applies reject fallback",
		resolve:     false,
		timeout:     50 * time.Millisecond,
		fallback:    approval.OutcomeReject,
		expectedOK:  false,
		expectedWhy: "decision timed out",
	}, {
		name:        "timeout applies approve fallback",
		resolve:     false,
		timeout:     50 * time.Millisecond,
		fallback:    approval.OutcomeApprove,
		expectedOK:  true,
		expectedWhy: "decision timed out",
	}}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc := memapproval.New()

			if tc.resolve {
				go func() {
					if pending := pollPending(svc, "alice", 1); pending != nil {
						_, _ = svc.Resolve(ctx, pending[0].ID, tc.approve, tc.reason)
					}
				}()
			}

			started := time.Now()
			dec, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "delete_file"}, tc.timeout, tc.fallback)
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedOK, dec.Approved)
			assert.Equal(t, tc.expectedWhy, dec.Reason)

			if !tc.resolve {
				// Default must arrive within a bounded margin of the timeout.
				assert.Less(t, time.Since(started), tc.timeout+100*time.Millisecond)
			}

			// Cleanup completeness: the request never outlives the call.
			pending, err := svc.ListPending(ctx, "alice")
			assert.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestRequestDecisionValidation(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	_, err := svc.RequestDecision(ctx, "", approval.Payload{Name: "x"}, time.Second, approval.OutcomeReject)
	assert.True(t, errors.Is(err, approval.ErrEmptyOwner))

	_, err = svc.RequestDecision(ctx, "alice", approval.Payload{Name: "x"}, 0, approval.OutcomeReject)
	assert.True(t, errors.Is(err, approval.ErrInvalidTimeout))

	_, err = svc.RequestDecision(ctx, "alice", approval.Payload{Name: "x"}, -time.Second, approval.OutcomeReject)
	assert.True(t, errors.Is(err, approval.ErrInvalidTimeout))
}

func TestResolveNotFound(t *testing.T) {
	svc := memapproval.New()
	_, err := svc.Resolve(context.Background(), "missing", true, "")
	assert.True(t, errors.Is(err, approval.ErrNotFound))
}

func TestExactlyOnceResolution(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	type result struct {
		dec *approval.Decision
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		dec, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "drop_table"}, 2*time.Second, approval.OutcomeReject)
		waiter <- result{dec, err}
	}()

	pending := waitForPending(t, svc, "alice", 1)
	id := pending[0].ID

	// N concurrent resolvers with conflicting decisions: exactly one wins.
	// A resolver arriving after the waiter's cleanup sees not-found, which
	// is the only acceptable failure.
	const resolvers = 8
	var wg sync.WaitGroup
	wg.Add(resolvers)
	for i := 0; i < resolvers; i++ {
		go func(approved bool) {
			defer wg.Done()
			_, err := svc.Resolve(ctx, id, approved, "")
			if err != nil {
				assert.True(t, errors.Is(err, approval.ErrNotFound))
			}
		}(i%2 == 0)
	}
	wg.Wait()

	got := <-waiter
	assert.NoError(t, got.err)
	assert.Equal(t, id, got.dec.ID)

	pendingAfter, err := svc.ListPending(ctx, "alice")
	assert.NoError(t, err)
	assert.Empty(t, pendingAfter)
}

func TestResolveTimeoutRace(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	const timeout = 50 * time.Millisecond

	type result struct {
		dec *approval.Decision
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		dec, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "send_email"}, timeout, approval.OutcomeReject)
		waiter <- result{dec, err}
	}()

	pending := waitForPending(t, svc, "alice", 1)

	// Fire the decision right around the timeout instant.
	go func() {
		time.Sleep(timeout)
		_, _ = svc.Resolve(ctx, pending[0].ID, true, "")
	}()

	select {
	case got := <-waiter:
		assert.NoError(t, got.err)
		// Either the explicit approval or the reject fallback won - never
		// both, never neither.
		if got.dec.Approved {
			assert.Empty(t, got.dec.Reason)
		} else {
			assert.Equal(t, "decision timed out", got.dec.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handshake hung on resolve/timeout race")
	}
}

func TestRequestDecisionCancellation(t *testing.T) {
	svc := memapproval.New()

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		dec *approval.Decision
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		dec, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "reboot"}, time.Minute, approval.OutcomeReject)
		waiter <- result{dec, err}
	}()

	waitForPending(t, svc, "alice", 1)
	cancel()

	got := <-waiter
	assert.Nil(t, got.dec)
	assert.True(t, errors.Is(got.err, context.Canceled))

	pending, err := svc.ListPending(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	type result struct {
		dec *approval.Decision
		err error
	}
	alice := make(chan result, 1)
	bob := make(chan result, 1)
	go func() {
		dec, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "a"}, 2*time.Second, approval.OutcomeReject)
		alice <- result{dec, err}
	}()
	go func() {
		dec, err := svc.RequestDecision(ctx, "bob", approval.Payload{Name: "b"}, 2*time.Second, approval.OutcomeReject)
		bob <- result{dec, err}
	}()

	waitForPending(t, svc, "alice", 1)
	bobPending := waitForPending(t, svc, "bob", 1)

	alicePending, err := svc.ListPending(ctx, "alice")
	assert.NoError(t, err)
	_, err = svc.Resolve(ctx, alicePending[0].ID, true, "")
	assert.NoError(t, err)

	got := <-alice
	assert.NoError(t, got.err)
	assert.True(t, got.dec.Approved)

	// Bob's request is untouched by Alice's resolution.
	stillPending, err := svc.ListPending(ctx, "bob")
	assert.NoError(t, err)
	if assert.Len(t, stillPending, 1) {
		assert.Equal(t, bobPending[0].ID, stillPending[0].ID)
	}

	_, err = svc.Resolve(ctx, bobPending[0].ID, false, "nope")
	assert.NoError(t, err)
	gotBob := <-bob
	assert.NoError(t, gotBob.err)
	assert.False(t, gotBob.dec.Approved)
}

func TestListPendingOrdering(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	// Start waiters one at a time so insertion order is deterministic.
	names := []string{"first", "second", "third"}
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, _ = svc.RequestDecision(ctx, "alice", approval.Payload{Name: name}, 2*time.Second, approval.OutcomeReject)
		}(name)
		waitForPending(t, svc, "alice", i+1)
	}

	pending, err := svc.ListPending(ctx, "alice")
	assert.NoError(t, err)
	var got []string
	for _, r := range pending {
		got = append(got, r.Payload.Name)
	}
	assert.EqualValues(t, names, got)

	// Resolve out of order; remaining entries keep their relative order.
	_, err = svc.Resolve(ctx, pending[1].ID, true, "")
	assert.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if rest, _ := svc.ListPending(ctx, "alice"); len(rest) == 2 {
			assert.Equal(t, "first", rest[0].Payload.Name)
			assert.Equal(t, "third", rest[1].Payload.Name)
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	for _, r := range pending {
		_, _ = svc.Resolve(ctx, r.ID, false, "done")
	}
	wg.Wait()
}

func TestDuplicateIDFailsLoudly(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	prev := idgen.NewFunc
	idgen.NewFunc = func() string { return "fixed-id" }
	defer func() { idgen.NewFunc = prev }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.RequestDecision(ctx, "alice", approval.Payload{Name: "a"}, time.Second, approval.OutcomeReject)
	}()
	waitForPending(t, svc, "alice", 1)

	// The colliding call must fail before blocking, leaving the first
	// request intact.
	_, err := svc.RequestDecision(ctx, "bob", approval.Payload{Name: "b"}, time.Second, approval.OutcomeReject)
	assert.True(t, errors.Is(err, approval.ErrDuplicateID))

	_, err = svc.Resolve(ctx, "fixed-id", true, "")
	assert.NoError(t, err)
	<-done
}

func TestLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	go func() {
		if pending := pollPending(svc, "alice", 1); pending != nil {
			_, _ = svc.Resolve(ctx, pending[0].ID, true, "")
		}
	}()

	_, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "delete_file"}, time.Second, approval.OutcomeReject)
	assert.NoError(t, err)

	var topics []string
	for i := 0; i < 2; i++ {
		consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
		msg, err := svc.Queue().Consume(consumeCtx)
		cancel()
		assert.NoError(t, err)
		event := msg.T()
		assert.Equal(t, "alice", event.Headers[approval.HeaderOwner])
		topics = append(topics, event.Topic)
		assert.NoError(t, msg.Ack())
	}
	assert.EqualValues(t, []string{approval.TopicRequestCreated, approval.TopicDecisionCreated}, topics)
}

func TestExpiredEventOnTimeout(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	_, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "noop"}, 20*time.Millisecond, approval.OutcomeReject)
	assert.NoError(t, err)

	var topics []string
	for i := 0; i < 2; i++ {
		consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
		msg, err := svc.Queue().Consume(consumeCtx)
		cancel()
		assert.NoError(t, err)
		topics = append(topics, msg.T().Topic)
		assert.NoError(t, msg.Ack())
	}
	assert.EqualValues(t, []string{approval.TopicRequestCreated, approval.TopicRequestExpired}, topics)
}

func TestSaturatedEventQueueNeverStallsHandshake(t *testing.T) {
	ctx := context.Background()

	// One-slot queue with no consumer: request.created fills it and every
	// later event must be dropped, not waited on.
	queueConfig := qmem.DefaultConfig()
	queueConfig.QueueBuffer = 1
	svc := memapproval.New(memapproval.WithQueue(qmem.NewQueue[approval.Event](queueConfig)))

	const timeout = 50 * time.Millisecond
	started := time.Now()
	dec, err := svc.RequestDecision(ctx, "alice", approval.Payload{Name: "noop"}, timeout, approval.OutcomeReject)
	assert.NoError(t, err)
	assert.False(t, dec.Approved)
	assert.Equal(t, "decision timed out", dec.Reason)
	assert.Less(t, time.Since(started), timeout+500*time.Millisecond)

	// Cleanup ran despite the full queue.
	pending, err := svc.ListPending(ctx, "alice")
	assert.NoError(t, err)
	assert.Empty(t, pending)

	// The event that fit the buffer is still deliverable.
	consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msg, err := svc.Queue().Consume(consumeCtx)
	assert.NoError(t, err)
	assert.Equal(t, approval.TopicRequestCreated, msg.T().Topic)
	assert.NoError(t, msg.Ack())
}

// TestEndToEnd follows the full handshake: a worker blocks, a second party
// inspects the pending table, approves, and the worker resumes.
func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := memapproval.New()

	type result struct {
		dec *approval.Decision
		err error
	}
	worker := make(chan result, 1)
	go func() {
		dec, err := svc.RequestDecision(ctx, "alice", approval.Payload{
			Name: "delete_file",
			Args: map[string]interface{}{"path": "/tmp/report.csv"},
		}, 5*time.Second, approval.OutcomeReject)
		worker <- result{dec, err}
	}()

	pending := waitForPending(t, svc, "alice", 1)
	assert.Equal(t, "delete_file", pending[0].Payload.Name)
	assert.Equal(t, "/tmp/report.csv", pending[0].Payload.Args["path"])
	assert.False(t, pending[0].CreatedAt.IsZero())

	dec, err := svc.Resolve(ctx, pending[0].ID, true, "verified by operator")
	assert.NoError(t, err)
	assert.True(t, dec.Approved)

	got := <-worker
	assert.NoError(t, got.err)
	assert.True(t, got.dec.Approved)
	assert.Equal(t, "verified by operator", got.dec.Reason)

	after, err := svc.ListPending(ctx, "alice")
	assert.NoError(t, err)
	assert.Empty(t, after)

	// The id is gone for good; a late decision reports not found.
	_, err = svc.Resolve(ctx, pending[0].ID, false, "")
	assert.True(t, errors.Is(err, approval.ErrNotFound))
}
