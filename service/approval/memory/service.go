package memory

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/holdpoint/holdpoint/internal/clock"
	"github.com/holdpoint/holdpoint/internal/idgen"
	approval "github.com/holdpoint/holdpoint/service/approval"
	"github.com/holdpoint/holdpoint/service/messaging"
	qmem "github.com/holdpoint/holdpoint/service/messaging/memory"
	"github.com/holdpoint/holdpoint/tracing"
)

type service struct {
	registry *registry
	events   messaging.Queue[approval.Event]
	logger   *zap.Logger
}

// New creates the in-process coordinator.
func New(options ...Option) approval.Service {
	ret := &service{
		registry: newRegistry(),
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.events == nil {
		ret.events = qmem.NewQueue[approval.Event](qmem.DefaultConfig())
	}
	ret.logger = ret.logger.With(zap.String("component", "approval"))
	return ret
}

// RequestDecision implements the blocking half of the handshake. The request
// is registered, the caller suspends on its wait handle, and the registry
// entry is removed on every exit path - decision, timeout, cancellation or a
// panic unwinding through the call.
func (s *service) RequestDecision(ctx context.Context, owner string, payload approval.Payload, timeout time.Duration, fallback approval.Outcome) (dec *approval.Decision, err error) {
	if owner == "" {
		return nil, approval.ErrEmptyOwner
	}
	if timeout <= 0 {
		return nil, approval.ErrInvalidTimeout
	}

	ctx, span := tracing.StartSpan(ctx, "approval.RequestDecision", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	req := &approval.Request{
		ID:        idgen.New(),
		Owner:     owner,
		Payload:   payload,
		CreatedAt: clock.Now(),
	}
	span.WithAttributes(map[string]string{"request.id": req.ID, "request.owner": owner})

	handle := newWaitHandle()
	if err = s.registry.insert(req, handle); err != nil {
		// Unreachable with random ids; fail the call before any blocking.
		return nil, err
	}
	defer s.registry.remove(owner, req.ID)

	s.logger.Info("decision requested",
		zap.String("id", req.ID),
		zap.String("owner", owner),
		zap.String("name", payload.Name),
		zap.Duration("timeout", timeout),
	)
	s.publish(approval.TopicRequestCreated, req, owner)

	dec, err = handle.await(ctx, timeout)
	switch {
	case err == nil:
		s.logger.Info("decision delivered",
			zap.String("id", req.ID),
			zap.Bool("approved", dec.Approved),
		)
		return dec, nil
	case errors.Is(err, errTimedOut):
		dec = &approval.Decision{
			ID:        req.ID,
			Approved:  fallback == approval.OutcomeApprove,
			Reason:    "decision timed out",
			DecidedAt: clock.Now(),
		}
		s.logger.Warn("decision timed out",
			zap.String("id", req.ID),
			zap.String("fallback", string(fallback)),
		)
		s.publish(approval.TopicRequestExpired, req, owner)
		return dec, nil
	default:
		// Caller cancelled; propagate rather than fabricate a decision.
		s.logger.Info("decision cancelled", zap.String("id", req.ID))
		s.publish(approval.TopicRequestCancelled, req, owner)
		return nil, err
	}
}

// Resolve delivers a decision to the waiter blocked on id. The registry
// entry is not removed here - teardown belongs to the waiter's own cleanup,
// which prevents a resolver from racing a concurrently firing timeout over
// shared state.
func (s *service) Resolve(ctx context.Context, id string, approved bool, reason string) (dec *approval.Decision, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Resolve", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	e, err := s.registry.find(id)
	if err != nil {
		return nil, err
	}
	span.WithAttributes(map[string]string{"request.id": id})

	dec = &approval.Decision{
		ID:        id,
		Approved:  approved,
		Reason:    reason,
		DecidedAt: clock.Now(),
	}
	if e.handle.claim(dec) {
		s.logger.Info("decision resolved",
			zap.String("id", id),
			zap.Bool("approved", approved),
		)
	} else {
		// Lost the race against a timeout or cancellation that fired first.
		s.logger.Debug("decision arrived after terminal outcome", zap.String("id", id))
	}
	s.publish(approval.TopicDecisionCreated, dec, e.request.Owner)
	return dec, nil
}

// ListPending returns an insertion-ordered snapshot of owner's outstanding
// requests. A request resolved microseconds ago may still appear until its
// waiter finishes cleanup; it disappears once RequestDecision returns.
func (s *service) ListPending(_ context.Context, owner string) ([]*approval.Request, error) {
	return s.registry.list(owner), nil
}

// Queue exposes the lifecycle event stream.
func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

// publish fans out a lifecycle event. Delivery is best-effort: a saturated
// queue drops the event rather than stalling the handshake or its cleanup.
func (s *service) publish(topic string, data interface{}, owner string) {
	accepted := s.events.TryPublish(&approval.Event{
		Topic:   topic,
		Data:    data,
		Headers: map[string]string{approval.HeaderOwner: owner},
	})
	if !accepted {
		s.logger.Warn("lifecycle event dropped, queue full",
			zap.String("topic", topic),
			zap.String("owner", owner),
		)
	}
}

var _ approval.Service = (*service)(nil)
