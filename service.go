package holdpoint

import (
	"context"

	"go.uber.org/zap"

	approval "github.com/holdpoint/holdpoint/service/approval"
	amemory "github.com/holdpoint/holdpoint/service/approval/memory"
	"github.com/holdpoint/holdpoint/service/messaging"
	qmemory "github.com/holdpoint/holdpoint/service/messaging/memory"
)

// Service is the high-level façade assembling the coordinator, the event
// queue and configuration defaults. It is safe for concurrent use.
type Service struct {
	config      *Config
	coordinator approval.Service
	events      messaging.Queue[approval.Event]
	logger      *zap.Logger
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.coordinator != nil {
		// A supplied coordinator brings its own queue; building one here
		// would leave it dangling.
		return
	}
	if s.events == nil {
		queueConfig := qmemory.DefaultConfig()
		queueConfig.QueueBuffer = s.config.Events.QueueBuffer
		queueConfig.MaxRetries = s.config.Events.MaxRetries
		s.events = qmemory.NewQueue[approval.Event](queueConfig)
	}
	s.coordinator = amemory.New(
		amemory.WithLogger(s.logger),
		amemory.WithQueue(s.events),
	)
}

// New creates a Service with the supplied options applied on top of
// DefaultConfig.
func New(options ...Option) *Service {
	ret := &Service{}
	ret.init(options)
	return ret
}

// RequestDecision blocks the calling goroutine until owner's request is
// resolved, applying the configured default timeout and fallback outcome.
// Use Approval() for per-call control over either.
func (s *Service) RequestDecision(ctx context.Context, owner string, payload approval.Payload) (*approval.Decision, error) {
	return s.coordinator.RequestDecision(ctx, owner, payload, s.config.Approval.Timeout(), s.config.Approval.Fallback())
}

// Resolve delivers a decision for the given pending request id.
func (s *Service) Resolve(ctx context.Context, id string, approved bool, reason string) (*approval.Decision, error) {
	return s.coordinator.Resolve(ctx, id, approved, reason)
}

// ListPending returns an insertion-ordered snapshot of owner's outstanding
// requests.
func (s *Service) ListPending(ctx context.Context, owner string) ([]*approval.Request, error) {
	return s.coordinator.ListPending(ctx, owner)
}

// Events exposes the lifecycle event stream.
func (s *Service) Events() messaging.Queue[approval.Event] {
	return s.coordinator.Queue()
}

// Approval returns the underlying coordinator for callers that need the full
// interface (per-call timeout, fallback outcome).
func (s *Service) Approval() approval.Service {
	return s.coordinator
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}
