package memory

import (
	"go.uber.org/zap"

	approval "github.com/holdpoint/holdpoint/service/approval"
	"github.com/holdpoint/holdpoint/service/messaging"
)

type Option func(*service)

// WithLogger attaches a structured logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithQueue replaces the default in-memory event queue, e.g. to share one
// queue across services or to substitute a durable implementation.
func WithQueue(q messaging.Queue[approval.Event]) Option {
	return func(s *service) { s.events = q }
}
