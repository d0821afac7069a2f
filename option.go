package holdpoint

import (
	"go.uber.org/zap"

	approval "github.com/holdpoint/holdpoint/service/approval"
	"github.com/holdpoint/holdpoint/service/messaging"
	"github.com/holdpoint/holdpoint/tracing"
)

// Option customises Service assembly.
type Option func(s *Service)

// WithConfig replaces the default configuration. The config must have been
// validated by the caller (LoadConfig does this).
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithApprovalService substitutes the coordinator implementation, e.g. a
// durable one for multi-process deployments.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.coordinator = svc }
}

// WithQueue sets the lifecycle event queue shared with the coordinator.
func WithQueue(queue messaging.Queue[approval.Event]) Option {
	return func(s *Service) { s.events = queue }
}

// WithLogger attaches a structured logger used by the coordinator.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTracing configures OpenTelemetry tracing for the service. If
// outputFile is empty the stdout exporter is used; otherwise traces are
// written to the supplied file path. Safe to call multiple times; the first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}
