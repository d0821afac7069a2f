package holdpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	approval "github.com/holdpoint/holdpoint/service/approval"
)

// Config is a serialisable representation of the coordinator configuration.
// It can be populated from JSON or YAML. The zero-value is not useful on its
// own - start from DefaultConfig and override.
type Config struct {
	Approval ApprovalConfig `json:"approval" yaml:"approval"`
	Events   EventsConfig   `json:"events" yaml:"events"`
}

// ApprovalConfig holds the defaults applied by the façade's RequestDecision.
type ApprovalConfig struct {
	// DefaultTimeoutSec bounds every handshake started through the façade.
	// Whole-second granularity is sufficient for human approval latency.
	DefaultTimeoutSec int `json:"defaultTimeoutSec" yaml:"defaultTimeoutSec"`

	// ApproveOnTimeout flips the fallback outcome from reject to approve.
	// Reject is the safe posture for anything gating a dangerous action.
	ApproveOnTimeout bool `json:"approveOnTimeout" yaml:"approveOnTimeout"`
}

// EventsConfig controls the in-memory lifecycle event queue.
type EventsConfig struct {
	QueueBuffer int `json:"queueBuffer" yaml:"queueBuffer"`
	MaxRetries  int `json:"maxRetries" yaml:"maxRetries"`
}

// DefaultConfig returns a Config populated with the library defaults: a 30s
// decision timeout, reject-on-timeout and a 100 message event buffer.
func DefaultConfig() *Config {
	return &Config{
		Approval: ApprovalConfig{
			DefaultTimeoutSec: 30,
			ApproveOnTimeout:  false,
		},
		Events: EventsConfig{
			QueueBuffer: 100,
			MaxRetries:  3,
		},
	}
}

// Timeout returns the configured default timeout as a duration.
func (c *ApprovalConfig) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeoutSec) * time.Second
}

// Fallback returns the configured default outcome.
func (c *ApprovalConfig) Fallback() approval.Outcome {
	if c.ApproveOnTimeout {
		return approval.OutcomeApprove
	}
	return approval.OutcomeReject
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Approval.DefaultTimeoutSec <= 0 {
		return fmt.Errorf("approval.defaultTimeoutSec must be > 0")
	}
	if c.Events.QueueBuffer < 0 {
		return fmt.Errorf("events.queueBuffer must be >= 0")
	}
	if c.Events.MaxRetries < 0 {
		return fmt.Errorf("events.maxRetries must be >= 0")
	}
	return nil
}

// LoadConfig reads a YAML config from the supplied URL (file path, file://,
// mem://, s3://, … - any scheme the afs service understands) and validates
// it. Unset fields inherit the library defaults.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return cfg, nil
}
