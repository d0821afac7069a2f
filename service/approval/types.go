package approval

import (
	"time"
)

// Payload describes what is being decided. The coordinator treats it as
// opaque data; the fields exist only so that a presentation collaborator can
// render a meaningful prompt.
type Payload struct {
	Name        string                 `json:"name"`                  // e.g. tool or action name
	Description string                 `json:"description,omitempty"` // human readable summary
	Args        map[string]interface{} `json:"args,omitempty"`        // structured arguments (best-effort)
	Meta        map[string]interface{} `json:"meta,omitempty"`        // free-form map: session, environment, etc.
}

// Request represents one outstanding decision request. All fields are
// immutable after creation.
type Request struct {
	ID        string    `json:"id"`        // globally unique, the sole external handle
	Owner     string    `json:"owner"`     // tenant/user identity scoping visibility
	Payload   Payload   `json:"payload"`   // opaque to the coordinator
	CreatedAt time.Time `json:"createdAt"` // for display ordering and staleness diagnostics
}

// Decision represents the terminal outcome delivered to a waiter.
type Decision struct {
	ID        string    `json:"id"` // same as request.ID
	Approved  bool      `json:"approved"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}

// Outcome selects the decision applied automatically when no explicit
// resolution arrives before the timeout.
type Outcome string

const (
	// OutcomeApprove auto-approves on timeout. Risky; opt-in only.
	OutcomeApprove Outcome = "approve"
	// OutcomeReject auto-rejects on timeout, the safe posture for anything
	// gating a dangerous action.
	OutcomeReject Outcome = "reject"
)

// Event envelope published on the coordinator queue for every lifecycle
// transition.
type Event struct {
	Topic   string            `json:"topic"`
	Data    interface{}       `json:"data"`              // *Request | *Decision
	Headers map[string]string `json:"headers,omitempty"` // owner, correlation-id etc.
}

// Standard event topics.
const (
	TopicRequestCreated   = "request.created"
	TopicRequestExpired   = "request.expired"
	TopicRequestCancelled = "request.cancelled"
	TopicDecisionCreated  = "decision.created"
)

// HeaderOwner carries the request owner on published events.
const HeaderOwner = "owner"
