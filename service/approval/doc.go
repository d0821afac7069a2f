// Package approval defines the human-in-the-loop decision handshake: a
// worker calls RequestDecision and blocks until an external resolver supplies
// a decision, the configured timeout elapses, or the caller's context is
// cancelled. Pending requests are grouped by owner so that a presentation
// collaborator can render each tenant's outstanding requests in isolation.
package approval
