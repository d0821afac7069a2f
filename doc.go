// Package holdpoint provides a human-in-the-loop coordination core: it lets
// an automated worker pause mid-execution and wait for a decision made by an
// external, asynchronous actor, then resume with that decision - or with a
// default decision when none arrives in time.
//
// The module is built from pluggable service layers:
//
//   - service/approval         - the decision handshake contract and helpers
//   - service/approval/memory  - in-process registry + wait-handle coordinator
//   - service/messaging        - lifecycle event fan-out
//
// Holdpoint is designed to be embedded in host applications. End-users
// typically interact via the high-level Service façade exposed by the root
// package:
//
//	srv := holdpoint.New()
//	go func() {
//	    dec, _ := srv.RequestDecision(ctx, "alice", approval.Payload{Name: "delete_file"})
//	    // blocked until resolved, timed out or cancelled
//	    _ = dec
//	}()
//	pending, _ := srv.ListPending(ctx, "alice")
//	_, _ = srv.Resolve(ctx, pending[0].ID, true, "looks safe")
//
// Transports, UIs and policy engines that decide which actions need approval
// are external collaborators; they talk to the core through RequestDecision,
// Resolve and ListPending only.
package holdpoint
