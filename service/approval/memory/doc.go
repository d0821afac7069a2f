// Package memory implements the in-process decision coordinator: an
// owner-partitioned registry of pending requests plus a single-resolution
// wait handle per request. It is the reference implementation of
// approval.Service for single-process deployments; durable or distributed
// coordinators can replace it behind the same interface.
package memory
