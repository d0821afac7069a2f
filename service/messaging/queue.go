// Package messaging defines the queue contracts used to fan out decision
// lifecycle events to external collaborators (notification surfaces,
// transports) without coupling them to the coordinator.
package messaging

import (
	"context"
)

// Queue represents an abstract message queue for any payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue.
	Publish(ctx context.Context, t *T) error

	// TryPublish adds a new message without blocking and reports whether the
	// queue accepted it. Producers that must not stall on a saturated queue
	// use this instead of Publish.
	TryPublish(t *T) bool

	// Consume retrieves a single message from the queue, blocking until one
	// is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue.
type Message[T any] interface {
	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack indicates failure in processing this message.
	Nack(err error) error
}
