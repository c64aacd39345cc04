package sync

import "context"

// Handler is invoked for every message received from peers, including the
// process's own publishes when the driver loops them back. Consumers filter
// on SenderID.
type Handler func(msg Message)

// Broadcaster is the transport for change notifications. Two drivers exist:
// Redis pub/sub for multi-process deployments and an in-process hub for
// single-process runs and tests.
type Broadcaster interface {
	Publish(ctx context.Context, msg Message) error

	// Subscribe registers a handler and starts delivery. Delivery order
	// between publishers is not guaranteed; handlers must be idempotent.
	Subscribe(ctx context.Context, handler Handler) error

	Close() error
}
