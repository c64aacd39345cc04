package sync

import (
	"context"
	stdsync "sync"
)

// MemoryBroadcaster is an in-process hub used when no Redis is configured and
// in tests. Like the Redis driver it loops publishes back to every handler,
// the publisher's own included.
type MemoryBroadcaster struct {
	mu       stdsync.RWMutex
	handlers []Handler
	closed   bool
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{}
}

func (b *MemoryBroadcaster) Publish(_ context.Context, msg Message) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	// Synchronous fan-out keeps tests deterministic.
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(_ context.Context, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *MemoryBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
