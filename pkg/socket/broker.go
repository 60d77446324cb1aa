package socket

import (
	"context"
	"sync"
)

// Envelope carries a namespace event between server instances.
type Envelope struct {
	Origin    string  `json:"origin"`
	Namespace string  `json:"namespace"`
	Message   Message `json:"message"`
}

// Broker fans out events between server instances.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe calls fn for every envelope until ctx is done or the broker
	// is closed. It blocks.
	Subscribe(ctx context.Context, fn func(Envelope)) error
	Close() error
}

// MemoryBroker connects servers living in the same process.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[int]chan Envelope
	next   int
	closed bool
	done   chan struct{}
}

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[int]chan Envelope),
		done: make(chan struct{}),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, env Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrServerClosed
	}
	for _, ch := range b.subs {
		select {
		case ch <- env:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Slow subscriber, drop.
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, fn func(Envelope)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrServerClosed
	}
	id := b.next
	b.next++
	ch := make(chan Envelope, 256)
	b.subs[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()

	for {
		select {
		case env := <-ch:
			fn(env)
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		}
	}
}

// Close stops every subscription. Servers sharing the broker each call
// Close on Stop, so it is safe to call more than once.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}
