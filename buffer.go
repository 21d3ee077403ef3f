package relay

import (
	"context"
	"sync"

	"go.llib.dev/frameless/pkg/errorkit"
)

// ErrDetached is returned by Buffer.Pop once a detached Buffer is drained.
const ErrDetached errorkit.Error = "relay: buffer is detached from its subject"

// Buffer collects the values a Subject delivers,
// so a consumer operating at a different cadence can poll them later.
//
// A Buffer with a positive capacity is bounded
// and drops its oldest pending value to make room when full.
type Buffer[T any] struct {
	capacity     int
	subscription *Subscription

	mutex  sync.Mutex
	items  []T
	closed bool
	reason error

	onClose sync.Once
	done    chan struct{}
	signal  chan struct{}
}

// Buffer attaches a new Buffer to the Subject.
// The Buffer starts out with the values already in the Subject's history.
// A capacity of zero or less means the Buffer is unbounded.
func (s *Subject[T]) Buffer(capacity int) *Buffer[T] {
	b := &Buffer[T]{
		capacity: capacity,
		done:     make(chan struct{}),
		signal:   make(chan struct{}, 1),
	}
	b.subscription = s.Subscribe(Observer[T]{
		OnValue:    b.push,
		OnComplete: func() { b.close(ErrCompleted) },
	})
	return b
}

func (b *Buffer[T]) push(v T) {
	b.mutex.Lock()
	if 0 < b.capacity && b.capacity <= len(b.items) {
		b.items = b.items[1:]
	}
	b.items = append(b.items, v)
	b.mutex.Unlock()
	b.wake()
}

func (b *Buffer[T]) wake() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// close marks the Buffer terminal; the first close wins the reported reason.
func (b *Buffer[T]) close(reason error) {
	b.mutex.Lock()
	if !b.closed {
		b.closed = true
		b.reason = reason
	}
	b.mutex.Unlock()
	b.onClose.Do(func() { close(b.done) })
}

// TryPop takes the oldest pending value without blocking.
func (b *Buffer[T]) TryPop() (T, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	v := b.items[0]
	b.items = b.items[1:]
	return v, true
}

// Pop takes the oldest pending value, blocking until one is available.
// Once the pending values are drained,
// Pop returns ErrCompleted when the Subject completed,
// or ErrDetached when the Buffer was detached with Detach.
func (b *Buffer[T]) Pop(ctx context.Context) (T, error) {
	for {
		b.mutex.Lock()
		if 0 < len(b.items) {
			v := b.items[0]
			b.items = b.items[1:]
			more := 0 < len(b.items)
			b.mutex.Unlock()
			if more { // other waiters may still have values to take
				b.wake()
			}
			return v, nil
		}
		closed, reason := b.closed, b.reason
		b.mutex.Unlock()
		var zero T
		if closed {
			return zero, reason
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-b.signal:
		case <-b.done:
		}
	}
}

// Len returns the number of pending values waiting to be polled.
func (b *Buffer[T]) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.items)
}

// Detach cancels the Buffer's subscription on its Subject.
// Already buffered values remain pollable;
// once they are drained, Pop returns ErrDetached,
// or ErrCompleted if the Subject had already completed.
func (b *Buffer[T]) Detach() {
	b.subscription.Cancel()
	b.close(ErrDetached)
}
