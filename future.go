package relay

import (
	"context"
	"sync"
)

// Future is a single-resolution view of a Subject,
// resolved by the Subject's first event.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error

	mutex sync.Mutex
	sub   *Subscription
}

// Future derives a Future from the Subject.
// It resolves with the Subject's first value or first error,
// which may already be in the history at derivation time.
// When the Subject completes without ever publishing an event,
// the Future resolves with ErrCompleted.
// Resolution releases the Future's subscription on the Subject.
func (s *Subject[T]) Future() *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.attach(s.Subscribe(Observer[T]{
		OnValue: func(v T) {
			f.resolve(v, nil)
		},
		OnError: func(err error) {
			var zero T
			f.resolve(zero, err)
		},
		OnComplete: func() {
			var zero T
			f.resolve(zero, ErrCompleted)
		},
	}))
	return f
}

func (f *Future[T]) attach(sub *Subscription) {
	f.mutex.Lock()
	f.sub = sub
	f.mutex.Unlock()
	// the replay, or a live event racing with the registration,
	// may have resolved the Future before the Subscription was attached
	if f.IsResolved() {
		sub.Cancel()
	}
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
	f.detach()
}

func (f *Future[T]) detach() {
	f.mutex.Lock()
	sub := f.sub
	f.mutex.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Done returns a channel that is closed once the Future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsResolved tells without blocking whether the Future is resolved.
func (f *Future[T]) IsResolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the Future is resolved or the context is done,
// then returns the Subject's first value or error.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
