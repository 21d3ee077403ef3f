// Package relay provides an in-process, thread-safe publish/subscribe primitive.
//
// A Subject delivers values and errors to dynamically attached subscribers,
// replays its full history to late subscribers, supports completion,
// derived subjects (Map, Filter), and retry/background execution helpers.
package relay

import (
	"context"
	"sync"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/frameless/pkg/zerokit"
)

// ErrCompleted is returned by blocking consumers of a Subject
// when the Subject completed without further events.
const ErrCompleted errorkit.Error = "relay: subject is completed"

// Operation is a fallible unit of work whose outcome can be published on a Subject.
type Operation[T any] func() (T, error)

// call runs the operation, turning a panic into a returned error.
func (op Operation[T]) call() (_ T, rErr error) {
	defer errorkit.Recover(&rErr)
	return op()
}

// Observer is the callback set a subscriber registers on a Subject.
// Every callback is optional; a nil callback simply ignores that channel.
type Observer[T any] struct {
	// OnValue is called with each published value.
	OnValue func(T)
	// OnError is called with each published error.
	OnError func(error)
	// OnComplete is called once, when the Subject completes.
	OnComplete func()
}

func (o Observer[T]) receive(e Event[T]) {
	switch e.Kind {
	case KindValue:
		if o.OnValue != nil {
			o.OnValue(e.Value)
		}
	case KindError:
		if o.OnError != nil {
			o.OnError(e.Err)
		}
	}
}

// Subject is an in-process publish/subscribe event stream.
//
// A Subject keeps an append-only history of everything published on it,
// and a late subscriber receives the full history in original order
// before any live event. The zero value is ready to use.
//
// Subscriber callbacks run synchronously on the publishing goroutine;
// a slow callback stalls that publish call.
// Callbacks may cancel subscriptions, including their own,
// but publishing or subscribing on the Subject from within one of its own callbacks
// is not supported.
// Callbacks are free to publish on other Subjects,
// which is how the derived subjects of Map and Filter operate.
type Subject[T any] struct {
	// Logger reports errors that were published while no subscriber had an OnError callback.
	//
	// Default: the package fallback logger.
	Logger *logging.Logger

	// mutex serializes publishing, completion and subscribing,
	// which keeps the history ordering and the replay exactly-once guarantee.
	mutex sync.Mutex
	// registry guards the subscribers on its own,
	// so cancelling is safe even from within a delivery callback.
	registry sync.Mutex

	history     []Event[T]
	subscribers []*subscriber[T]
	completed   bool
}

// subscriber wraps an Observer to give registry entries a stable identity.
type subscriber[T any] struct{ observer Observer[T] }

// Subscription is the cancellation handle returned by Subject.Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel removes the subscriber from its Subject.
// Cancel is idempotent, it takes effect for future deliveries only,
// and it never affects the Subject's history.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Next publishes a value on the Subject.
// The value is appended to the history,
// then delivered to the current subscribers in registration order.
// Next is a no-op after the Subject completed.
func (s *Subject[T]) Next(v T) {
	s.publish(ValueEvent(v))
}

// Fail publishes an error on the Subject's error channel.
// Like values, errors become part of the history and are replayed to late subscribers.
// If no current subscriber has an OnError callback,
// the error is also reported on the Subject's Logger as an unhandled error.
// Fail is a no-op after the Subject completed.
func (s *Subject[T]) Fail(err error) {
	s.publish(ErrorEvent[T](err))
}

func (s *Subject[T]) publish(e Event[T]) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.completed {
		return
	}
	s.history = append(s.history, e)
	var handled bool
	for _, sub := range s.snapshot() {
		if sub.observer.OnError != nil {
			handled = true
		}
		sub.observer.receive(e)
	}
	if e.Kind == KindError && !handled {
		s.logger().Warn(context.Background(), "relay: unhandled error", logging.ErrField(e.Err))
	}
}

// Try runs the operation exactly once and publishes its outcome,
// the returned value with Next or the returned error with Fail.
// The operation's failure never escapes to the caller; even a panic becomes an error event.
func (s *Subject[T]) Try(op Operation[T]) {
	v, err := op.call()
	if err != nil {
		s.Fail(err)
		return
	}
	s.Next(v)
}

// Complete transitions the Subject into its terminal state
// and notifies the current subscribers' OnComplete callbacks exactly once.
// After completion, Next and Fail have no observable effect.
// Completing an already completed Subject is a silent no-op.
func (s *Subject[T]) Complete() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.completed {
		return
	}
	s.completed = true
	for _, sub := range s.snapshot() {
		if sub.observer.OnComplete != nil {
			sub.observer.OnComplete()
		}
	}
}

// IsCompleted tells if the Subject reached its terminal state.
func (s *Subject[T]) IsCompleted() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.completed
}

// Subscribe registers the Observer on the Subject.
//
// The full history is synchronously replayed to the Observer in original publish order,
// and from then on the Observer receives every live event until its Subscription is cancelled.
// Replay and registration happen atomically:
// an event published concurrently with Subscribe arrives exactly once,
// either as part of the replay or as a live delivery.
//
// Subscribing to a completed Subject still replays the history,
// followed by an immediate OnComplete notification.
func (s *Subject[T]) Subscribe(o Observer[T]) *Subscription {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, e := range s.history {
		o.receive(e)
	}
	if s.completed {
		if o.OnComplete != nil {
			o.OnComplete()
		}
		return &Subscription{cancel: func() {}}
	}
	sub := &subscriber[T]{observer: o}
	s.registry.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.registry.Unlock()
	return &Subscription{cancel: func() { s.remove(sub) }}
}

// snapshot copies the current registry for delivery.
// A subscriber cancelled during the delivery of an event may still receive that event;
// cancellation takes effect for future deliveries.
func (s *Subject[T]) snapshot() []*subscriber[T] {
	s.registry.Lock()
	defer s.registry.Unlock()
	return append([]*subscriber[T]{}, s.subscribers...)
}

func (s *Subject[T]) remove(target *subscriber[T]) {
	s.registry.Lock()
	defer s.registry.Unlock()
	for i, sub := range s.subscribers {
		if sub == target {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// History returns a copy of the Subject's event history,
// in the order the events were published.
func (s *Subject[T]) History() []Event[T] {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]Event[T]{}, s.history...)
}

func (s *Subject[T]) logger() *logging.Logger {
	return zerokit.Init(&s.Logger, func() *logging.Logger { return &fallbackLogger })
}

var fallbackLogger logging.Logger
