package relay

import "go.llib.dev/frameless/pkg/errorkit"

// Map derives a new Subject whose values are the source's values passed through transform.
//
// A failed transformation becomes an error event on the derived Subject,
// isolated to that one event; later deliveries continue unaffected.
// Errors and completion of the source are forwarded unchanged.
//
// The derived Subject keeps its own history of already transformed events,
// so subscribers attaching to it later still receive the complete transformed backlog.
func Map[T, O any](src *Subject[T], transform func(T) (O, error)) *Subject[O] {
	dst := &Subject[O]{Logger: src.logger()}
	src.Subscribe(Observer[T]{
		OnValue: func(v T) {
			o, err := applyTransform(transform, v)
			if err != nil {
				dst.Fail(err)
				return
			}
			dst.Next(o)
		},
		OnError:    dst.Fail,
		OnComplete: dst.Complete,
	})
	return dst
}

// applyTransform guards the user supplied transform function, turning a panic into an error.
func applyTransform[T, O any](transform func(T) (O, error), v T) (_ O, rErr error) {
	defer errorkit.Recover(&rErr)
	return transform(v)
}

// Filter derives a new Subject that receives only the values matching the predicate.
// Errors and completion are forwarded unchanged,
// and the derived Subject keeps its own independent history.
func (s *Subject[T]) Filter(predicate func(T) bool) *Subject[T] {
	dst := &Subject[T]{Logger: s.logger()}
	s.Subscribe(Observer[T]{
		OnValue: func(v T) {
			if predicate(v) {
				dst.Next(v)
			}
		},
		OnError:    dst.Fail,
		OnComplete: dst.Complete,
	})
	return dst
}
