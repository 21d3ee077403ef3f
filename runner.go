package relay

// Of returns a Subject with the given values already published on it.
func Of[T any](values ...T) *Subject[T] {
	var s Subject[T]
	for _, v := range values {
		s.Next(v)
	}
	return &s
}

// Fail returns a Subject with the given error already published on it.
func Fail[T any](err error) *Subject[T] {
	var s Subject[T]
	s.Fail(err)
	return &s
}

// Run executes the operation synchronously
// and returns a Subject that already holds its outcome.
func Run[T any](op Operation[T]) *Subject[T] {
	var s Subject[T]
	s.Try(op)
	return &s
}

// RunAsync returns a new Subject immediately
// and executes the operation on its own goroutine,
// publishing the outcome on the Subject whenever it finishes.
// Thanks to history replay, subscribing both before and after the outcome works the same.
func RunAsync[T any](op Operation[T]) *Subject[T] {
	var s Subject[T]
	go s.Try(op)
	return &s
}
