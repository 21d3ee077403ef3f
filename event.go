package relay

// EventKind tells whether an Event carries a value or an error.
type EventKind int

const (
	KindValue EventKind = iota + 1
	KindError
)

func (k EventKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Event is a single entry in a Subject's history.
// It is an explicit tagged variant: Kind tells which of the two channels
// the event belongs to, and only the matching field is set.
type Event[T any] struct {
	Kind EventKind
	// Value is set when Kind is KindValue.
	Value T
	// Err is set when Kind is KindError.
	Err error
}

// ValueEvent makes an Event that carries a value.
func ValueEvent[T any](v T) Event[T] {
	return Event[T]{Kind: KindValue, Value: v}
}

// ErrorEvent makes an Event that carries an error.
func ErrorEvent[T any](err error) Event[T] {
	return Event[T]{Kind: KindError, Err: err}
}
