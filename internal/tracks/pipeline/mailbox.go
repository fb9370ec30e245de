package pipeline

// Latest is a one-slot mailbox. Put never blocks: it replaces any value the
// consumer has not taken yet.
type Latest[T any] struct {
	ch chan T
}

// NewLatest returns an empty mailbox.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Put stores v, discarding an unread older value.
func (l *Latest[T]) Put(v T) {
	for {
		select {
		case l.ch <- v:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// C delivers each stored value at most once.
func (l *Latest[T]) C() <-chan T { return l.ch }

// TryTake returns the pending value, if any.
func (l *Latest[T]) TryTake() (T, bool) {
	select {
	case v := <-l.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
