package broadcast

import (
	"context"
	"sync/atomic"
)

// Subscription is one independent receive cursor on a Topic.
type Subscription[T any] struct {
	topic  *Topic[T]
	id     uint64
	ch     chan T
	missed atomic.Uint64

	// guarded by topic.mu
	closed bool
}

// C exposes the buffered values for use in a select. The channel is closed
// when the subscription or its topic closes.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// TakeMissed returns the number of values dropped since the last call and
// resets the counter.
func (s *Subscription[T]) TakeMissed() uint64 {
	return s.missed.Swap(0)
}

// Recv waits for the next value. If values were dropped since the previous
// call it first returns a *LaggedError, and the following call resumes with
// the oldest value still buffered.
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if n := s.TakeMissed(); n > 0 {
		return zero, &LaggedError{Missed: n}
	}

	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close detaches the subscription from its topic. It is safe to call more
// than once and has no effect on other subscriptions.
func (s *Subscription[T]) Close() {
	s.topic.remove(s)
}
