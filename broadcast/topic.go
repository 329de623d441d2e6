// Package broadcast is a small in-process publish/subscribe hub.
//
// A Topic fans every published value out to all of its current
// subscriptions. Each subscription owns a bounded buffer; when a reader
// falls behind, the oldest unread value is dropped to make room so the
// publisher never waits on a consumer.
package broadcast

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultCapacity is the number of pending values a subscription holds
// before it starts dropping the oldest ones.
const DefaultCapacity = 16

// ErrClosed is returned by Recv once the subscription or its topic is closed.
var ErrClosed = errors.New("broadcast: closed")

// LaggedError reports that a subscription overflowed and lost Missed values.
// It is informational: the next Recv continues with the oldest value still
// buffered.
type LaggedError struct {
	Missed uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("broadcast: subscriber lagged, %d messages dropped", e.Missed)
}

// Topic is a single named channel of values of type T.
type Topic[T any] struct {
	name     string
	capacity int

	mu     sync.Mutex
	subs   map[uint64]*Subscription[T]
	nextID uint64
	closed bool
}

// NewTopic creates a topic whose subscriptions buffer capacity values.
// A capacity below one falls back to DefaultCapacity.
func NewTopic[T any](name string, capacity int) *Topic[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Topic[T]{
		name:     name,
		capacity: capacity,
		subs:     make(map[uint64]*Subscription[T]),
	}
}

// Name returns the topic name used for metrics and logs.
func (t *Topic[T]) Name() string {
	return t.name
}

// Publish delivers value to every current subscription and returns
// immediately. With no subscribers the value is discarded.
// Publishes are serialized, so each subscription sees them in call order.
func (t *Topic[T]) Publish(value T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	published.WithLabelValues(t.name).Inc()

	for _, s := range t.subs {
		select {
		case s.ch <- value:
			continue
		default:
		}

		// Buffer full: evict the oldest value. Only this goroutine sends,
		// and it holds t.mu, so after one receive there is room.
		select {
		case <-s.ch:
			s.missed.Add(1)
			dropped.WithLabelValues(t.name).Inc()
		default:
		}
		select {
		case s.ch <- value:
		default:
			s.missed.Add(1)
			dropped.WithLabelValues(t.name).Inc()
		}
	}
}

// Subscribe returns a new subscription that observes only values published
// after this call. Subscribing to a closed topic yields a closed subscription.
func (t *Topic[T]) Subscribe() *Subscription[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &Subscription[T]{
		topic: t,
		ch:    make(chan T, t.capacity),
	}
	if t.closed {
		s.closed = true
		close(s.ch)
		return s
	}

	s.id = t.nextID
	t.nextID++
	t.subs[s.id] = s
	subscribers.WithLabelValues(t.name).Inc()
	return s
}

// Subscribers returns the number of open subscriptions.
func (t *Topic[T]) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Close closes every subscription and makes later publishes no-ops.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for id, s := range t.subs {
		delete(t.subs, id)
		s.closed = true
		close(s.ch)
		subscribers.WithLabelValues(t.name).Dec()
	}
}

func (t *Topic[T]) remove(s *Subscription[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.closed {
		return
	}
	delete(t.subs, s.id)
	s.closed = true
	close(s.ch)
	subscribers.WithLabelValues(t.name).Dec()
}
