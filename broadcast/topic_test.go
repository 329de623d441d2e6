package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvWithin(t *testing.T, s *Subscription[int]) (int, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.Recv(ctx)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	topic := NewTopic[int]("t-empty", 4)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			topic.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
	assert.Equal(t, 0, topic.Subscribers())
}

func TestFanOutInOrder(t *testing.T) {
	topic := NewTopic[int]("t-fanout", 8)
	a := topic.Subscribe()
	b := topic.Subscribe()
	defer a.Close()
	defer b.Close()

	for i := 1; i <= 3; i++ {
		topic.Publish(i)
	}

	for _, s := range []*Subscription[int]{a, b} {
		for want := 1; want <= 3; want++ {
			got, err := recvWithin(t, s)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestNoReplayForLateSubscriber(t *testing.T) {
	topic := NewTopic[int]("t-late", 8)
	early := topic.Subscribe()
	defer early.Close()

	topic.Publish(1)
	topic.Publish(2)

	late := topic.Subscribe()
	defer late.Close()
	topic.Publish(3)

	got, err := recvWithin(t, late)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	select {
	case v := <-late.C():
		t.Fatalf("late subscriber received extra value %d", v)
	default:
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	topic := NewTopic[int]("t-overflow", 4)
	s := topic.Subscribe()
	defer s.Close()

	for i := 1; i <= 10; i++ {
		topic.Publish(i)
	}

	_, err := recvWithin(t, s)
	var lagged *LaggedError
	require.True(t, errors.As(err, &lagged), "expected LaggedError, got %v", err)
	assert.EqualValues(t, 6, lagged.Missed)

	for want := 7; want <= 10; want++ {
		got, err := recvWithin(t, s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// cursor keeps working after the overflow
	topic.Publish(11)
	got, err := recvWithin(t, s)
	require.NoError(t, err)
	assert.Equal(t, 11, got)
}

func TestSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	topic := NewTopic[int]("t-slow", 2)
	slow := topic.Subscribe()
	fast := topic.Subscribe()
	defer slow.Close()
	defer fast.Close()

	for i := 1; i <= 5; i++ {
		topic.Publish(i)
		got, err := recvWithin(t, fast)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	assert.Zero(t, fast.TakeMissed())
	assert.EqualValues(t, 3, slow.TakeMissed())
}

func TestSubscriptionClose(t *testing.T) {
	topic := NewTopic[int]("t-close", 4)
	a := topic.Subscribe()
	b := topic.Subscribe()
	require.Equal(t, 2, topic.Subscribers())

	a.Close()
	a.Close()
	assert.Equal(t, 1, topic.Subscribers())

	_, err := recvWithin(t, a)
	assert.ErrorIs(t, err, ErrClosed)

	topic.Publish(7)
	got, err := recvWithin(t, b)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	b.Close()
}

func TestTopicClose(t *testing.T) {
	topic := NewTopic[int]("t-topic-close", 4)
	s := topic.Subscribe()

	topic.Close()
	topic.Close()
	topic.Publish(1)

	_, err := recvWithin(t, s)
	assert.ErrorIs(t, err, ErrClosed)
	s.Close()

	after := topic.Subscribe()
	_, err = recvWithin(t, after)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRecvHonoursContext(t *testing.T) {
	topic := NewTopic[int]("t-ctx", 4)
	s := topic.Subscribe()
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentPublishers(t *testing.T) {
	const publishers, each = 8, 50
	topic := NewTopic[int]("t-concurrent", publishers*each)
	s := topic.Subscribe()
	defer s.Close()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				topic.Publish(p*each + i)
			}
		}(p)
	}
	wg.Wait()

	// per-publisher order is preserved
	last := make(map[int]int)
	for n := 0; n < publishers*each; n++ {
		v, err := recvWithin(t, s)
		require.NoError(t, err)
		p := v / each
		if prev, ok := last[p]; ok {
			assert.Greater(t, v, prev)
		}
		last[p] = v
	}
	assert.Zero(t, s.TakeMissed())
}

func TestZeroCapacityUsesDefault(t *testing.T) {
	topic := NewTopic[string]("t-default", 0)
	s := topic.Subscribe()
	defer s.Close()
	assert.Equal(t, DefaultCapacity, cap(s.ch))
	assert.Equal(t, "t-default", topic.Name())
}
