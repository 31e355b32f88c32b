package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.Publish(EnrichedEvent, "session-1"))

	ev := receive(t, ch)
	require.Equal(t, "session-1", ev.Payload)
	require.Equal(t, EnrichedEvent, ev.Type)
	require.False(t, ev.Timestamp.IsZero())
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()
	chans := []<-chan Event[int]{broker.Subscribe(ctx), broker.Subscribe(ctx), broker.Subscribe(ctx)}
	require.Equal(t, 3, broker.SubscriberCount())

	require.Equal(t, 3, broker.Publish(LogEvent, 42))
	for _, ch := range chans {
		require.Equal(t, 42, receive(t, ch).Payload)
	}
}

func TestBroker_TypeFilter(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx := context.Background()
	enriched := broker.Subscribe(ctx, EnrichedEvent)
	lifecycle := broker.Subscribe(ctx, EnrichedEvent, ExpiredEvent)

	require.Equal(t, 0, broker.Publish(LogEvent, "entry"))
	require.Equal(t, 1, broker.Publish(ExpiredEvent, "s1"))
	require.Equal(t, 2, broker.Publish(EnrichedEvent, "s2"))

	require.Equal(t, "s2", receive(t, enriched).Payload)
	require.Equal(t, ExpiredEvent, receive(t, lifecycle).Type)
	require.Equal(t, EnrichedEvent, receive(t, lifecycle).Type)
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_NonBlocking(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(LogEvent, 1)

	done := make(chan struct{})
	go func() {
		broker.Publish(LogEvent, 2)
		broker.Publish(LogEvent, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Publish blocked")
	}

	require.Equal(t, 1, receive(t, ch).Payload)
	require.Equal(t, int64(2), broker.Dropped())
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()

	ctx := context.Background()
	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx, EnrichedEvent)
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Close()
	broker.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 0, broker.SubscriberCount())

	_, ok3 := <-broker.Subscribe(ctx)
	require.False(t, ok3, "subscribing after close yields a closed channel")
	require.Equal(t, 0, broker.Publish(EnrichedEvent, "late"))
}

func TestAwait_SkipsNonMatchingEvents(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(EnrichedEvent, "other-session")
	broker.Publish(EnrichedEvent, "wanted-session")

	ev, ok := Await(ctx, ch, func(e Event[string]) bool { return e.Payload == "wanted-session" })
	require.True(t, ok)
	require.Equal(t, EnrichedEvent, ev.Type)
	require.Equal(t, "wanted-session", ev.Payload)
}

func TestAwait_ContextDone(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ch := broker.Subscribe(ctx)
	_, ok := Await(ctx, ch, nil)
	require.False(t, ok)
}

func TestAwait_ClosedBroker(t *testing.T) {
	broker := NewBroker[string]()
	ch := broker.Subscribe(context.Background())
	broker.Close()

	_, ok := Await(context.Background(), ch, nil)
	require.False(t, ok)
}
