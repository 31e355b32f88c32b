// Package pubsub provides a generic publish/subscribe event system used to
// announce log entries and finished enrichment sessions.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// LogEvent carries one formatted log entry.
	LogEvent EventType = "log"
	// EnrichedEvent announces that a background enrichment session finished.
	EnrichedEvent EventType = "enriched"
	// ExpiredEvent announces that an unread enrichment result was discarded.
	ExpiredEvent EventType = "expired"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, types ...EventType) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}

var (
	_ Subscriber[string] = (*Broker[string])(nil)
	_ Publisher[string]  = (*Broker[string])(nil)
)

// Await blocks until an event on ch satisfies match, ctx is done, or ch is closed.
// The boolean is false when no matching event was received.
func Await[T any](ctx context.Context, ch <-chan Event[T], match func(Event[T]) bool) (Event[T], bool) {
	for {
		select {
		case <-ctx.Done():
			return Event[T]{}, false
		case ev, ok := <-ch:
			if !ok {
				return Event[T]{}, false
			}
			if match == nil || match(ev) {
				return ev, true
			}
		}
	}
}
