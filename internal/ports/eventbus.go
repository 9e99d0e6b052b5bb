// Package ports define the EventBus interface for event-driven communication.
package ports

import (
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

// EventBus carries engine, queue and library events to observers.
//
// The engine and the coordinator publish from owner-loop tasks, so their events
// are delivered on the loop and handlers see queue and session state exactly as
// it was when the event was raised. A handler must never wait on the loop.
//
// Thread-safety: Implementations must be thread-safe.
//
//	subID := bus.Subscribe(domain.EventQueueChanged, func(event domain.Event) {
//	    render(event.(domain.QueueChangedEvent).Snapshot)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers event to every matching subscriber, in subscription order.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeFiltered registers handler for the events of eventType that filter accepts.
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeAll registers handler for every event.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// HasSubscribers reports whether publishing eventType would reach anyone,
	// counting SubscribeAll handlers. Publishers use it to skip building snapshots.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions. Later publishes are ignored.
	Close() error
}

// EventFilter reports whether event should reach a filtered subscriber.
type EventFilter func(event domain.Event) bool
