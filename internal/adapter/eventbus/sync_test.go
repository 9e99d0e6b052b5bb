package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/logger"
)

func testEntry(id string) domain.QueueEntry {
	return domain.QueueEntry{TrackID: id, Title: "Track " + id, Artist: "Artist"}
}

func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus()
	require.NotNil(t, bus)
	assert.Equal(t, 0, bus.SubscriberCount())
	assert.False(t, bus.closed)
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received []domain.Event
	subID := bus.Subscribe(domain.EventTrackStarted, func(event domain.Event) {
		received = append(received, event)
	})
	require.NotEmpty(t, subID)

	bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))

	require.Len(t, received, 1)
	started, ok := received[0].(domain.TrackStartedEvent)
	require.True(t, ok)
	assert.Equal(t, "a", started.Entry.TrackID)
	assert.False(t, started.Timestamp().IsZero())
}

func TestDeliveryOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []string
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventQueueChanged, func(domain.Event) { order = append(order, "first") })
	bus.Subscribe(domain.EventQueueChanged, func(domain.Event) { order = append(order, "second") })

	bus.Publish(domain.NewQueueChangedEvent(domain.QueueSnapshot{}))

	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var calls int32
	subID := bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		atomic.AddInt32(&calls, 1)
	})

	bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
	bus.Unsubscribe(subID)
	bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUnsubscribePreservesOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []int
	ids := make([]domain.SubscriptionID, 4)
	for i := range ids {
		ids[i] = bus.Subscribe(domain.EventNotice, func(domain.Event) { order = append(order, i) })
	}
	bus.Unsubscribe(ids[1])

	bus.Publish(domain.NewNoticeEvent("hello", nil))

	assert.Equal(t, []int{0, 2, 3}, order)
}

func TestUnsubscribeInvalidID(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	assert.NotPanics(t, func() {
		bus.Unsubscribe("invalid-id")
		bus.Unsubscribe("")
	})
}

func TestSubscribeAll(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received []domain.EventType
	var mu sync.Mutex
	bus.SubscribeAll(func(event domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.Type())
	})

	bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
	bus.Publish(domain.NewTrackPausedEvent(testEntry("a"), 10*time.Second))
	bus.Publish(domain.NewShuffleToggledEvent(true))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{
		domain.EventTrackStarted,
		domain.EventTrackPaused,
		domain.EventShuffleToggled,
	}, received)
}

func TestSubscribeFiltered(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var seen []string
	bus.SubscribeFiltered(domain.EventTrackLoaded, func(event domain.Event) bool {
		return event.(domain.TrackLoadedEvent).Autoplay
	}, func(event domain.Event) {
		seen = append(seen, event.(domain.TrackLoadedEvent).Entry.TrackID)
	})

	bus.Publish(domain.NewTrackLoadedEvent(testEntry("cued"), time.Minute, false))
	bus.Publish(domain.NewTrackLoadedEvent(testEntry("played"), time.Minute, true))

	assert.Equal(t, []string{"played"}, seen)
}

func TestHasSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	assert.False(t, bus.HasSubscribers(domain.EventTrackStarted))

	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})

	assert.True(t, bus.HasSubscribers(domain.EventTrackStarted))
	assert.False(t, bus.HasSubscribers(domain.EventTrackPaused))
}

func TestHasSubscribersWithWildcard(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	bus.SubscribeAll(func(domain.Event) {})

	assert.True(t, bus.HasSubscribers(domain.EventTrackStarted))
	assert.True(t, bus.HasSubscribers(domain.EventQueueChanged))
}

func TestHandlerPanic(t *testing.T) {
	bus := NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	defer bus.Close()

	var calls int32
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) { panic("test panic") })
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) { atomic.AddInt32(&calls, 1) })

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHandlerMaySubscribeDuringDelivery(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var late int32
	bus.Subscribe(domain.EventNotice, func(domain.Event) {
		bus.Subscribe(domain.EventNotice, func(domain.Event) { atomic.AddInt32(&late, 1) })
	})

	bus.Publish(domain.NewNoticeEvent("one", nil))
	assert.Equal(t, int32(0), atomic.LoadInt32(&late))

	bus.Publish(domain.NewNoticeEvent("two", nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&late))
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus()

	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})
	bus.SubscribeAll(func(domain.Event) {})
	require.Equal(t, 2, bus.SubscriberCount())

	require.NoError(t, bus.Close())
	assert.Equal(t, 0, bus.SubscriberCount())

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
	})
	assert.ErrorIs(t, bus.Close(), ErrBusClosed)
	assert.Panics(t, func() {
		bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})
	})
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var count int32
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		atomic.AddInt32(&count, 1)
	})

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range perGoroutine {
				bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(goroutines*perGoroutine), atomic.LoadInt32(&count))
}

func TestConcurrentSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range perGoroutine {
				bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, bus.SubscriberCount())
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var count int32
	handler := func(domain.Event) { atomic.AddInt32(&count, 1) }
	bus.Subscribe(domain.EventTrackStarted, handler)

	var wg sync.WaitGroup
	wg.Add(10)
	for range 5 {
		go func() {
			defer wg.Done()
			for range 50 {
				bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
				time.Sleep(time.Microsecond)
			}
		}()
	}
	for range 5 {
		go func() {
			defer wg.Done()
			for range 10 {
				id := bus.Subscribe(domain.EventTrackStarted, handler)
				time.Sleep(time.Microsecond)
				bus.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(250))
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestNilEvent(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var calls int32
	bus.SubscribeAll(func(domain.Event) { atomic.AddInt32(&calls, 1) })

	bus.Publish(nil)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestNilHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	assert.Panics(t, func() { bus.Subscribe(domain.EventTrackStarted, nil) })
	assert.Panics(t, func() { bus.SubscribeAll(nil) })
}

func TestDifferentEventTypes(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var started, paused int32
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) { atomic.AddInt32(&started, 1) })
	bus.Subscribe(domain.EventTrackPaused, func(domain.Event) { atomic.AddInt32(&paused, 1) })

	bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
	bus.Publish(domain.NewTrackStartedEvent(testEntry("a"), 0))
	bus.Publish(domain.NewTrackPausedEvent(testEntry("a"), time.Second))

	assert.Equal(t, int32(2), atomic.LoadInt32(&started))
	assert.Equal(t, int32(1), atomic.LoadInt32(&paused))
}
