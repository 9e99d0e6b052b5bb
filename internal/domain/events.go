// Package domain defines events for the event-driven architecture.
// Events decouple the engine and coordinator from observers such as the UI and the now-playing surface.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoaded    EventType = "track.loaded"
	EventTrackStarted   EventType = "track.started"
	EventTrackPaused    EventType = "track.paused"
	EventTrackStopped   EventType = "track.stopped"
	EventTrackSeeked    EventType = "track.seeked"
	EventTrackCompleted EventType = "track.completed"
	EventTrackError     EventType = "track.error"
	EventEngineState    EventType = "engine.state"

	// Queue events
	EventQueueChanged   EventType = "queue.changed"
	EventShuffleToggled EventType = "shuffle.toggled"

	// Transient UI notices
	EventNotice EventType = "notice"

	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when media for an entry has been resolved and handed to the output.
type TrackLoadedEvent struct {
	baseEvent
	Entry    QueueEntry
	Duration time.Duration
	Autoplay bool
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(entry QueueEntry, duration time.Duration, autoplay bool) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Entry:     entry,
		Duration:  duration,
		Autoplay:  autoplay,
	}
}

// TrackStartedEvent is published when output starts or resumes.
type TrackStartedEvent struct {
	baseEvent
	Entry    QueueEntry
	Position time.Duration
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(entry QueueEntry, position time.Duration) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Entry:     entry,
		Position:  position,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Entry    QueueEntry
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(entry QueueEntry, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Entry:     entry,
		Position:  position,
	}
}

// TrackStoppedEvent is published when playback is stopped and the engine is idle.
type TrackStoppedEvent struct {
	baseEvent
	Entry *QueueEntry // nil when nothing was loaded
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent(entry *QueueEntry) TrackStoppedEvent {
	return TrackStoppedEvent{
		baseEvent: newBaseEvent(),
		Entry:     entry,
	}
}

// TrackSeekedEvent is published after the playhead moves.
type TrackSeekedEvent struct {
	baseEvent
	Entry    QueueEntry
	Position time.Duration
}

// Type returns the event type.
func (e TrackSeekedEvent) Type() EventType {
	return EventTrackSeeked
}

// NewTrackSeekedEvent creates a new TrackSeekedEvent.
func NewTrackSeekedEvent(entry QueueEntry, position time.Duration) TrackSeekedEvent {
	return TrackSeekedEvent{
		baseEvent: newBaseEvent(),
		Entry:     entry,
		Position:  position,
	}
}

// TrackCompletedEvent is published when a track finishes playing naturally.
type TrackCompletedEvent struct {
	baseEvent
	Entry QueueEntry
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType {
	return EventTrackCompleted
}

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(entry QueueEntry) TrackCompletedEvent {
	return TrackCompletedEvent{
		baseEvent: newBaseEvent(),
		Entry:     entry,
	}
}

// TrackErrorEvent is published when an entry could not be resolved or started.
type TrackErrorEvent struct {
	baseEvent
	Entry QueueEntry
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(entry QueueEntry, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Entry:     entry,
		Error:     err,
	}
}

// EngineStateChangedEvent is published on every engine state transition.
type EngineStateChangedEvent struct {
	baseEvent
	From EngineState
	To   EngineState
}

// Type returns the event type.
func (e EngineStateChangedEvent) Type() EventType {
	return EventEngineState
}

// NewEngineStateChangedEvent creates a new EngineStateChangedEvent.
func NewEngineStateChangedEvent(from, to EngineState) EngineStateChangedEvent {
	return EngineStateChangedEvent{
		baseEvent: newBaseEvent(),
		From:      from,
		To:        to,
	}
}

// QueueChangedEvent is published after every committed queue mutation.
type QueueChangedEvent struct {
	baseEvent
	Snapshot QueueSnapshot
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(snapshot QueueSnapshot) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Snapshot:  snapshot,
	}
}

// ShuffleToggledEvent is published when the tracklist is shuffled or unshuffled.
type ShuffleToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(enabled bool) ShuffleToggledEvent {
	return ShuffleToggledEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// NoticeEvent carries a short message for a transient UI notice.
type NoticeEvent struct {
	baseEvent
	Message string
	Err     error
}

// Type returns the event type.
func (e NoticeEvent) Type() EventType {
	return EventNotice
}

// NewNoticeEvent creates a new NoticeEvent.
func NewNoticeEvent(message string, err error) NoticeEvent {
	return NoticeEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
		Err:       err,
	}
}

// ScanStartedEvent is published when a library scan starts.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
	}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when a library scan completes and the collection is stored.
type ScanCompletedEvent struct {
	baseEvent
	Collection Collection
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(collection Collection) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent:  newBaseEvent(),
		Collection: collection,
	}
}

// ScanCancelledEvent is published when a library scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType {
	return EventScanCancelled
}

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}
