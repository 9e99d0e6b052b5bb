// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the now-playing engine.
package domain

import (
	"time"
)

// QueueEntry is a single playable item as seen by the queue.
// Entries are immutable once enqueued; lists change only by whole-list edits.
type QueueEntry struct {
	// TrackID identifies the track in the library
	TrackID string `json:"track_id"`

	// Title is the song title (from metadata or filename)
	Title string `json:"title"`

	// Artist is the performing artist name
	Artist string `json:"artist"`

	// ArtworkRef points at the artwork (file path or URL), empty if none
	ArtworkRef string `json:"artwork_ref,omitempty"`

	// DurationHint is the stored duration, used until the media reports its own
	DurationHint time.Duration `json:"duration_hint"`

	// SourcePath is the path of the media file, relative to the library root
	SourcePath string `json:"source_path"`

	// Slot identifies this occurrence inside a tracklist.
	// Assigned by the coordinator; zero outside a tracklist.
	Slot uint64 `json:"-"`
}

// SameOccurrence reports whether e and other are the same tracklist occurrence.
func (e QueueEntry) SameOccurrence(other QueueEntry) bool {
	if e.Slot != 0 || other.Slot != 0 {
		return e.Slot == other.Slot
	}
	return e.TrackID == other.TrackID
}

// TracklistState is the ordered collection currently being played through.
type TracklistState struct {
	// SourceName is the human label of the album, playlist or selection
	SourceName string

	// OrderedEntries is the play order
	OrderedEntries []QueueEntry

	// OriginalOrder is the unshuffled order, only kept while IsShuffled
	OriginalOrder []QueueEntry

	// IsShuffled is true when OrderedEntries is a permutation of OriginalOrder
	IsShuffled bool

	// CurrentIndex is nil iff OrderedEntries is empty
	CurrentIndex *int
}

// Len returns the number of entries in play order.
func (t TracklistState) Len() int {
	return len(t.OrderedEntries)
}

// Index returns the current index, or -1 when nothing is loaded.
func (t TracklistState) Index() int {
	if t.CurrentIndex == nil {
		return -1
	}
	return *t.CurrentIndex
}

// Current returns the entry at CurrentIndex, or nil.
func (t TracklistState) Current() *QueueEntry {
	if t.CurrentIndex == nil {
		return nil
	}
	entry := t.OrderedEntries[*t.CurrentIndex]
	return &entry
}

// Clone returns a deep copy so callers can hold it without sharing slices.
func (t TracklistState) Clone() TracklistState {
	clone := TracklistState{
		SourceName: t.SourceName,
		IsShuffled: t.IsShuffled,
	}
	if t.OrderedEntries != nil {
		clone.OrderedEntries = append([]QueueEntry(nil), t.OrderedEntries...)
	}
	if t.OriginalOrder != nil {
		clone.OriginalOrder = append([]QueueEntry(nil), t.OriginalOrder...)
	}
	if t.CurrentIndex != nil {
		idx := *t.CurrentIndex
		clone.CurrentIndex = &idx
	}
	return clone
}

// EngineState is the state of the playback engine.
type EngineState int

const (
	// EngineIdle means nothing is loaded
	EngineIdle EngineState = iota

	// EngineLoading means media is being resolved
	EngineLoading

	// EnginePlaying means audio is being output
	EnginePlaying

	// EnginePaused means media is loaded but output is halted
	EnginePaused

	// EngineFailed means the last load could not be resolved or started
	EngineFailed
)

// String returns a human-readable representation of the engine state.
func (s EngineState) String() string {
	switch s {
	case EngineIdle:
		return "idle"
	case EngineLoading:
		return "loading"
	case EnginePlaying:
		return "playing"
	case EnginePaused:
		return "paused"
	case EngineFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PlaybackSession is the engine-owned view of the active entry.
type PlaybackSession struct {
	ActiveEntry   *QueueEntry
	State         EngineState
	IsPlaying     bool
	Elapsed       time.Duration
	TotalDuration time.Duration
}

// QueueSnapshot is the observable state published to UI subscribers.
type QueueSnapshot struct {
	Tracklist   TracklistState
	ManualQueue []QueueEntry
	Session     PlaybackSession

	// ActiveFromManual is true while a manual queue entry plays out of band
	ActiveFromManual bool
}

// MediaHandle is a resolved, playable media resource.
type MediaHandle struct {
	// Location is the absolute path of the media
	Location string

	// Format is the lower-case file extension without the dot (mp3, wav)
	Format string

	// Duration is the decoded length of the media
	Duration time.Duration
}

// CollectionKind distinguishes the origin of a stored collection.
type CollectionKind string

const (
	CollectionAlbum    CollectionKind = "album"
	CollectionPlaylist CollectionKind = "playlist"
	CollectionTracks   CollectionKind = "tracks"
)

// Collection is a stored album, playlist or loose-track set.
type Collection struct {
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	Kind      CollectionKind `json:"kind"`
	Entries   []QueueEntry   `json:"entries"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TracklistRecord is the persisted form of a tracklist: identifiers only.
type TracklistRecord struct {
	SourceName       string   `json:"source_name"`
	TrackIDs         []string `json:"track_ids"`
	OriginalTrackIDs []string `json:"original_track_ids,omitempty"`
	CurrentIndex     int      `json:"current_index"`
}

// PlaybackStatus is the coarse status shown on the now-playing surface.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// NowPlayingInfo is the metadata mirrored to the OS now-playing surface.
type NowPlayingInfo struct {
	TrackID    string
	Title      string
	Artist     string
	ArtworkRef string
	Duration   time.Duration
	Elapsed    time.Duration
	Status     PlaybackStatus
}

// RemoteCommandKind enumerates external transport commands.
type RemoteCommandKind int

const (
	CommandPlay RemoteCommandKind = iota
	CommandPause
	CommandTogglePlayPause
	CommandStop
	CommandNext
	CommandPrevious
	CommandSeek
)

// String returns the command name.
func (k RemoteCommandKind) String() string {
	switch k {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandTogglePlayPause:
		return "toggle"
	case CommandStop:
		return "stop"
	case CommandNext:
		return "next"
	case CommandPrevious:
		return "previous"
	case CommandSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// RemoteCommand is a transport command from the OS integration layer.
type RemoteCommand struct {
	Kind RemoteCommandKind

	// Position is the absolute target for CommandSeek
	Position time.Duration
}

// Interruption is an audio-route interruption notification.
type Interruption struct {
	// Began is true when the interruption starts, false when it ends
	Began bool

	// ShouldResume is the system's hint on interruption end
	ShouldResume bool
}

// ScanProgress represents the progress of a library import.
type ScanProgress struct {
	// CurrentFile is the file currently being scanned
	CurrentFile string

	// FilesScanned is the number of files processed so far
	FilesScanned int

	// TotalFiles is the total number of files to scan (may be -1 if unknown)
	TotalFiles int

	// TracksFound is the number of valid music tracks found
	TracksFound int
}

// Percentage returns the completion percentage (0-100), or -1 if total is unknown.
func (p ScanProgress) Percentage() float64 {
	if p.TotalFiles <= 0 {
		return -1
	}
	return float64(p.FilesScanned) / float64(p.TotalFiles) * 100.0
}
