// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

// EntryRepository stores the library's collections (albums, playlists, loose tracks).
//
// Thread-safety: Implementations must be thread-safe.
type EntryRepository interface {
	// FetchEntries returns the entries of the collection with the given key, in stored order.
	// Returns domain.ErrCollectionNotFound for an unknown key.
	FetchEntries(key string) ([]domain.QueueEntry, error)

	// LookupEntries resolves track IDs to entries, preserving the order of ids.
	// IDs that are no longer in any collection are skipped.
	LookupEntries(ids []string) ([]domain.QueueEntry, error)

	// SaveCollection persists a collection, replacing any with the same key.
	SaveCollection(collection *domain.Collection) error

	// LoadCollections returns all stored collections ordered by key.
	LoadCollections() ([]*domain.Collection, error)

	// DeleteCollection removes a collection. Unknown keys are a no-op.
	DeleteCollection(key string) error
}

// HistoryRepository persists the last tracklist so it can be restored on the next start.
// Only identifiers are stored, never full entries.
//
// Thread-safety: Implementations must be thread-safe.
type HistoryRepository interface {
	// SaveTracklist persists record, replacing any previous one.
	SaveTracklist(record domain.TracklistRecord) error

	// LoadTracklist returns the saved record, or (nil, nil) if none was saved.
	LoadTracklist() (*domain.TracklistRecord, error)

	// Clear removes all saved history data.
	Clear() error
}
