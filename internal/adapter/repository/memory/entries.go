// Package memory provides repository implementations backed by Fyne preferences.
// Records are stored as JSON strings in the preference store.
package memory

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

const (
	collectionPrefix = "collection."
	collectionIndex  = "collection._keys"
)

// EntryRepository implements ports.EntryRepository using Fyne preferences.
// Collections are stored under "collection.<key>"; the list of keys under "collection._keys".
//
// Thread-safe: All operations protected by sync.RWMutex.
type EntryRepository struct {
	prefs  fyne.Preferences
	mu     sync.RWMutex
	logger *slog.Logger
	now    func() time.Time
}

// NewEntryRepository creates a new entry repository.
// The preferences parameter should be obtained from the Fyne app's Preferences().
func NewEntryRepository(prefs fyne.Preferences, logger *slog.Logger) *EntryRepository {
	return &EntryRepository{
		prefs:  prefs,
		logger: logger,
		now:    time.Now,
	}
}

// SaveCollection persists a collection, replacing any with the same key.
func (r *EntryRepository) SaveCollection(collection *domain.Collection) error {
	if collection == nil || collection.Key == "" {
		return domain.NewRepositoryError("save", "entries", "collection key is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *collection
	stored.Entries = slices.Clone(collection.Entries)
	for i := range stored.Entries {
		stored.Entries[i].Slot = 0
	}
	stored.UpdatedAt = r.now().UTC()

	data, err := json.Marshal(stored)
	if err != nil {
		return domain.NewRepositoryError("save", "entries", "failed to marshal collection", err)
	}
	r.prefs.SetString(collectionPrefix+collection.Key, string(data))

	keys, err := r.loadKeys()
	if err != nil {
		r.logger.Warn("collection index corrupted, rebuilding", slog.Any("error", err))
		keys = []string{}
	}
	if !slices.Contains(keys, collection.Key) {
		keys = append(keys, collection.Key)
		if err := r.saveKeys(keys); err != nil {
			return err
		}
	}

	return nil
}

// FetchEntries returns the entries of the collection with the given key.
func (r *EntryRepository) FetchEntries(key string) ([]domain.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	collection, err := r.load(key)
	if err != nil {
		return nil, err
	}
	return collection.Entries, nil
}

// LookupEntries resolves track IDs across all collections, preserving the order of ids.
// Unknown IDs are skipped.
func (r *EntryRepository) LookupEntries(ids []string) ([]domain.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys, err := r.loadKeys()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.QueueEntry)
	for _, key := range keys {
		collection, err := r.load(key)
		if err != nil {
			r.logger.Warn("skipping unreadable collection", slog.String("key", key), slog.Any("error", err))
			continue
		}
		for _, entry := range collection.Entries {
			if _, seen := byID[entry.TrackID]; !seen {
				byID[entry.TrackID] = entry
			}
		}
	}

	entries := make([]domain.QueueEntry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := byID[id]; ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// LoadCollections returns all stored collections ordered by key.
// Missing or corrupted records are skipped.
func (r *EntryRepository) LoadCollections() ([]*domain.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys, err := r.loadKeys()
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)

	collections := make([]*domain.Collection, 0, len(keys))
	for _, key := range keys {
		collection, err := r.load(key)
		if err != nil {
			r.logger.Warn("collection unavailable", slog.String("key", key), slog.Any("error", err))
			continue
		}
		collections = append(collections, collection)
	}

	return collections, nil
}

// DeleteCollection removes a collection. Unknown keys are a no-op.
func (r *EntryRepository) DeleteCollection(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(collectionPrefix + key)

	keys, err := r.loadKeys()
	if err != nil {
		keys = []string{}
	}
	return r.saveKeys(slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

// load reads one collection. Must be called with lock held.
func (r *EntryRepository) load(key string) (*domain.Collection, error) {
	data := r.prefs.String(collectionPrefix + key)
	if data == "" {
		return nil, domain.ErrCollectionNotFound
	}

	var collection domain.Collection
	if err := json.Unmarshal([]byte(data), &collection); err != nil {
		return nil, domain.NewRepositoryError("load", "entries", "failed to unmarshal collection "+key, err)
	}
	return &collection, nil
}

// loadKeys loads the list of all collection keys.
// Must be called with lock held.
func (r *EntryRepository) loadKeys() ([]string, error) {
	data := r.prefs.String(collectionIndex)
	if data == "" {
		return []string{}, nil
	}

	var keys []string
	if err := json.Unmarshal([]byte(data), &keys); err != nil {
		return nil, domain.NewRepositoryError("load", "entries", "failed to unmarshal collection keys", err)
	}
	return keys, nil
}

// saveKeys saves the list of all collection keys.
// Must be called with lock held.
func (r *EntryRepository) saveKeys(keys []string) error {
	data, err := json.Marshal(keys)
	if err != nil {
		return domain.NewRepositoryError("save", "entries", "failed to marshal collection keys", err)
	}

	r.prefs.SetString(collectionIndex, string(data))
	return nil
}

// Verify interface implementation
var _ ports.EntryRepository = (*EntryRepository)(nil)
