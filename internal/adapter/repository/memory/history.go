package memory

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

const historyTracklistKey = "history.tracklist"

// HistoryRepository implements ports.HistoryRepository using Fyne preferences.
//
// Fyne preferences automatically use OS-specific app data directories:
// - macOS: ~/Library/Preferences/<app id>.plist
// - Linux: ~/.config/fyne/<app id>/
// - Windows: %APPDATA%\fyne\<app id>\
//
// Thread-safe: All operations protected by sync.RWMutex.
type HistoryRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(prefs fyne.Preferences) *HistoryRepository {
	return &HistoryRepository{
		prefs: prefs,
	}
}

// SaveTracklist persists the tracklist record. Records without tracks clear the history.
func (r *HistoryRepository) SaveTracklist(record domain.TracklistRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(record.TrackIDs) == 0 {
		r.prefs.RemoveValue(historyTracklistKey)
		return nil
	}
	if record.CurrentIndex < 0 || record.CurrentIndex >= len(record.TrackIDs) {
		return domain.NewRepositoryError("save", "history", "current index out of range", domain.ErrInvalidIndex)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return domain.NewRepositoryError("save", "history", "failed to marshal tracklist", err)
	}

	r.prefs.SetString(historyTracklistKey, string(data))
	return nil
}

// LoadTracklist retrieves the last saved tracklist, or nil if none was saved.
func (r *HistoryRepository) LoadTracklist() (*domain.TracklistRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(historyTracklistKey)
	if data == "" {
		return nil, nil
	}

	var record domain.TracklistRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, domain.NewRepositoryError("load", "history", "failed to unmarshal tracklist", err)
	}

	return &record, nil
}

// Clear removes all saved history data.
func (r *HistoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(historyTracklistKey)
	return nil
}

// Verify interface implementation
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
