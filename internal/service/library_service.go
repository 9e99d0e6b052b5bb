package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// ImportRequest describes the collection an import is stored as.
type ImportRequest struct {
	Key  string
	Name string
	Kind domain.CollectionKind
}

// LibraryService imports media files into stored collections.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	reader  ports.MetadataReader
	entries ports.EntryRepository
	bus     ports.EventBus

	// State
	scanning      bool
	cancelScan    context.CancelFunc
	supportedExts []string

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a new library service that accepts the given file extensions.
func NewLibraryService(
	logger *slog.Logger,
	reader ports.MetadataReader,
	entries ports.EntryRepository,
	bus ports.EventBus,
	formats []string,
) *LibraryService {
	exts := make([]string, len(formats))
	for i, format := range formats {
		exts[i] = strings.ToLower(format)
	}

	return &LibraryService{
		logger:        logger,
		reader:        reader,
		entries:       entries,
		bus:           bus,
		supportedExts: exts,
	}
}

// ImportFolder scans a folder recursively and stores the playable files as a
// collection. Publishes progress events during scanning.
func (s *LibraryService) ImportFolder(ctx context.Context, folderPath string, req ImportRequest) (*domain.Collection, error) {
	ctx, done, err := s.beginScan(ctx, "ImportFolder", req)
	if err != nil {
		return nil, err
	}
	defer done()

	// Publish scan started event
	s.bus.Publish(domain.NewScanStartedEvent(folderPath))

	// Collect all audio files
	files, err := s.collectAudioFiles(ctx, folderPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
			return nil, domain.ErrScanCancelled
		}
		return nil, domain.NewServiceError("LibraryService", "ImportFolder", "failed to walk "+folderPath, err)
	}

	return s.importFiles(ctx, files, req)
}

// ImportFiles stores specific files (not a folder) as a collection.
// Unsupported files are skipped.
func (s *LibraryService) ImportFiles(ctx context.Context, filePaths []string, req ImportRequest) (*domain.Collection, error) {
	ctx, done, err := s.beginScan(ctx, "ImportFiles", req)
	if err != nil {
		return nil, err
	}
	defer done()

	s.bus.Publish(domain.NewScanStartedEvent(strings.Join(filePaths, ", ")))

	files := slices.DeleteFunc(slices.Clone(filePaths), func(path string) bool {
		return !s.IsFormatSupported(path)
	})
	return s.importFiles(ctx, files, req)
}

// beginScan marks a scan as running. The returned function ends it.
func (s *LibraryService) beginScan(ctx context.Context, op string, req ImportRequest) (context.Context, func(), error) {
	if req.Key == "" {
		return nil, nil, domain.NewValidationError("Key", req.Key, "collection key is required")
	}
	switch req.Kind {
	case "", domain.CollectionAlbum, domain.CollectionPlaylist, domain.CollectionTracks:
	default:
		return nil, nil, domain.NewValidationError("Kind", req.Kind, "unknown collection kind")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		return nil, nil, domain.NewServiceError("LibraryService", op, "scan already in progress", nil)
	}
	s.scanning = true

	// Create cancellable context
	ctx, cancel := context.WithCancel(ctx)
	s.cancelScan = cancel

	return ctx, func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}, nil
}

func (s *LibraryService) importFiles(ctx context.Context, files []string, req ImportRequest) (*domain.Collection, error) {
	entries := make([]domain.QueueEntry, 0, len(files))
	total := len(files)

	for i, filePath := range files {
		// Check for cancellation
		select {
		case <-ctx.Done():
			s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
			return nil, domain.ErrScanCancelled
		default:
		}

		entry, err := s.reader.ReadEntry(filePath)
		if err != nil {
			// Skip files that can't be read but continue scanning
			s.logger.Debug("skipping file", slog.String("path", filePath), slog.Any("error", err))
		} else if entry != nil {
			entries = append(entries, *entry)
		}

		// Publish progress event
		s.bus.Publish(domain.NewScanProgressEvent(domain.ScanProgress{
			CurrentFile:  filePath,
			FilesScanned: i + 1,
			TotalFiles:   total,
			TracksFound:  len(entries),
		}))
	}

	name := req.Name
	if name == "" {
		name = req.Key
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.CollectionTracks
	}

	collection := &domain.Collection{
		Key:       req.Key,
		Name:      name,
		Kind:      kind,
		Entries:   entries,
		UpdatedAt: time.Now(),
	}
	if err := s.entries.SaveCollection(collection); err != nil {
		return nil, domain.NewServiceError("LibraryService", "import", "failed to save collection "+req.Key, err)
	}

	s.logger.Info("collection imported",
		slog.String("key", collection.Key),
		slog.Int("files", total),
		slog.Int("entries", len(entries)))

	// Publish scan completed event
	s.bus.Publish(domain.NewScanCompletedEvent(*collection))

	return collection, nil
}

// CancelScan cancels the currently running scan operation.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}

	if s.cancelScan != nil {
		s.cancelScan()
	}

	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// IsFormatSupported checks if a file format is supported.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return slices.Contains(s.supportedExts, strings.ToLower(filepath.Ext(filePath)))
}

// GetSupportedFormats returns the list of supported file extensions.
func (s *LibraryService) GetSupportedFormats() []string {
	return slices.Clone(s.supportedExts)
}

// Collections returns the stored collections.
func (s *LibraryService) Collections() ([]*domain.Collection, error) {
	return s.entries.LoadCollections()
}

// DeleteCollection removes a stored collection.
func (s *LibraryService) DeleteCollection(key string) error {
	return s.entries.DeleteCollection(key)
}

// collectAudioFiles recursively collects all audio files in a directory.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	if _, err := os.Stat(folderPath); err != nil {
		return nil, err
	}

	files := make([]string, 0)
	err := filepath.WalkDir(folderPath, func(path string, d os.DirEntry, err error) error {
		// Check for cancellation
		if ctx.Err() != nil {
			return context.Canceled
		}

		if err != nil {
			// Skip files/folders we can't access
			return nil
		}

		if !d.IsDir() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})

	slices.Sort(files)
	return files, err
}

// Shutdown cancels any running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}

	return nil
}
