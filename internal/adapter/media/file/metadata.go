package file

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// trackNamespace scopes the name-based track IDs generated on import.
var trackNamespace = uuid.MustParse("6f1c7d0e-3a4b-5c2d-9e8f-0a1b2c3d4e5f")

// coverNames are the sidecar artwork files looked up next to a track.
var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png", "front.jpg"}

// MetadataReader reads tags from media files under a library root.
type MetadataReader struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewMetadataReader creates a metadata reader that stores source paths relative
// to the resolver's root.
func NewMetadataReader(logger *slog.Logger, resolver *Resolver) *MetadataReader {
	return &MetadataReader{
		resolver: resolver,
		logger:   logger,
	}
}

// TrackID returns the stable identifier for a library-relative source path.
// Re-importing the same file yields the same ID.
func TrackID(sourcePath string) string {
	return uuid.NewSHA1(trackNamespace, []byte(filepath.ToSlash(sourcePath))).String()
}

// ReadEntry builds a queue entry from the file's tags and decoded duration.
// Files without tags fall back to an "Artist - Title" file name.
func (m *MetadataReader) ReadEntry(path string) (*domain.QueueEntry, error) {
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	location := m.resolver.Locate(path)
	sourcePath := location
	if root := m.resolver.Root(); root != "" {
		if rel, err := filepath.Rel(root, location); err == nil && !strings.HasPrefix(rel, "..") {
			sourcePath = rel
		}
	}

	duration, ok := m.resolver.DurationOf(location)
	if !ok {
		if _, err := os.Stat(location); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrResourceUnreadable, path)
	}

	entry := &domain.QueueEntry{
		TrackID:      TrackID(sourcePath),
		DurationHint: duration,
		SourcePath:   sourcePath,
		ArtworkRef:   findCover(filepath.Dir(location)),
	}
	entry.Artist, entry.Title = m.readTags(location)

	return entry, nil
}

func (m *MetadataReader) readTags(location string) (artist, title string) {
	fallbackArtist, fallbackTitle := nameFromFile(location)

	f, err := os.Open(location)
	if err != nil {
		return fallbackArtist, fallbackTitle
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		m.logger.Debug("no tags found", slog.String("path", location), slog.Any("error", err))
		return fallbackArtist, fallbackTitle
	}

	artist, title = strings.TrimSpace(meta.Artist()), strings.TrimSpace(meta.Title())
	if artist == "" {
		artist = strings.TrimSpace(meta.AlbumArtist())
	}
	if artist == "" {
		artist = fallbackArtist
	}
	if title == "" {
		title = fallbackTitle
	}
	return artist, title
}

func nameFromFile(location string) (artist, title string) {
	name := strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
	if parts := strings.SplitN(name, " - ", 2); len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "Unknown Artist", name
}

func findCover(dir string) string {
	for _, name := range coverNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return "file://" + filepath.ToSlash(candidate)
		}
	}
	return ""
}

// Verify that MetadataReader implements the MetadataReader interface
var _ ports.MetadataReader = (*MetadataReader)(nil)
