package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

// MediaResolver turns a library-relative source path into a playable handle.
//
// Resolve may block on disk I/O and honours ctx cancellation and deadlines.
// It returns domain.ErrResourceNotFound for a missing file and
// domain.ErrResourceUnreadable for a corrupt or unsupported one.
type MediaResolver interface {
	Resolve(ctx context.Context, sourcePath string) (domain.MediaHandle, error)

	// DurationOf returns the decoded duration of the media, if it can be determined.
	DurationOf(sourcePath string) (time.Duration, bool)
}

// MetadataReader extracts tag metadata for the library importer.
type MetadataReader interface {
	// ReadEntry builds a queue entry for the file at path.
	// Missing tags fall back to the file name for the title.
	ReadEntry(path string) (*domain.QueueEntry, error)
}
