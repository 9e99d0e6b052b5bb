package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// Resolver resolves library-relative source paths against a root directory.
type Resolver struct {
	root   string
	logger *slog.Logger
}

// NewResolver creates a resolver rooted at root. Absolute source paths are used as is.
func NewResolver(logger *slog.Logger, root string) *Resolver {
	return &Resolver{
		root:   root,
		logger: logger,
	}
}

// Root returns the library root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Locate returns the absolute location of sourcePath.
func (r *Resolver) Locate(sourcePath string) string {
	if filepath.IsAbs(sourcePath) || r.root == "" {
		return filepath.Clean(sourcePath)
	}
	return filepath.Join(r.root, sourcePath)
}

// Resolve checks that the media exists and decodes it far enough to know its duration.
func (r *Resolver) Resolve(ctx context.Context, sourcePath string) (domain.MediaHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaHandle{}, err
	}

	location := r.Locate(sourcePath)
	info, err := os.Stat(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.MediaHandle{}, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, sourcePath)
		}
		return domain.MediaHandle{}, fmt.Errorf("%w: %w", domain.ErrResourceUnreadable, err)
	}
	if info.IsDir() {
		return domain.MediaHandle{}, fmt.Errorf("%w: %s is a directory", domain.ErrResourceUnreadable, sourcePath)
	}

	stream, err := Open(location)
	if err != nil {
		r.logger.Debug("media resolution failed", slog.String("path", sourcePath), slog.Any("error", err))
		return domain.MediaHandle{}, err
	}
	duration := stream.Format.SampleRate.D(stream.Len())
	_ = stream.Close()

	// The caller may have given up while the decoder was reading headers.
	if err := ctx.Err(); err != nil {
		return domain.MediaHandle{}, err
	}

	return domain.MediaHandle{
		Location: location,
		Format:   formatOf(location),
		Duration: duration,
	}, nil
}

// DurationOf returns the decoded duration of the media at sourcePath.
func (r *Resolver) DurationOf(sourcePath string) (time.Duration, bool) {
	stream, err := Open(r.Locate(sourcePath))
	if err != nil {
		return 0, false
	}
	defer stream.Close()

	return stream.Format.SampleRate.D(stream.Len()), true
}

// Verify that Resolver implements the MediaResolver interface
var _ ports.MediaResolver = (*Resolver)(nil)
