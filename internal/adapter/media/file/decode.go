// Package file resolves library media on the local filesystem.
// Decoding uses gopxl/beep; tag metadata uses dhowden/tag.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	"mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	"wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
}

// SupportedFormats returns the file extensions (with dot) that can be decoded.
func SupportedFormats() []string {
	return []string{".mp3", ".wav"}
}

// IsSupported reports whether the file at path has a decodable extension.
func IsSupported(path string) bool {
	_, ok := decoders[formatOf(path)]
	return ok
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Stream is a decoded media file. Close releases the decoder and the file.
type Stream struct {
	beep.StreamSeekCloser
	Format beep.Format
	file   *os.File
}

// Close closes the decoder and the underlying file.
func (s *Stream) Close() error {
	err := s.StreamSeekCloser.Close()
	if cerr := s.file.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}

// Open decodes the file at the absolute path location.
// Missing files map to domain.ErrResourceNotFound; anything that cannot be
// decoded maps to domain.ErrResourceUnreadable.
func Open(location string) (*Stream, error) {
	decode, ok := decoders[formatOf(location)]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrResourceUnreadable, domain.ErrUnsupportedFormat, filepath.Ext(location))
	}

	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, location)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrResourceUnreadable, err)
	}

	streamer, format, err := decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrResourceUnreadable, location, err)
	}
	if streamer.Len() <= 0 {
		_ = streamer.Close()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: empty stream", domain.ErrResourceUnreadable, location)
	}

	return &Stream{StreamSeekCloser: streamer, Format: format, file: f}, nil
}
