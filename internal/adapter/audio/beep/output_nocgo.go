//go:build !((linux && cgo) || windows || darwin)

// Package beep provides the speaker implementation of the AudioOutput interface
// on top of gopxl/beep.
package beep

import (
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// Available reports whether this build can produce sound.
// Linux audio requires cgo for the native sound libraries.
const Available = false

// Output is the speaker output for builds without cgo. Every call fails
// with domain.ErrAudioUnavailable.
type Output struct{}

// NewOutput creates an output that cannot play.
func NewOutput(logger *slog.Logger) *Output {
	logger.Warn("audio output unavailable in this build (cgo disabled)")
	return &Output{}
}

// Initialize always fails.
func (o *Output) Initialize(int) error { return domain.ErrAudioUnavailable }

// Shutdown always fails.
func (o *Output) Shutdown() error { return domain.ErrNotInitialized }

// IsInitialized returns false.
func (o *Output) IsInitialized() bool { return false }

// Start always fails.
func (o *Output) Start(domain.MediaHandle, bool, func()) error { return domain.ErrAudioUnavailable }

// Pause always fails.
func (o *Output) Pause() error { return domain.ErrAudioUnavailable }

// Resume always fails.
func (o *Output) Resume() error { return domain.ErrAudioUnavailable }

// Stop does nothing.
func (o *Output) Stop() error { return nil }

// Seek always fails.
func (o *Output) Seek(time.Duration) error { return domain.ErrAudioUnavailable }

// Position returns 0.
func (o *Output) Position() time.Duration { return 0 }

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
