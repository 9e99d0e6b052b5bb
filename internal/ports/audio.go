// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

// AudioOutput is the interface for the device-facing half of playback.
// It owns at most one playing stream at a time; starting a new stream replaces the old one.
// This abstracts the underlying audio library and allows for testing with mocks.
//
// Implementations must be thread-safe. onEnd callbacks are invoked from the
// output's own goroutine and must not block.
type AudioOutput interface {
	// Lifecycle methods

	// Initialize opens the output device at the given sample rate in Hz.
	//
	// Returns domain.ErrAlreadyInitialized on a second call, or
	// domain.ErrAudioUnavailable when the build has no audio support.
	Initialize(sampleRate int) error

	// Shutdown stops any stream and releases the device.
	Shutdown() error

	// IsInitialized returns true if the output has been successfully initialized.
	IsInitialized() bool

	// Stream control methods

	// Start decodes media and begins output, replacing any current stream.
	// When paused is true the stream is cued at position zero without sound.
	// onEnd is called once if the stream reaches its natural end; it is never
	// called for a stream that was stopped or replaced.
	//
	// Returns domain.ErrResourceUnreadable (possibly wrapped) if decoding fails.
	Start(media domain.MediaHandle, paused bool, onEnd func()) error

	// Pause halts output, keeping the position.
	Pause() error

	// Resume continues output from the current position.
	Resume() error

	// Stop discards the current stream. Stop without a stream is a no-op.
	Stop() error

	// Seek moves the playhead of the current stream.
	// The position must be within [0, duration].
	Seek(position time.Duration) error

	// Position returns the playhead of the current stream, or zero without one.
	Position() time.Duration
}
