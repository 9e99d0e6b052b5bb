// Package mock provides a mock implementation of the AudioOutput interface.
// This is used for testing services without an audio device.
package mock

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// Output is a mock implementation of the AudioOutput interface.
// It simulates a single stream in memory without producing sound.
// Progress only moves when a test calls SimulateProgress.
//
// Thread-safety: This implementation is thread-safe.
type Output struct {
	logger *slog.Logger

	initialized bool
	sampleRate  int

	stream  *mockStream
	started []domain.MediaHandle
	mu      sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failStart      bool
	failSeek       bool
}

// mockStream is the stream currently held by the output.
type mockStream struct {
	media    domain.MediaHandle
	position time.Duration
	paused   bool
	onEnd    func()
}

// NewOutput creates a new mock audio output.
func NewOutput() *Output {
	return &Output{}
}

// SetLogger sets the logger for this output.
func (m *Output) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Output) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailStart configures the mock to fail starting streams as if the media were undecodable.
func (m *Output) SetFailStart(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStart = fail
}

// SetFailSeek configures the mock to fail seeking (for testing).
func (m *Output) SetFailSeek(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSeek = fail
}

// Initialize initializes the mock output.
func (m *Output) Initialize(sampleRate int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.sampleRate = sampleRate
	return nil
}

// Shutdown shuts down the mock output and drops the stream.
func (m *Output) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.stream = nil
	return nil
}

// IsInitialized returns true if the output is initialized.
func (m *Output) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Start replaces the current stream.
func (m *Output) Start(media domain.MediaHandle, paused bool, onEnd func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}
	if m.failStart {
		return domain.NewAudioEngineError("start", media.Location, "mock decode failed", domain.ErrResourceUnreadable)
	}

	m.stream = &mockStream{media: media, paused: paused, onEnd: onEnd}
	m.started = append(m.started, media)
	if m.logger != nil {
		m.logger.Debug("mock stream started", slog.String("location", media.Location), slog.Bool("paused", paused))
	}
	return nil
}

// Pause pauses the current stream.
func (m *Output) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return domain.ErrNoActiveEntry
	}
	m.stream.paused = true
	return nil
}

// Resume resumes the current stream.
func (m *Output) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return domain.ErrNoActiveEntry
	}
	m.stream.paused = false
	return nil
}

// Stop drops the current stream without calling its end callback.
func (m *Output) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stream = nil
	return nil
}

// Seek sets the position of the current stream.
func (m *Output) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return domain.ErrNoActiveEntry
	}
	if m.failSeek {
		return domain.NewAudioEngineError("seek", m.stream.media.Location, "mock seek failed", nil)
	}
	if position < 0 || position > m.stream.media.Duration {
		return domain.ErrInvalidPosition
	}
	m.stream.position = position
	return nil
}

// Position returns the position of the current stream.
func (m *Output) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stream == nil {
		return 0
	}
	return m.stream.position
}

// Current returns the media of the current stream (for testing).
func (m *Output) Current() (domain.MediaHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stream == nil {
		return domain.MediaHandle{}, false
	}
	return m.stream.media, true
}

// IsPaused reports whether the current stream is paused (for testing).
func (m *Output) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stream != nil && m.stream.paused
}

// Started returns every media handle passed to Start, in order (for testing).
func (m *Output) Started() []domain.MediaHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.MediaHandle(nil), m.started...)
}

// SimulateProgress advances a playing stream by delta (for testing).
// Reaching the end of the media drops the stream and fires its end callback.
func (m *Output) SimulateProgress(delta time.Duration) error {
	m.mu.Lock()

	if m.stream == nil {
		m.mu.Unlock()
		return domain.ErrNoActiveEntry
	}
	if m.stream.paused {
		m.mu.Unlock()
		return fmt.Errorf("stream is paused")
	}

	m.stream.position += delta
	if m.stream.position < m.stream.media.Duration {
		m.mu.Unlock()
		return nil
	}

	onEnd := m.stream.onEnd
	m.stream = nil
	m.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
	return nil
}

// SimulateEnd ends the current stream immediately, as if it played out (for testing).
func (m *Output) SimulateEnd() error {
	m.mu.Lock()
	if m.stream == nil {
		m.mu.Unlock()
		return domain.ErrNoActiveEntry
	}
	onEnd := m.stream.onEnd
	m.stream = nil
	m.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
	return nil
}

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
