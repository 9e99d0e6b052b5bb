//go:build (linux && cgo) || windows || darwin

// Package beep provides the speaker implementation of the AudioOutput interface
// on top of gopxl/beep.
package beep

import (
	"log/slog"
	"sync"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/nowplaying/internal/adapter/media/file"
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// Available reports whether this build can produce sound.
const Available = true

// resampleQuality is the beep resampler quality used when the file rate differs from the device rate.
const resampleQuality = 4

// Output plays one stream at a time through the system speaker.
//
// Thread-safety: This implementation is thread-safe via sync.Mutex. Fields
// read by the speaker goroutine are only touched under speaker.Lock.
type Output struct {
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
	sampleRate  gobeep.SampleRate

	stream *file.Stream
	ctrl   *gobeep.Ctrl

	// generation identifies the current stream so that end callbacks of
	// replaced streams are ignored
	generation uint64
}

// NewOutput creates a new speaker output.
func NewOutput(logger *slog.Logger) *Output {
	return &Output{logger: logger}
}

// Initialize opens the speaker at sampleRate with a 100ms buffer.
func (o *Output) Initialize(sampleRate int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return domain.ErrAlreadyInitialized
	}

	rate := gobeep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return domain.NewAudioEngineError("initialize", "", "failed to open speaker", err)
	}

	o.initialized = true
	o.sampleRate = rate
	o.logger.Debug("speaker initialized", slog.Int("sample_rate", sampleRate))
	return nil
}

// Shutdown stops playback and closes the speaker.
func (o *Output) Shutdown() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized {
		return domain.ErrNotInitialized
	}

	o.stopLocked()
	speaker.Close()
	o.initialized = false
	return nil
}

// IsInitialized returns true if the speaker is open.
func (o *Output) IsInitialized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialized
}

// Start decodes media and plays it, replacing the current stream.
// onEnd is called on its own goroutine when the stream plays out.
func (o *Output) Start(media domain.MediaHandle, paused bool, onEnd func()) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized {
		return domain.ErrNotInitialized
	}

	o.stopLocked()

	stream, err := file.Open(media.Location)
	if err != nil {
		return domain.NewAudioEngineError("start", media.Location, "failed to decode", err)
	}

	var streamer gobeep.Streamer = stream
	if stream.Format.SampleRate != o.sampleRate {
		streamer = gobeep.Resample(resampleQuality, stream.Format.SampleRate, o.sampleRate, stream)
	}

	o.stream = stream
	o.ctrl = &gobeep.Ctrl{Streamer: streamer, Paused: paused}
	o.generation++
	generation := o.generation

	speaker.Play(gobeep.Seq(o.ctrl, gobeep.Callback(func() {
		// The callback runs with the speaker locked; finish elsewhere.
		go o.finished(generation, onEnd)
	})))

	o.logger.Debug("stream started",
		slog.String("location", media.Location),
		slog.Bool("paused", paused))
	return nil
}

// finished releases a stream that played out and reports it.
func (o *Output) finished(generation uint64, onEnd func()) {
	o.mu.Lock()
	if generation != o.generation || o.stream == nil {
		o.mu.Unlock()
		return
	}
	o.releaseLocked()
	o.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
}

// Pause pauses the current stream.
func (o *Output) Pause() error {
	return o.setPaused(true)
}

// Resume resumes the current stream.
func (o *Output) Resume() error {
	return o.setPaused(false)
}

func (o *Output) setPaused(paused bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctrl == nil {
		return domain.ErrNoActiveEntry
	}

	speaker.Lock()
	o.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

// Stop drops the current stream without calling its end callback.
func (o *Output) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
	return nil
}

// stopLocked stops playback (must be called with lock held).
func (o *Output) stopLocked() {
	if o.stream == nil {
		return
	}
	o.generation++
	speaker.Clear()
	o.releaseLocked()
}

// releaseLocked closes the stream (must be called with lock held).
func (o *Output) releaseLocked() {
	if err := o.stream.Close(); err != nil {
		o.logger.Warn("failed to close stream", slog.Any("error", err))
	}
	o.stream = nil
	o.ctrl = nil
}

// Seek sets the playback position of the current stream.
func (o *Output) Seek(position time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stream == nil {
		return domain.ErrNoActiveEntry
	}

	samples := o.stream.Format.SampleRate.N(position)
	if position < 0 || samples > o.stream.Len() {
		return domain.ErrInvalidPosition
	}

	speaker.Lock()
	defer speaker.Unlock()

	if err := o.stream.Seek(samples); err != nil {
		return domain.NewAudioEngineError("seek", "", "failed to seek", err)
	}
	return nil
}

// Position returns the playback position of the current stream.
func (o *Output) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stream == nil {
		return 0
	}

	speaker.Lock()
	pos := o.stream.Position()
	speaker.Unlock()

	return o.stream.Format.SampleRate.D(pos)
}

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
