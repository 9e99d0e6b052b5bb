// Package service provides business logic for the now-playing engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// DefaultLoadTimeout bounds how long media resolution may take before the load fails.
const DefaultLoadTimeout = 10 * time.Second

// EngineConfig configures the playback engine.
type EngineConfig struct {
	LoadTimeout time.Duration
}

// PlaybackEngine owns the playback session: which entry is loaded, whether it
// is playing, and where the playhead is.
//
// Every method except Shutdown must be called on the owner loop. Media is
// resolved on a worker goroutine and the result is posted back to the loop;
// each load carries a generation number so that results of superseded loads
// are dropped.
//
// The engine publishes TrackCompletedEvent when media plays out and
// TrackErrorEvent when a load fails. Both are published from loop tasks.
type PlaybackEngine struct {
	// Dependencies (injected)
	logger   *slog.Logger
	loop     *OwnerLoop
	output   ports.AudioOutput
	resolver ports.MediaResolver
	bus      ports.EventBus

	loadTimeout time.Duration

	// State (owner loop only)
	state      domain.EngineState
	entry      *domain.QueueEntry
	duration   time.Duration
	autoplay   bool
	generation uint64
	cancelLoad context.CancelFunc

	// workers tracks in-flight resolutions
	workers sync.WaitGroup
}

// NewPlaybackEngine creates a new playback engine.
func NewPlaybackEngine(
	logger *slog.Logger,
	loop *OwnerLoop,
	output ports.AudioOutput,
	resolver ports.MediaResolver,
	bus ports.EventBus,
	cfg EngineConfig,
) *PlaybackEngine {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}

	logger.Debug("playback engine initialized", slog.Duration("load_timeout", cfg.LoadTimeout))

	return &PlaybackEngine{
		logger:      logger,
		loop:        loop,
		output:      output,
		resolver:    resolver,
		bus:         bus,
		loadTimeout: cfg.LoadTimeout,
		state:       domain.EngineIdle,
	}
}

// State returns the current engine state.
func (e *PlaybackEngine) State() domain.EngineState {
	return e.state
}

// Session returns a copy of the playback session.
func (e *PlaybackEngine) Session() domain.PlaybackSession {
	session := domain.PlaybackSession{
		State:         e.state,
		IsPlaying:     e.state == domain.EnginePlaying || (e.state == domain.EngineLoading && e.autoplay),
		Elapsed:       e.Elapsed(),
		TotalDuration: e.duration,
	}
	if e.entry != nil {
		entry := *e.entry
		session.ActiveEntry = &entry
	}
	return session
}

// Elapsed returns the playhead position, or zero when no media is started.
func (e *PlaybackEngine) Elapsed() time.Duration {
	if !e.hasMedia() {
		return 0
	}
	return e.output.Position()
}

// hasMedia reports whether the output holds the loaded entry's stream.
func (e *PlaybackEngine) hasMedia() bool {
	return e.state == domain.EnginePlaying || e.state == domain.EnginePaused
}

// Load replaces whatever is loaded with entry and starts resolving its media.
// With autoplay false the entry is cued paused at the start.
func (e *PlaybackEngine) Load(entry domain.QueueEntry, autoplay bool) {
	e.abandonLoad()
	if e.hasMedia() {
		if err := e.output.Stop(); err != nil {
			e.logger.Warn("failed to stop output", slog.Any("error", err))
		}
	}

	e.generation++
	generation := e.generation
	e.entry = &entry
	e.duration = entry.DurationHint
	e.autoplay = autoplay
	e.setState(domain.EngineLoading)

	e.logger.Debug("loading entry",
		slog.String("track_id", entry.TrackID),
		slog.String("source_path", entry.SourcePath),
		slog.Uint64("generation", generation))

	ctx, cancel := context.WithTimeout(context.Background(), e.loadTimeout)
	e.cancelLoad = cancel

	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		defer cancel()

		media, err := e.resolver.Resolve(ctx, entry.SourcePath)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: load timed out after %s", domain.ErrResourceUnreadable, e.loadTimeout)
		}

		e.loop.Post(func() { e.finishLoad(generation, media, err) })
	}()
}

// finishLoad applies a resolution result on the loop.
func (e *PlaybackEngine) finishLoad(generation uint64, media domain.MediaHandle, err error) {
	if generation != e.generation || e.state != domain.EngineLoading {
		e.logger.Debug("dropping stale load result", slog.Uint64("generation", generation))
		return
	}
	e.cancelLoad = nil
	entry := *e.entry

	if err == nil {
		err = e.output.Start(media, !e.autoplay, func() {
			e.loop.Post(func() { e.finishPlayback(generation) })
		})
	}
	if err != nil {
		e.fail(entry, err)
		return
	}

	if media.Duration > 0 {
		e.duration = media.Duration
	}
	if e.autoplay {
		e.setState(domain.EnginePlaying)
	} else {
		e.setState(domain.EnginePaused)
	}

	e.logger.Info("track loaded",
		slog.String("track_id", entry.TrackID),
		slog.String("title", entry.Title),
		slog.Duration("duration", e.duration),
		slog.Bool("autoplay", e.autoplay))

	e.bus.Publish(domain.NewTrackLoadedEvent(entry, e.duration, e.autoplay))
	if e.autoplay {
		e.bus.Publish(domain.NewTrackStartedEvent(entry, 0))
	} else {
		e.bus.Publish(domain.NewTrackPausedEvent(entry, 0))
	}
}

// fail marks the load as failed and reports it.
func (e *PlaybackEngine) fail(entry domain.QueueEntry, err error) {
	e.logger.Warn("failed to load entry",
		slog.String("track_id", entry.TrackID),
		slog.String("source_path", entry.SourcePath),
		slog.Any("error", err))

	e.setState(domain.EngineFailed)
	e.bus.Publish(domain.NewTrackErrorEvent(entry, err))
}

// finishPlayback handles the natural end of the media of the given load.
func (e *PlaybackEngine) finishPlayback(generation uint64) {
	if generation != e.generation || !e.hasMedia() {
		return
	}

	entry := *e.entry
	e.entry = nil
	e.duration = 0
	e.setState(domain.EngineIdle)

	e.logger.Debug("track completed", slog.String("track_id", entry.TrackID))
	e.bus.Publish(domain.NewTrackCompletedEvent(entry))
}

// Pause halts output. While loading it cancels autoplay instead.
func (e *PlaybackEngine) Pause() error {
	switch e.state {
	case domain.EngineLoading:
		e.autoplay = false
		return nil
	case domain.EnginePaused:
		return nil
	case domain.EnginePlaying:
		if err := e.output.Pause(); err != nil {
			return err
		}
		e.setState(domain.EnginePaused)
		e.bus.Publish(domain.NewTrackPausedEvent(*e.entry, e.output.Position()))
		return nil
	default:
		return domain.ErrNoActiveEntry
	}
}

// Resume continues output. While loading it requests autoplay instead.
func (e *PlaybackEngine) Resume() error {
	switch e.state {
	case domain.EngineLoading:
		e.autoplay = true
		return nil
	case domain.EnginePlaying:
		return nil
	case domain.EnginePaused:
		if err := e.output.Resume(); err != nil {
			return err
		}
		e.setState(domain.EnginePlaying)
		e.bus.Publish(domain.NewTrackStartedEvent(*e.entry, e.output.Position()))
		return nil
	default:
		return domain.ErrNoActiveEntry
	}
}

// Stop discards the loaded entry and any load in flight, leaving the engine idle.
func (e *PlaybackEngine) Stop() {
	e.abandonLoad()
	e.generation++

	if e.hasMedia() {
		if err := e.output.Stop(); err != nil {
			e.logger.Warn("failed to stop output", slog.Any("error", err))
		}
	}

	previous := e.entry
	e.entry = nil
	e.duration = 0
	e.autoplay = false
	wasIdle := e.state == domain.EngineIdle
	e.setState(domain.EngineIdle)

	if !wasIdle {
		e.bus.Publish(domain.NewTrackStoppedEvent(previous))
	}
}

// SeekFraction moves the playhead to fraction f of the total duration.
func (e *PlaybackEngine) SeekFraction(f float64) error {
	if f < 0 || f > 1 {
		return domain.ErrInvalidPosition
	}
	if !e.hasMedia() {
		return domain.ErrNoActiveEntry
	}
	return e.seek(time.Duration(f * float64(e.duration)))
}

// SeekTo moves the playhead to an absolute position.
func (e *PlaybackEngine) SeekTo(position time.Duration) error {
	if !e.hasMedia() {
		return domain.ErrNoActiveEntry
	}
	if position < 0 || position > e.duration {
		return domain.ErrInvalidPosition
	}
	return e.seek(position)
}

func (e *PlaybackEngine) seek(position time.Duration) error {
	if err := e.output.Seek(position); err != nil {
		return err
	}
	e.bus.Publish(domain.NewTrackSeekedEvent(*e.entry, position))
	return nil
}

// Restart moves the playhead back to the start, keeping play or pause.
func (e *PlaybackEngine) Restart() error {
	if !e.hasMedia() {
		return domain.ErrNoActiveEntry
	}
	return e.seek(0)
}

// Shutdown stops playback and waits for in-flight loads to exit.
// Unlike the other methods it is called from outside the loop.
func (e *PlaybackEngine) Shutdown(ctx context.Context) error {
	err := e.loop.Do(ctx, e.Stop)
	if err != nil && !errors.Is(err, domain.ErrLoopClosed) {
		return err
	}
	e.workers.Wait()
	return nil
}

func (e *PlaybackEngine) abandonLoad() {
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
}

func (e *PlaybackEngine) setState(next domain.EngineState) {
	if e.state == next {
		return
	}
	previous := e.state
	e.state = next
	e.bus.Publish(domain.NewEngineStateChangedEvent(previous, next))
}
