package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// DefaultRefreshInterval is how often elapsed time is mirrored while playing.
const DefaultRefreshInterval = time.Second

// PublisherConfig configures the now-playing publisher.
type PublisherConfig struct {
	RefreshInterval time.Duration
}

// NowPlayingPublisher mirrors the playback session to the OS now-playing
// surface and routes remote commands and audio interruptions back into the
// coordinator. The surface may be nil, in which case only interruptions are
// handled.
type NowPlayingPublisher struct {
	// Dependencies (injected)
	logger  *slog.Logger
	loop    *OwnerLoop
	engine  *PlaybackEngine
	coord   *QueueCoordinator
	bus     ports.EventBus
	surface ports.NowPlayingSurface

	refreshInterval time.Duration

	// State (owner loop only)
	cleared bool

	// Interruption state
	interruptions        ports.InterruptionSource
	pausedByInterruption bool

	// Update routine
	stopUpdate    chan struct{}
	updateWg      sync.WaitGroup
	updateRunning bool
	subscriptions []domain.SubscriptionID

	mu sync.Mutex
}

// NewNowPlayingPublisher creates a new publisher. Call Start to begin publishing.
func NewNowPlayingPublisher(
	logger *slog.Logger,
	loop *OwnerLoop,
	engine *PlaybackEngine,
	coord *QueueCoordinator,
	bus ports.EventBus,
	surface ports.NowPlayingSurface,
	cfg PublisherConfig,
) *NowPlayingPublisher {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	return &NowPlayingPublisher{
		logger:          logger,
		loop:            loop,
		engine:          engine,
		coord:           coord,
		bus:             bus,
		surface:         surface,
		refreshInterval: cfg.RefreshInterval,
		cleared:         true,
		stopUpdate:      make(chan struct{}),
	}
}

// Start subscribes to playback events, takes remote commands from the surface
// and, when interruptions is not nil, listens for audio interruptions.
func (p *NowPlayingPublisher) Start(interruptions ports.InterruptionSource) error {
	p.mu.Lock()
	if p.updateRunning {
		p.mu.Unlock()
		return domain.ErrAlreadyInitialized
	}

	refresh := func(domain.Event) { p.refresh() }
	for _, eventType := range []domain.EventType{
		domain.EventTrackLoaded,
		domain.EventTrackPaused,
		domain.EventTrackSeeked,
		domain.EventTrackStopped,
		domain.EventEngineState,
	} {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, refresh))
	}
	p.subscriptions = append(p.subscriptions, p.bus.Subscribe(domain.EventTrackStarted, p.handleTrackStarted))

	p.updateRunning = true
	p.updateWg.Add(1)
	p.mu.Unlock()

	if p.surface != nil {
		p.surface.SetCommandHandler(p.handleCommand)
	}
	go p.updateRoutine()

	if interruptions != nil {
		if err := interruptions.Start(p.handleInterruption); err != nil {
			p.logger.Warn("interruption source unavailable", slog.Any("error", err))
		} else {
			p.mu.Lock()
			p.interruptions = interruptions
			p.mu.Unlock()
		}
	}

	p.logger.Debug("now-playing publisher started", slog.Duration("refresh_interval", p.refreshInterval))
	return nil
}

// Shutdown stops publishing and clears the surface.
func (p *NowPlayingPublisher) Shutdown() error {
	p.mu.Lock()
	if !p.updateRunning {
		p.mu.Unlock()
		return nil
	}
	close(p.stopUpdate)
	p.updateRunning = false
	subscriptions := p.subscriptions
	p.subscriptions = nil
	interruptions := p.interruptions
	p.interruptions = nil

	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	p.mu.Unlock()
	p.updateWg.Wait()

	for _, id := range subscriptions {
		p.bus.Unsubscribe(id)
	}
	var errs []error
	if interruptions != nil {
		errs = append(errs, interruptions.Close())
	}
	if p.surface != nil {
		p.surface.SetCommandHandler(nil)
		errs = append(errs, p.surface.Clear())
	}
	return errors.Join(errs...)
}

// updateRoutine mirrors elapsed time while playing.
func (p *NowPlayingPublisher) updateRoutine() {
	defer p.updateWg.Done()
	ticker := time.NewTicker(p.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopUpdate:
			return

		case <-ticker.C:
			p.loop.Post(func() {
				if p.engine.State() == domain.EnginePlaying {
					p.refresh()
				}
			})
		}
	}
}

// refresh pushes the current session to the surface. Runs on the loop.
func (p *NowPlayingPublisher) refresh() {
	if p.surface == nil {
		return
	}
	session := p.engine.Session()
	if session.ActiveEntry == nil {
		if p.cleared {
			return
		}
		p.cleared = true
		if err := p.surface.Clear(); err != nil {
			p.logger.Warn("failed to clear now-playing surface", slog.Any("error", err))
		}
		return
	}

	p.cleared = false
	entry := session.ActiveEntry
	info := domain.NowPlayingInfo{
		TrackID:    entry.TrackID,
		Title:      entry.Title,
		Artist:     entry.Artist,
		ArtworkRef: entry.ArtworkRef,
		Duration:   session.TotalDuration,
		Elapsed:    session.Elapsed,
		Status:     statusOf(session),
	}
	if err := p.surface.Update(info); err != nil {
		p.logger.Warn("failed to update now-playing surface", slog.Any("error", err))
	}
}

// statusOf reports Playing only once the engine is audible. A pending load
// shows as Paused since it may still fail.
func statusOf(session domain.PlaybackSession) domain.PlaybackStatus {
	switch {
	case session.State == domain.EnginePlaying:
		return domain.StatusPlaying
	case session.ActiveEntry != nil:
		return domain.StatusPaused
	default:
		return domain.StatusStopped
	}
}

// handleTrackStarted refreshes and forgets any interruption pause.
func (p *NowPlayingPublisher) handleTrackStarted(event domain.Event) {
	p.mu.Lock()
	p.pausedByInterruption = false
	p.mu.Unlock()
	p.refresh()
}

// handleCommand routes a remote command to the coordinator.
// It runs on the surface's goroutine, never on the loop.
func (p *NowPlayingPublisher) handleCommand(cmd domain.RemoteCommand) {
	p.logger.Debug("remote command", slog.String("command", cmd.Kind.String()))

	var err error
	switch cmd.Kind {
	case domain.CommandPlay:
		err = p.coord.Resume()
	case domain.CommandPause:
		err = p.coord.Pause()
	case domain.CommandTogglePlayPause:
		err = p.coord.TogglePlayPause()
	case domain.CommandStop:
		err = p.coord.Stop()
	case domain.CommandNext:
		err = p.coord.Advance()
	case domain.CommandPrevious:
		err = p.coord.Retreat()
	case domain.CommandSeek:
		err = p.coord.SeekTo(cmd.Position)
	default:
		p.logger.Warn("unknown remote command", slog.Int("kind", int(cmd.Kind)))
		return
	}

	if err != nil {
		p.logger.Debug("remote command failed", slog.String("command", cmd.Kind.String()), slog.Any("error", err))
	}
}

// handleInterruption pauses on interruption start and resumes on its end
// only if the interruption caused the pause.
func (p *NowPlayingPublisher) handleInterruption(interruption domain.Interruption) {
	if interruption.Began {
		paused, err := p.coord.InterruptPlayback()
		if err != nil {
			p.logger.Warn("failed to pause for interruption", slog.Any("error", err))
			return
		}
		if paused {
			p.mu.Lock()
			p.pausedByInterruption = true
			p.mu.Unlock()
			p.logger.Info("playback interrupted")
		}
		return
	}

	p.mu.Lock()
	resume := interruption.ShouldResume && p.pausedByInterruption
	p.pausedByInterruption = false
	p.mu.Unlock()

	if !resume {
		return
	}
	if err := p.coord.Resume(); err != nil {
		p.logger.Warn("failed to resume after interruption", slog.Any("error", err))
		return
	}
	p.logger.Info("playback resumed after interruption")
}
