// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/nowplaying/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/interruption/logind"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/media/file"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/nowplaying/mpris"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/nowplaying/internal/config"
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/logger"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
	"github.com/tejashwikalptaru/nowplaying/internal/service"
)

// shutdownTimeout bounds the wait for in-flight loads during Shutdown.
const shutdownTimeout = 5 * time.Second

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for the commands in cmd/nowplaying
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus ports.EventBus
	output   ports.AudioOutput
	resolver *file.Resolver
	loop     *service.OwnerLoop

	// OS integration (nil when disabled or unavailable)
	surface       ports.NowPlayingSurface
	interruptions ports.InterruptionSource

	// Repositories
	entryRepo   ports.EntryRepository
	historyRepo ports.HistoryRepository

	// Services
	engine         *service.PlaybackEngine
	coordinator    *service.QueueCoordinator
	publisher      *service.NowPlayingPublisher
	libraryService *service.LibraryService

	shutdown bool
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier; it also names the preference store
	AppID string

	// AppName is the display name
	AppName string

	// LibraryRoot is the directory relative source paths resolve against
	LibraryRoot string

	// Formats are the file extensions the importer accepts
	Formats []string

	// SampleRate is the audio sample rate
	SampleRate int

	LoadTimeout      time.Duration
	RestartThreshold time.Duration
	RefreshInterval  time.Duration

	// MPRIS publishes now-playing state on the session bus
	MPRIS    bool
	BusName  string
	Identity string

	// Interruptions pauses playback around system suspend
	Interruptions bool

	// Headless builds only the library: no audio, no playback, no OS integration
	Headless bool

	// UseMockAudio determines whether to use a silent mock output (for testing)
	UseMockAudio bool

	// LogLevel controls logging verbosity
	LogLevel  slog.Level
	LogFormat string

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App

	// TestSurface replaces the MPRIS surface (for testing)
	TestSurface ports.NowPlayingSurface

	// TestInterruptions replaces the logind source (for testing)
	TestInterruptions ports.InterruptionSource
}

// ConfigFrom derives the application configuration from a loaded file configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		AppID:            cfg.App.ID,
		AppName:          cfg.App.Name,
		LibraryRoot:      cfg.Library.Root,
		Formats:          cfg.Library.Formats,
		SampleRate:       cfg.Playback.SampleRate,
		LoadTimeout:      cfg.Playback.LoadTimeout,
		RestartThreshold: cfg.Playback.RestartThreshold,
		RefreshInterval:  cfg.NowPlaying.RefreshInterval,
		MPRIS:            cfg.NowPlaying.MPRIS,
		BusName:          cfg.NowPlaying.BusName,
		Identity:         cfg.NowPlaying.Identity,
		Interruptions:    cfg.NowPlaying.Interruptions,
		LogLevel:         logger.ParseLevel(cfg.Log.Level, slog.LevelInfo),
		LogFormat:        cfg.Log.Format,
	}
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	cfg := ConfigFrom(config.Default())
	cfg.LogLevel = logger.DefaultConfig().Level
	return cfg
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{}

	// Step 1: Create Fyne application (backs the preference store)
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 1.5: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("app_name", config.AppName),
		slog.Bool("headless", config.Headless))

	// Step 2: Create an event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Step 3: Create repositories and media adapters
	prefs := app.fyneApp.Preferences()
	app.entryRepo = memory.NewEntryRepository(prefs, app.logger.With(slog.String("repository", "entries")))
	app.historyRepo = memory.NewHistoryRepository(prefs)
	app.resolver = file.NewResolver(app.logger.With(slog.String("component", "resolver")), config.LibraryRoot)

	app.libraryService = service.NewLibraryService(
		app.logger.With(slog.String("service", "library")),
		file.NewMetadataReader(app.logger.With(slog.String("component", "metadata")), app.resolver),
		app.entryRepo,
		app.eventBus,
		config.Formats,
	)

	if config.Headless {
		return app, nil
	}

	// Step 4: Create an audio output
	if config.UseMockAudio {
		app.output = mock.NewOutput()
	} else {
		app.output = beep.NewOutput(app.logger.With(slog.String("output", "beep")))
	}
	if err := app.output.Initialize(config.SampleRate); err != nil {
		_ = app.eventBus.Close()
		return nil, fmt.Errorf("failed to initialize audio output: %w", err)
	}

	// Step 5: Create the owner loop and playback services
	app.loop = service.NewOwnerLoop(app.logger.With(slog.String("component", "loop")))

	app.engine = service.NewPlaybackEngine(
		app.logger.With(slog.String("service", "engine")),
		app.loop,
		app.output,
		app.resolver,
		app.eventBus,
		service.EngineConfig{LoadTimeout: config.LoadTimeout},
	)

	app.coordinator = service.NewQueueCoordinator(
		app.logger.With(slog.String("service", "coordinator")),
		app.loop,
		app.engine,
		app.entryRepo,
		app.historyRepo,
		app.eventBus,
		service.CoordinatorConfig{RestartThreshold: config.RestartThreshold},
	)

	// Step 6: Connect OS media integration
	app.surface = config.TestSurface
	if app.surface == nil && config.MPRIS {
		surface, err := mpris.New(app.logger.With(slog.String("surface", "mpris")), mpris.Config{
			BusName:  config.BusName,
			Identity: config.Identity,
		})
		if err != nil {
			// Non-fatal - playback works without media keys
			app.logger.Warn("now-playing surface unavailable", slog.Any("error", err))
		} else {
			app.surface = surface
		}
	}

	app.interruptions = config.TestInterruptions
	if app.interruptions == nil && config.Interruptions {
		app.interruptions = logind.NewSource(app.logger.With(slog.String("source", "logind")))
	}

	// Interruptions are handled even without a surface
	if app.surface != nil || app.interruptions != nil {
		app.publisher = service.NewNowPlayingPublisher(
			app.logger.With(slog.String("service", "nowplaying")),
			app.loop,
			app.engine,
			app.coordinator,
			app.eventBus,
			app.surface,
			service.PublisherConfig{RefreshInterval: config.RefreshInterval},
		)
		if err := app.publisher.Start(app.interruptions); err != nil {
			app.logger.Warn("failed to start now-playing publisher", slog.Any("error", err))
		}
	}

	app.observe()

	return app, nil
}

// observe logs what the user would otherwise see in a window.
func (a *Application) observe() {
	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		a.eventBus.SubscribeAll(func(event domain.Event) {
			a.logger.Debug("event", slog.String("type", string(event.Type())))
		})
	}
	a.eventBus.Subscribe(domain.EventTrackStarted, func(event domain.Event) {
		e := event.(domain.TrackStartedEvent)
		a.logger.Info("now playing",
			slog.String("title", e.Entry.Title),
			slog.String("artist", e.Entry.Artist))
	})
	failed := func(event domain.Event) bool {
		return event.(domain.NoticeEvent).Err != nil
	}
	a.eventBus.SubscribeFiltered(domain.EventNotice, failed, func(event domain.Event) {
		e := event.(domain.NoticeEvent)
		a.logger.Warn(e.Message, slog.Any("error", e.Err))
	})
	a.eventBus.SubscribeFiltered(domain.EventNotice, func(event domain.Event) bool {
		return !failed(event)
	}, func(event domain.Event) {
		a.logger.Info(event.(domain.NoticeEvent).Message)
	})
}

// RunOptions selects what serve plays first.
type RunOptions struct {
	// Collection starts this collection instead of restoring the last queue
	Collection string

	// StartTrackID is the first entry of Collection; empty means its first entry
	StartTrackID string

	Shuffle bool
}

// Run starts playback and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context, opts RunOptions) error {
	if a.coordinator == nil {
		return errors.New("application was built headless")
	}

	a.logger.Info("Now Playing started", slog.String("version", GetVersionInfo().FullString()))

	if opts.Collection != "" {
		if err := a.coordinator.StartCollection(ctx, opts.Collection, opts.StartTrackID, opts.Shuffle); err != nil {
			return fmt.Errorf("failed to start collection %s: %w", opts.Collection, err)
		}
	} else if err := a.loadSavedState(ctx); err != nil {
		// Non-fatal - just log and continue
		a.logger.Warn("failed to load saved state", slog.Any("error", err))
	}

	<-ctx.Done()
	return nil
}

// loadSavedState restores the queue from the previous session, cued and paused.
func (a *Application) loadSavedState(ctx context.Context) error {
	restored, err := a.coordinator.RestoreQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore queue: %w", err)
	}
	if restored {
		a.logger.Info("restored previous queue")
	}
	return nil
}

// Coordinator returns the queue coordinator, or nil for headless applications.
func (a *Application) Coordinator() *service.QueueCoordinator {
	return a.coordinator
}

// Library returns the library service.
func (a *Application) Library() *service.LibraryService {
	return a.libraryService
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Shutdown gracefully shuts down the application. The queue is saved first.
// Calling Shutdown more than once is a no-op.
func (a *Application) Shutdown() error {
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	a.logger.Info("shutting down application")

	var errs []error
	note := func(component string, err error) {
		if err != nil {
			a.logger.Warn("failed to shutdown "+component, slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", component, err))
		}
	}

	// Stop taking remote commands before touching the queue
	if a.publisher != nil {
		note("now-playing publisher", a.publisher.Shutdown())
	}
	if a.surface != nil {
		note("now-playing surface", a.surface.Close())
	}

	// Shutdown services (in reverse order of creation)
	if a.coordinator != nil {
		note("coordinator", a.coordinator.Shutdown())
	}
	note("library service", a.libraryService.Shutdown())

	if a.engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		note("playback engine", a.engine.Shutdown(ctx))
		cancel()
	}
	if a.loop != nil {
		a.loop.Close()
	}

	// Shutdown audio output
	if a.output != nil {
		note("audio output", a.output.Shutdown())
	}

	note("event bus", a.eventBus.Close())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
