package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/require"

	audiomock "github.com/tejashwikalptaru/nowplaying/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/eventbus"
	mediamock "github.com/tejashwikalptaru/nowplaying/internal/adapter/media/mock"
	"github.com/tejashwikalptaru/nowplaying/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/logger"
)

const waitTimeout = 2 * time.Second

// fixture wires a coordinator to mock audio and media adapters.
type fixture struct {
	loop     *OwnerLoop
	bus      *eventbus.SyncEventBus
	output   *audiomock.Output
	resolver *mediamock.Resolver
	entries  *memory.EntryRepository
	history  *memory.HistoryRepository
	engine   *PlaybackEngine
	coord    *QueueCoordinator
	events   *eventRecorder
}

// Helper to create a test fixture with fresh in-memory preferences
func newFixture(t *testing.T) *fixture {
	return newFixtureWithPrefs(t, test.NewApp().Preferences(), CoordinatorConfig{})
}

func newFixtureWithPrefs(t *testing.T, prefs fyne.Preferences, cfg CoordinatorConfig) *fixture {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(log)

	output := audiomock.NewOutput()
	require.NoError(t, output.Initialize(44100))

	f := &fixture{
		loop:     NewOwnerLoop(log),
		bus:      bus,
		output:   output,
		resolver: mediamock.NewResolver(),
		entries:  memory.NewEntryRepository(prefs, log),
		history:  memory.NewHistoryRepository(prefs),
		events:   newEventRecorder(bus),
	}
	f.engine = NewPlaybackEngine(log, f.loop, f.output, f.resolver, bus, EngineConfig{LoadTimeout: 200 * time.Millisecond})
	f.coord = NewQueueCoordinator(log, f.loop, f.engine, f.entries, f.history, bus, cfg)
	return f
}

func (f *fixture) close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	require.NoError(t, f.engine.Shutdown(ctx))
	f.loop.Close()
	_ = f.bus.Close()
}

// snapshot reads the observable state; errors yield an empty snapshot.
func (f *fixture) snapshot() domain.QueueSnapshot {
	snapshot, _ := f.coord.Snapshot()
	return snapshot
}

// waitFor blocks until the engine holds trackID in the given state.
func (f *fixture) waitFor(t *testing.T, trackID string, state domain.EngineState) {
	t.Helper()
	require.Eventually(t, func() bool {
		session := f.snapshot().Session
		return session.State == state && session.ActiveEntry != nil && session.ActiveEntry.TrackID == trackID
	}, waitTimeout, 5*time.Millisecond, "expected %s to be %s", trackID, state)
}

// waitIdle blocks until nothing is loaded.
func (f *fixture) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		snapshot := f.snapshot()
		return snapshot.Session.State == domain.EngineIdle && snapshot.Tracklist.Len() == 0
	}, waitTimeout, 5*time.Millisecond)
}

// Helper to create a test entry
func testEntry(id string) domain.QueueEntry {
	return domain.QueueEntry{
		TrackID:      id,
		Title:        "Song " + id,
		Artist:       "Test Artist",
		SourcePath:   id + ".mp3",
		DurationHint: 3 * time.Minute,
	}
}

func testEntries(ids ...string) []domain.QueueEntry {
	entries := make([]domain.QueueEntry, len(ids))
	for i, id := range ids {
		entries[i] = testEntry(id)
	}
	return entries
}

func orderOf(entries []domain.QueueEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.TrackID
	}
	return ids
}

// eventRecorder collects every event published on a bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func newEventRecorder(bus *eventbus.SyncEventBus) *eventRecorder {
	r := &eventRecorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *eventRecorder) count(eventType domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type() == eventType {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(eventType domain.EventType) domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type() == eventType {
			return r.events[i]
		}
	}
	return nil
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
