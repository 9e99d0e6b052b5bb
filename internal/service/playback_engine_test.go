package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/testutil"
)

// onLoop runs fn on the fixture's loop and fails the test if it cannot.
func (f *fixture) onLoop(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, f.loop.Do(context.Background(), fn))
}

func (f *fixture) engineState(t *testing.T) domain.EngineState {
	t.Helper()
	var state domain.EngineState
	f.onLoop(t, func() { state = f.engine.State() })
	return state
}

func TestPlaybackEngine_LoadAndPlay(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.resolver.SetDuration("a.mp3", 4*time.Minute)

	var session domain.PlaybackSession
	f.onLoop(t, func() {
		f.engine.Load(testEntry("a"), true)
		session = f.engine.Session()
	})
	assert.Equal(t, domain.EngineLoading, session.State)
	assert.True(t, session.IsPlaying, "autoplay load counts as playing")
	assert.Equal(t, 3*time.Minute, session.TotalDuration, "duration hint until media resolves")

	f.waitFor(t, "a", domain.EnginePlaying)
	assert.Equal(t, 4*time.Minute, f.snapshot().Session.TotalDuration)

	loaded, ok := f.events.last(domain.EventTrackLoaded).(domain.TrackLoadedEvent)
	require.True(t, ok)
	assert.Equal(t, "a", loaded.Entry.TrackID)
	assert.Equal(t, 4*time.Minute, loaded.Duration)
	assert.Equal(t, 1, f.events.count(domain.EventTrackStarted))
}

func TestPlaybackEngine_LoadCued(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.onLoop(t, func() { f.engine.Load(testEntry("a"), false) })
	f.waitFor(t, "a", domain.EnginePaused)

	assert.True(t, f.output.IsPaused())
	assert.Equal(t, 0, f.events.count(domain.EventTrackStarted))
	assert.Equal(t, 1, f.events.count(domain.EventTrackPaused))
}

func TestPlaybackEngine_PauseResumeWhileLoading(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.resolver.SetDelay("a.mp3", 50*time.Millisecond)
	f.onLoop(t, func() {
		f.engine.Load(testEntry("a"), true)
		assert.NoError(t, f.engine.Pause())
	})
	f.waitFor(t, "a", domain.EnginePaused)

	f.resolver.SetDelay("b.mp3", 50*time.Millisecond)
	f.onLoop(t, func() {
		f.engine.Load(testEntry("b"), false)
		assert.NoError(t, f.engine.Resume())
	})
	f.waitFor(t, "b", domain.EnginePlaying)
}

func TestPlaybackEngine_StaleLoadDropped(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.resolver.SetDelay("slow.mp3", 100*time.Millisecond)
	f.onLoop(t, func() {
		f.engine.Load(testEntry("slow"), true)
		f.engine.Load(testEntry("fast"), true)
	})
	f.waitFor(t, "fast", domain.EnginePlaying)

	// Give the slow resolution time to come back and be ignored
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, "fast", f.snapshot().Session.ActiveEntry.TrackID)
	for _, media := range f.output.Started() {
		assert.NotEqual(t, "/library/slow.mp3", media.Location)
	}
}

func TestPlaybackEngine_StopInvalidatesLoad(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.resolver.SetDelay("a.mp3", 50*time.Millisecond)
	f.onLoop(t, func() {
		f.engine.Load(testEntry("a"), true)
		f.engine.Stop()
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, domain.EngineIdle, f.engineState(t))
	assert.Empty(t, f.output.Started())

	stopped, ok := f.events.last(domain.EventTrackStopped).(domain.TrackStoppedEvent)
	require.True(t, ok)
	require.NotNil(t, stopped.Entry)
	assert.Equal(t, "a", stopped.Entry.TrackID)
}

func TestPlaybackEngine_LoadTimeout(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.resolver.SetHang("a.mp3", true)
	f.onLoop(t, func() { f.engine.Load(testEntry("a"), true) })

	require.Eventually(t, func() bool {
		return f.events.count(domain.EventTrackError) == 1
	}, waitTimeout, 5*time.Millisecond)

	failed, ok := f.events.last(domain.EventTrackError).(domain.TrackErrorEvent)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Error, domain.ErrResourceUnreadable)
}

func TestPlaybackEngine_StartFailure(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.output.SetFailStart(true)
	f.onLoop(t, func() { f.engine.Load(testEntry("a"), true) })

	require.Eventually(t, func() bool {
		return f.events.count(domain.EventTrackError) == 1
	}, waitTimeout, 5*time.Millisecond)

	failed, ok := f.events.last(domain.EventTrackError).(domain.TrackErrorEvent)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Error, domain.ErrResourceUnreadable)
}

func TestPlaybackEngine_CompletionSignal(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.onLoop(t, func() { f.engine.Load(testEntry("a"), true) })
	f.waitFor(t, "a", domain.EnginePlaying)

	require.NoError(t, f.output.SimulateEnd())
	require.Eventually(t, func() bool {
		return f.events.count(domain.EventTrackCompleted) == 1
	}, waitTimeout, 5*time.Millisecond)

	completed, ok := f.events.last(domain.EventTrackCompleted).(domain.TrackCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "a", completed.Entry.TrackID)
	assert.Equal(t, domain.EngineIdle, f.engineState(t))
}

func TestPlaybackEngine_TransportRequiresMedia(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	f.onLoop(t, func() {
		assert.ErrorIs(t, f.engine.Pause(), domain.ErrNoActiveEntry)
		assert.ErrorIs(t, f.engine.Resume(), domain.ErrNoActiveEntry)
		assert.ErrorIs(t, f.engine.SeekTo(time.Second), domain.ErrNoActiveEntry)
		assert.ErrorIs(t, f.engine.SeekFraction(0.2), domain.ErrNoActiveEntry)
		assert.ErrorIs(t, f.engine.Restart(), domain.ErrNoActiveEntry)
		assert.ErrorIs(t, f.engine.SeekFraction(2), domain.ErrInvalidPosition)
		assert.Equal(t, time.Duration(0), f.engine.Elapsed())
	})
}

func TestPlaybackEngine_StateEvents(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	var transitions []domain.EngineState
	f.bus.Subscribe(domain.EventEngineState, func(e domain.Event) {
		transitions = append(transitions, e.(domain.EngineStateChangedEvent).To)
	})

	f.onLoop(t, func() { f.engine.Load(testEntry("a"), true) })
	f.waitFor(t, "a", domain.EnginePlaying)
	f.onLoop(t, func() {
		assert.NoError(t, f.engine.Pause())
		assert.NoError(t, f.engine.Resume())
		f.engine.Stop()
	})

	var got []domain.EngineState
	f.onLoop(t, func() { got = append(got, transitions...) })
	assert.Equal(t, []domain.EngineState{
		domain.EngineLoading,
		domain.EnginePlaying,
		domain.EnginePaused,
		domain.EnginePlaying,
		domain.EngineIdle,
	}, got)
}
