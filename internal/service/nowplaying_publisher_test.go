package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interruptionmock "github.com/tejashwikalptaru/nowplaying/internal/adapter/interruption/mock"
	nowplayingmock "github.com/tejashwikalptaru/nowplaying/internal/adapter/nowplaying/mock"
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/logger"
	"github.com/tejashwikalptaru/nowplaying/internal/testutil"
)

// Helper to create a started publisher on top of a fixture
func newTestPublisher(t *testing.T, f *fixture) (*NowPlayingPublisher, *nowplayingmock.Surface, *interruptionmock.Source) {
	t.Helper()
	surface := nowplayingmock.NewSurface()
	source := interruptionmock.NewSource()

	publisher := NewNowPlayingPublisher(logger.NewTestLogger(), f.loop, f.engine, f.coord, f.bus, surface,
		PublisherConfig{RefreshInterval: 10 * time.Millisecond})
	require.NoError(t, publisher.Start(source))
	return publisher, surface, source
}

func waitStatus(t *testing.T, surface *nowplayingmock.Surface, trackID string, status domain.PlaybackStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		info, ok := surface.Last()
		return ok && info.TrackID == trackID && info.Status == status
	}, waitTimeout, 5*time.Millisecond, "expected %s to be %s", trackID, status)
}

func TestNowPlayingPublisher_MirrorsSession(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, _ := newTestPublisher(t, f)
	defer publisher.Shutdown()

	entry := testEntry("a")
	entry.ArtworkRef = "file:///library/cover.jpg"
	require.NoError(t, f.coord.PlaySingleEntry(entry))
	waitStatus(t, surface, "a", domain.StatusPlaying)

	info, _ := surface.Last()
	assert.Equal(t, "Song a", info.Title)
	assert.Equal(t, "Test Artist", info.Artist)
	assert.Equal(t, "file:///library/cover.jpg", info.ArtworkRef)
	assert.Equal(t, 3*time.Minute, info.Duration)

	require.NoError(t, f.coord.Pause())
	waitStatus(t, surface, "a", domain.StatusPaused)

	require.NoError(t, f.coord.Stop())
	assert.Equal(t, 1, surface.Clears())
}

func TestNowPlayingPublisher_RefreshesElapsedWhilePlaying(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, _ := newTestPublisher(t, f)
	defer publisher.Shutdown()

	require.NoError(t, f.coord.PlaySingleEntry(testEntry("a")))
	f.waitFor(t, "a", domain.EnginePlaying)
	waitStatus(t, surface, "a", domain.StatusPlaying)

	require.NoError(t, f.output.SimulateProgress(30*time.Second))
	require.Eventually(t, func() bool {
		info, ok := surface.Last()
		return ok && info.Elapsed == 30*time.Second
	}, waitTimeout, 5*time.Millisecond)
}

func TestNowPlayingPublisher_PendingLoadIsNotPlaying(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, _ := newTestPublisher(t, f)
	defer publisher.Shutdown()

	// The load never completes and times out
	f.resolver.SetHang("a.mp3", true)
	require.NoError(t, f.coord.PlaySingleEntry(testEntry("a")))

	require.Eventually(t, func() bool {
		info, ok := surface.Last()
		return ok && info.TrackID == "a"
	}, waitTimeout, 5*time.Millisecond)

	info, _ := surface.Last()
	assert.Equal(t, domain.StatusPaused, info.Status)
	assert.Never(t, func() bool {
		info, _ := surface.Last()
		return info.Status == domain.StatusPlaying
	}, 300*time.Millisecond, 10*time.Millisecond)
}

func TestNowPlayingPublisher_RemoteCommands(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, _ := newTestPublisher(t, f)
	defer publisher.Shutdown()

	entries := testEntries("a", "b", "c")
	require.NoError(t, f.coord.StartQueue(entries[0], entries, "Album"))
	waitStatus(t, surface, "a", domain.StatusPlaying)

	require.True(t, surface.Send(domain.RemoteCommand{Kind: domain.CommandNext}))
	waitStatus(t, surface, "b", domain.StatusPlaying)

	surface.Send(domain.RemoteCommand{Kind: domain.CommandTogglePlayPause})
	waitStatus(t, surface, "b", domain.StatusPaused)

	surface.Send(domain.RemoteCommand{Kind: domain.CommandPlay})
	waitStatus(t, surface, "b", domain.StatusPlaying)

	surface.Send(domain.RemoteCommand{Kind: domain.CommandSeek, Position: 45 * time.Second})
	assert.Equal(t, 45*time.Second, f.output.Position())

	surface.Send(domain.RemoteCommand{Kind: domain.CommandPause})
	waitStatus(t, surface, "b", domain.StatusPaused)

	surface.Send(domain.RemoteCommand{Kind: domain.CommandPrevious})
	waitStatus(t, surface, "b", domain.StatusPlaying)

	surface.Send(domain.RemoteCommand{Kind: domain.CommandPrevious})
	waitStatus(t, surface, "a", domain.StatusPlaying)

	surface.Send(domain.RemoteCommand{Kind: domain.CommandStop})
	f.waitIdle(t)
}

func TestNowPlayingPublisher_InterruptionResumesOwnPause(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, source := newTestPublisher(t, f)
	defer publisher.Shutdown()

	require.NoError(t, f.coord.PlaySingleEntry(testEntry("a")))
	f.waitFor(t, "a", domain.EnginePlaying)
	waitStatus(t, surface, "a", domain.StatusPlaying)

	source.Begin()
	assert.Equal(t, domain.EnginePaused, f.snapshot().Session.State)

	source.End(true)
	assert.Equal(t, domain.EnginePlaying, f.snapshot().Session.State)
}

func TestNowPlayingPublisher_InterruptionKeepsUserPause(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, source := newTestPublisher(t, f)
	defer publisher.Shutdown()

	require.NoError(t, f.coord.PlaySingleEntry(testEntry("a")))
	f.waitFor(t, "a", domain.EnginePlaying)
	waitStatus(t, surface, "a", domain.StatusPlaying)
	require.NoError(t, f.coord.Pause())

	source.Begin()
	source.End(true)
	assert.Equal(t, domain.EnginePaused, f.snapshot().Session.State)
}

func TestNowPlayingPublisher_InterruptionWithoutResumeHint(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, source := newTestPublisher(t, f)
	defer publisher.Shutdown()

	require.NoError(t, f.coord.PlaySingleEntry(testEntry("a")))
	f.waitFor(t, "a", domain.EnginePlaying)
	waitStatus(t, surface, "a", domain.StatusPlaying)

	source.Begin()
	source.End(false)
	assert.Equal(t, domain.EnginePaused, f.snapshot().Session.State)

	// A later resume hint must not resume a pause the user now owns
	source.End(true)
	assert.Equal(t, domain.EnginePaused, f.snapshot().Session.State)
}

func TestNowPlayingPublisher_InterruptionsWithoutSurface(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)

	source := interruptionmock.NewSource()
	publisher := NewNowPlayingPublisher(logger.NewTestLogger(), f.loop, f.engine, f.coord, f.bus, nil,
		PublisherConfig{RefreshInterval: 10 * time.Millisecond})
	require.NoError(t, publisher.Start(source))

	require.NoError(t, f.coord.PlaySingleEntry(testEntry("a")))
	f.waitFor(t, "a", domain.EnginePlaying)

	source.Begin()
	assert.Equal(t, domain.EnginePaused, f.snapshot().Session.State)

	source.End(true)
	assert.Equal(t, domain.EnginePlaying, f.snapshot().Session.State)

	require.NoError(t, publisher.Shutdown())
	assert.True(t, source.Closed())
}

func TestNowPlayingPublisher_Shutdown(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)
	f := newFixture(t)
	defer f.close(t)
	publisher, surface, source := newTestPublisher(t, f)

	assert.ErrorIs(t, publisher.Start(source), domain.ErrAlreadyInitialized)

	require.NoError(t, publisher.Shutdown())
	assert.True(t, source.Closed())
	assert.False(t, surface.Send(domain.RemoteCommand{Kind: domain.CommandNext}))

	// No updates after shutdown
	updates := surface.Updates()
	require.NoError(t, f.coord.PlaySingleEntry(testEntry("a")))
	f.waitFor(t, "a", domain.EnginePlaying)
	assert.Equal(t, updates, surface.Updates())

	require.NoError(t, publisher.Shutdown())
}
