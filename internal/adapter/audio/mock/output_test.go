package mock

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

func testMedia(name string) domain.MediaHandle {
	return domain.MediaHandle{Location: "/music/" + name + ".mp3", Format: "mp3", Duration: 3 * time.Minute}
}

// TestNewOutput tests creating a new mock output.
func TestNewOutput(t *testing.T) {
	output := NewOutput()

	if output.IsInitialized() {
		t.Error("New output should not be initialized")
	}
	if _, ok := output.Current(); ok {
		t.Error("New output should have no stream")
	}
}

// TestInitialize tests output initialization.
func TestInitialize(t *testing.T) {
	output := NewOutput()

	if err := output.Initialize(44100); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !output.IsInitialized() {
		t.Error("Output should be initialized")
	}

	err := output.Initialize(44100)
	if !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

// TestInitializeFailure tests the failure toggle.
func TestInitializeFailure(t *testing.T) {
	output := NewOutput()
	output.SetFailInitialize(true)

	err := output.Initialize(44100)
	var audioErr *domain.AudioEngineError
	if !errors.As(err, &audioErr) {
		t.Fatalf("Expected AudioEngineError, got %v", err)
	}
	if output.IsInitialized() {
		t.Error("Output should not be initialized after failure")
	}
}

// TestShutdownDropsStream tests that Shutdown discards the stream.
func TestShutdownDropsStream(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)

	if err := output.Start(testMedia("a"), false, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := output.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if _, ok := output.Current(); ok {
		t.Error("Expected no stream after shutdown")
	}
	if err := output.Shutdown(); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

// TestStartRequiresInitialize tests Start before Initialize.
func TestStartRequiresInitialize(t *testing.T) {
	output := NewOutput()

	err := output.Start(testMedia("a"), false, nil)
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

// TestStartFailure tests that a failed start reports an unreadable resource.
func TestStartFailure(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)
	output.SetFailStart(true)

	err := output.Start(testMedia("a"), false, nil)
	if !errors.Is(err, domain.ErrResourceUnreadable) {
		t.Errorf("Expected ErrResourceUnreadable, got %v", err)
	}
	if len(output.Started()) != 0 {
		t.Error("Failed start should not be recorded")
	}
}

// TestPauseResume tests pausing and resuming the stream.
func TestPauseResume(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)

	if err := output.Pause(); !errors.Is(err, domain.ErrNoActiveEntry) {
		t.Errorf("Expected ErrNoActiveEntry without stream, got %v", err)
	}

	_ = output.Start(testMedia("a"), true, nil)
	if !output.IsPaused() {
		t.Error("Cued stream should start paused")
	}

	if err := output.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if output.IsPaused() {
		t.Error("Stream should be playing after Resume")
	}

	if err := output.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if !output.IsPaused() {
		t.Error("Stream should be paused after Pause")
	}
}

// TestSeek tests seeking within the stream.
func TestSeek(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)
	_ = output.Start(testMedia("a"), false, nil)

	if err := output.Seek(30 * time.Second); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if output.Position() != 30*time.Second {
		t.Errorf("Expected position 30s, got %v", output.Position())
	}

	if err := output.Seek(-time.Second); !errors.Is(err, domain.ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition, got %v", err)
	}
	if err := output.Seek(4 * time.Minute); !errors.Is(err, domain.ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition, got %v", err)
	}
}

// TestStopDoesNotFireEnd tests that stopping never calls the end callback.
func TestStopDoesNotFireEnd(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)

	var ended int32
	_ = output.Start(testMedia("a"), false, func() { atomic.AddInt32(&ended, 1) })
	_ = output.Stop()

	if output.Position() != 0 {
		t.Errorf("Expected zero position without stream, got %v", output.Position())
	}
	if err := output.SimulateEnd(); !errors.Is(err, domain.ErrNoActiveEntry) {
		t.Errorf("Expected ErrNoActiveEntry, got %v", err)
	}
	if atomic.LoadInt32(&ended) != 0 {
		t.Error("End callback fired for a stopped stream")
	}
}

// TestSimulateProgressToEnd tests that playing out fires the end callback once.
func TestSimulateProgressToEnd(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)

	var ended int32
	_ = output.Start(testMedia("a"), false, func() { atomic.AddInt32(&ended, 1) })

	if err := output.SimulateProgress(time.Minute); err != nil {
		t.Fatalf("SimulateProgress failed: %v", err)
	}
	if output.Position() != time.Minute {
		t.Errorf("Expected position 1m, got %v", output.Position())
	}
	if err := output.SimulateProgress(5 * time.Minute); err != nil {
		t.Fatalf("SimulateProgress failed: %v", err)
	}

	if atomic.LoadInt32(&ended) != 1 {
		t.Errorf("Expected end callback once, got %d", ended)
	}
	if _, ok := output.Current(); ok {
		t.Error("Stream should be dropped after it ends")
	}
}

// TestSimulateProgressWhilePaused tests that paused streams do not advance.
func TestSimulateProgressWhilePaused(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)
	_ = output.Start(testMedia("a"), true, nil)

	if err := output.SimulateProgress(time.Second); err == nil {
		t.Error("Expected error when progressing a paused stream")
	}
}

// TestStartReplacesStream tests that a new Start replaces the old stream silently.
func TestStartReplacesStream(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)

	var firstEnded int32
	_ = output.Start(testMedia("a"), false, func() { atomic.AddInt32(&firstEnded, 1) })
	_ = output.Start(testMedia("b"), false, nil)

	current, ok := output.Current()
	if !ok || current.Location != "/music/b.mp3" {
		t.Errorf("Expected b to be current, got %+v", current)
	}
	if len(output.Started()) != 2 {
		t.Errorf("Expected 2 started streams, got %d", len(output.Started()))
	}
	_ = output.SimulateEnd()
	if atomic.LoadInt32(&firstEnded) != 0 {
		t.Error("Replaced stream's end callback fired")
	}
}

// TestConcurrentAccess tests the output under concurrent use.
func TestConcurrentAccess(t *testing.T) {
	output := NewOutput()
	_ = output.Initialize(44100)
	_ = output.Start(testMedia("a"), false, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 4 {
				case 0:
					_ = output.Pause()
				case 1:
					_ = output.Resume()
				case 2:
					_ = output.Seek(time.Duration(j) * time.Second)
				default:
					_ = output.Position()
				}
			}
		}(i)
	}
	wg.Wait()
}
