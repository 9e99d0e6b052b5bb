//go:build (linux && cgo) || windows || darwin

// NOTE: These tests need a working sound device. They are skipped when the
// speaker cannot be opened, which is the usual case in CI containers.
package beep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/logger"
)

const testRate = 8000

// writeSilence writes a mono WAV file of the given length.
func writeSilence(t *testing.T, length time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silence.wav")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := gobeep.Format{SampleRate: testRate, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, gobeep.Take(format.SampleRate.N(length), gobeep.Silence(-1)), format))
	return path
}

// newInitializedOutput opens the speaker or skips the test.
func newInitializedOutput(t *testing.T) *Output {
	t.Helper()
	output := NewOutput(logger.NewTestLogger())
	if err := output.Initialize(testRate); err != nil {
		t.Skipf("no sound device: %v", err)
	}
	t.Cleanup(func() { _ = output.Shutdown() })
	return output
}

func TestOutput_ShutdownNotInitialized(t *testing.T) {
	output := NewOutput(logger.NewTestLogger())
	assert.ErrorIs(t, output.Shutdown(), domain.ErrNotInitialized)
	assert.ErrorIs(t, output.Start(domain.MediaHandle{}, false, nil), domain.ErrNotInitialized)
}

func TestOutput_InitializeTwice(t *testing.T) {
	output := newInitializedOutput(t)
	assert.True(t, output.IsInitialized())
	assert.ErrorIs(t, output.Initialize(testRate), domain.ErrAlreadyInitialized)
}

func TestOutput_StartMissingFile(t *testing.T) {
	output := newInitializedOutput(t)

	err := output.Start(domain.MediaHandle{Location: "/nonexistent/file.wav"}, false, nil)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestOutput_PauseSeekStop(t *testing.T) {
	output := newInitializedOutput(t)
	path := writeSilence(t, 2*time.Second)

	require.NoError(t, output.Start(domain.MediaHandle{Location: path}, true, nil))
	require.NoError(t, output.Seek(time.Second))
	assert.Equal(t, time.Second, output.Position())
	assert.ErrorIs(t, output.Seek(10*time.Second), domain.ErrInvalidPosition)

	require.NoError(t, output.Resume())
	require.NoError(t, output.Pause())
	require.NoError(t, output.Stop())

	assert.Equal(t, time.Duration(0), output.Position())
	assert.ErrorIs(t, output.Pause(), domain.ErrNoActiveEntry)
}

func TestOutput_EndCallback(t *testing.T) {
	output := newInitializedOutput(t)
	path := writeSilence(t, 100*time.Millisecond)

	ended := make(chan struct{})
	require.NoError(t, output.Start(domain.MediaHandle{Location: path}, false, func() { close(ended) }))

	select {
	case <-ended:
	case <-time.After(3 * time.Second):
		t.Fatal("end callback not called")
	}
	assert.ErrorIs(t, output.Pause(), domain.ErrNoActiveEntry)
}
