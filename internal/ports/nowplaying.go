package ports

import (
	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

// RemoteCommandHandler receives transport commands from the OS media controls.
// It is called from the surface's own goroutine.
type RemoteCommandHandler func(cmd domain.RemoteCommand)

// NowPlayingSurface is the OS-level now-playing display and remote control target
// (MPRIS on Linux desktops).
type NowPlayingSurface interface {
	// Update replaces the displayed metadata and playback status.
	Update(info domain.NowPlayingInfo) error

	// Clear removes the displayed metadata.
	Clear() error

	// SetCommandHandler installs the receiver for remote commands. A nil handler
	// disables remote commands.
	SetCommandHandler(handler RemoteCommandHandler)

	// Close releases the surface.
	Close() error
}

// InterruptionHandler receives audio interruption notifications.
type InterruptionHandler func(interruption domain.Interruption)

// InterruptionSource delivers system audio interruptions such as suspend and resume.
type InterruptionSource interface {
	// Start begins delivering interruptions to handler until Close is called.
	Start(handler InterruptionHandler) error

	// Close stops delivery and waits for the delivery goroutine to exit.
	Close() error
}
