// Package mock provides a recording NowPlayingSurface for tests.
package mock

import (
	"sync"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// Surface records every update and lets tests send remote commands.
//
// Thread-safety: This implementation is thread-safe.
type Surface struct {
	mu      sync.Mutex
	updates []domain.NowPlayingInfo
	clears  int
	handler ports.RemoteCommandHandler
	closed  bool
}

// NewSurface creates a new recording surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Update records info.
func (s *Surface) Update(info domain.NowPlayingInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, info)
	return nil
}

// Clear records a clear.
func (s *Surface) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	return nil
}

// SetCommandHandler stores the handler used by Send.
func (s *Surface) SetCommandHandler(handler ports.RemoteCommandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Close marks the surface closed.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Send delivers cmd to the handler as the OS would (for testing).
// It reports false if no handler is set.
func (s *Surface) Send(cmd domain.RemoteCommand) bool {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		return false
	}
	handler(cmd)
	return true
}

// Last returns the most recent update (for testing).
func (s *Surface) Last() (domain.NowPlayingInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return domain.NowPlayingInfo{}, false
	}
	return s.updates[len(s.updates)-1], true
}

// Updates returns the number of updates received (for testing).
func (s *Surface) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

// Clears returns the number of clears received (for testing).
func (s *Surface) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// Closed reports whether Close was called (for testing).
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Verify that Surface implements the NowPlayingSurface interface
var _ ports.NowPlayingSurface = (*Surface)(nil)
