// Package mock provides a manually driven InterruptionSource for tests.
package mock

import (
	"sync"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// Source delivers interruptions when a test calls Begin or End.
type Source struct {
	mu      sync.Mutex
	handler ports.InterruptionHandler
	closed  bool
}

// NewSource creates a new interruption source.
func NewSource() *Source {
	return &Source{}
}

// Start stores the handler.
func (s *Source) Start(handler ports.InterruptionHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler != nil {
		return domain.ErrAlreadyInitialized
	}
	s.handler = handler
	return nil
}

// Close drops the handler.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
	s.closed = true
	return nil
}

// Begin signals the start of an interruption (for testing).
func (s *Source) Begin() {
	s.deliver(domain.Interruption{Began: true})
}

// End signals the end of an interruption (for testing).
func (s *Source) End(shouldResume bool) {
	s.deliver(domain.Interruption{ShouldResume: shouldResume})
}

// Closed reports whether Close was called (for testing).
func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Source) deliver(interruption domain.Interruption) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(interruption)
	}
}

// Verify that Source implements the InterruptionSource interface
var _ ports.InterruptionSource = (*Source)(nil)
