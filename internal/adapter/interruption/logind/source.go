// Package logind turns systemd-logind suspend notifications into audio
// interruptions. Suspending begins an interruption; waking ends it with a
// resume hint.
package logind

import (
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

const (
	managerPath      = "/org/freedesktop/login1"
	managerInterface = "org.freedesktop.login1.Manager"
	prepareForSleep  = "PrepareForSleep"
)

// Source listens for PrepareForSleep on the system bus.
//
// Thread-safety: This implementation is thread-safe via sync.Mutex.
type Source struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn
	signals chan *dbus.Signal
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSource creates a source. Nothing connects until Start.
func NewSource(logger *slog.Logger) *Source {
	return &Source{logger: logger}
}

// Start connects to the system bus and delivers interruptions to handler.
func (s *Source) Start(handler ports.InterruptionHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return domain.ErrAlreadyInitialized
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Wrap(err, "connect to system bus")
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(managerPath),
		dbus.WithMatchInterface(managerInterface),
		dbus.WithMatchMember(prepareForSleep),
	); err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "add PrepareForSleep match")
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	s.conn = conn
	s.signals = signals
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.listen(signals, s.done, handler)

	s.logger.Debug("listening for suspend notifications")
	return nil
}

// listen delivers signals until done is closed.
func (s *Source) listen(signals <-chan *dbus.Signal, done <-chan struct{}, handler ports.InterruptionHandler) {
	defer s.wg.Done()

	for {
		var sig *dbus.Signal
		select {
		case <-done:
			return
		case received, open := <-signals:
			if !open {
				return
			}
			sig = received
		}

		interruption, ok := interruptionOf(sig)
		if !ok {
			continue
		}
		s.logger.Info("audio interruption",
			slog.Bool("began", interruption.Began),
			slog.Bool("should_resume", interruption.ShouldResume))
		handler(interruption)
	}
}

// interruptionOf maps a PrepareForSleep signal. The argument is true before
// suspending and false after waking.
func interruptionOf(sig *dbus.Signal) (domain.Interruption, bool) {
	if sig == nil || sig.Name != managerInterface+"."+prepareForSleep || len(sig.Body) < 1 {
		return domain.Interruption{}, false
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		return domain.Interruption{}, false
	}
	if sleeping {
		return domain.Interruption{Began: true}, true
	}
	return domain.Interruption{ShouldResume: true}, true
}

// Close stops listening and waits for the delivery goroutine.
func (s *Source) Close() error {
	s.mu.Lock()
	conn := s.conn
	signals := s.signals
	done := s.done
	s.conn = nil
	s.signals = nil
	s.done = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	close(done)
	s.wg.Wait()

	conn.RemoveSignal(signals)
	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "close system bus connection")
	}
	return nil
}

// Verify that Source implements the InterruptionSource interface
var _ ports.InterruptionSource = (*Source)(nil)
