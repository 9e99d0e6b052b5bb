// Package mock provides an in-memory MediaResolver for tests.
package mock

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

// DefaultDuration is reported for paths without an explicit duration.
const DefaultDuration = 3 * time.Minute

// Resolver resolves every path unless told otherwise.
// Paths can be marked missing, unreadable, slow or hanging.
type Resolver struct {
	mu        sync.Mutex
	durations map[string]time.Duration
	failures  map[string]error
	delays    map[string]time.Duration
	hang      map[string]bool
	calls     []string
}

// NewResolver creates a resolver that succeeds for every path.
func NewResolver() *Resolver {
	return &Resolver{
		durations: make(map[string]time.Duration),
		failures:  make(map[string]error),
		delays:    make(map[string]time.Duration),
		hang:      make(map[string]bool),
	}
}

// SetDuration sets the duration reported for path.
func (r *Resolver) SetDuration(path string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[path] = d
}

// SetMissing makes path resolve to domain.ErrResourceNotFound.
func (r *Resolver) SetMissing(path string) {
	r.SetFailure(path, domain.ErrResourceNotFound)
}

// SetUnreadable makes path resolve to domain.ErrResourceUnreadable.
func (r *Resolver) SetUnreadable(path string) {
	r.SetFailure(path, domain.ErrResourceUnreadable)
}

// SetFailure makes path resolve to err. A nil err clears the failure.
func (r *Resolver) SetFailure(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, path)
		return
	}
	r.failures[path] = err
}

// SetDelay makes resolving path take d.
func (r *Resolver) SetDelay(path string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays[path] = d
}

// SetHang makes resolving path block until the context is done.
func (r *Resolver) SetHang(path string, hang bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hang[path] = hang
}

// Calls returns the resolved paths in call order.
func (r *Resolver) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Resolve returns a handle for path or the configured failure.
func (r *Resolver) Resolve(ctx context.Context, path string) (domain.MediaHandle, error) {
	r.mu.Lock()
	r.calls = append(r.calls, path)
	failure := r.failures[path]
	delay := r.delays[path]
	hang := r.hang[path]
	duration, ok := r.durations[path]
	r.mu.Unlock()

	if hang {
		<-ctx.Done()
		return domain.MediaHandle{}, ctx.Err()
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.MediaHandle{}, ctx.Err()
		}
	}
	if failure != nil {
		return domain.MediaHandle{}, fmt.Errorf("%w: %s", failure, path)
	}
	if !ok {
		duration = DefaultDuration
	}

	return domain.MediaHandle{
		Location: "/library/" + path,
		Format:   strings.TrimPrefix(filepath.Ext(path), "."),
		Duration: duration,
	}, nil
}

// DurationOf returns the configured duration for path.
func (r *Resolver) DurationOf(path string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, failed := r.failures[path]; failed {
		return 0, false
	}
	if d, ok := r.durations[path]; ok {
		return d, true
	}
	return DefaultDuration, true
}

// Verify that Resolver implements the MediaResolver interface
var _ ports.MediaResolver = (*Resolver)(nil)
