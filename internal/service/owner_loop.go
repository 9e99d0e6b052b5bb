package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
)

// OwnerLoop serialises all playback state changes onto a single goroutine.
// Tasks run one at a time in submission order; the queue is unbounded so
// Post never blocks the caller.
//
// Tasks must not call Do on the loop they run on: that would wait for itself.
// Use Post to schedule follow-up work from inside a task.
type OwnerLoop struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []func()
	closed  bool

	wake chan struct{}
	done chan struct{}

	running atomic.Bool
}

// NewOwnerLoop creates and starts an owner loop.
func NewOwnerLoop(logger *slog.Logger) *OwnerLoop {
	l := &OwnerLoop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

// Post schedules fn to run on the loop and returns immediately.
// It reports false if the loop is closed and fn was dropped.
func (l *OwnerLoop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	// Signal under the lock so Close cannot close wake in between.
	select {
	case l.wake <- struct{}{}:
	default:
	}
	l.mu.Unlock()
	return true
}

// Task states for Do.
const (
	taskPending int32 = iota
	taskRunning
	taskAbandoned
)

// Do runs fn on the loop and waits for it to finish.
//
// If ctx ends before fn starts, fn is skipped and ctx.Err() is returned.
// Once fn has started, Do always waits for it. A panic in fn is recovered
// and returned as an error.
func (l *OwnerLoop) Do(ctx context.Context, fn func()) error {
	var (
		state    atomic.Int32
		finished = make(chan struct{})
		panicked any
	)

	posted := l.Post(func() {
		if !state.CompareAndSwap(taskPending, taskRunning) {
			return
		}
		defer close(finished)
		defer func() { panicked = recover() }()
		fn()
	})
	if !posted {
		return domain.ErrLoopClosed
	}

	select {
	case <-finished:
	case <-ctx.Done():
		if state.CompareAndSwap(taskPending, taskAbandoned) {
			return ctx.Err()
		}
		<-finished
	case <-l.done:
		// The loop drains everything queued before it exits, so the task
		// either ran or was abandoned.
		if state.CompareAndSwap(taskPending, taskAbandoned) {
			return domain.ErrLoopClosed
		}
		<-finished
	}

	if panicked != nil {
		l.logger.Error("owner loop task panicked", slog.Any("panic", panicked))
		return domain.NewServiceError("OwnerLoop", "Do", fmt.Sprintf("task panicked: %v", panicked), nil)
	}
	return nil
}

// Running reports whether the calling code is executing inside a loop task.
// It is meant for assertions in tests, not for deciding between Do and Post.
func (l *OwnerLoop) Running() bool {
	return l.running.Load()
}

// Close stops accepting tasks, runs everything already queued and waits for
// the loop goroutine to exit. Close is idempotent.
func (l *OwnerLoop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.wake)
	}
	l.mu.Unlock()

	<-l.done
}

func (l *OwnerLoop) run() {
	defer close(l.done)

	for {
		_, open := <-l.wake
		for {
			batch := l.take()
			if len(batch) == 0 {
				break
			}
			for _, task := range batch {
				l.runTask(task)
			}
		}
		if !open {
			return
		}
	}
}

func (l *OwnerLoop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch := l.pending
	l.pending = nil
	return batch
}

func (l *OwnerLoop) runTask(task func()) {
	l.running.Store(true)
	defer l.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("owner loop task panicked", slog.Any("panic", r))
		}
	}()
	task()
}
