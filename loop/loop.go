// Package loop provides the single logical thread the synchronizer runs on.
//
// Components never block: work that must happen "on the next tick" is
// handed to a [Scheduler] with Defer. [Loop] runs deferred tasks on one
// goroutine in FIFO order; [Manual] queues them until the caller runs them,
// which makes tick boundaries observable in tests.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrClosed = errors.New("loop closed")

// Scheduler defers tasks. Defer must not block and must not run fn before
// returning.
type Scheduler interface {
	Defer(fn func())
}

type Config struct {
	Log *slog.Logger
}

// Loop runs deferred tasks in order on the goroutine calling Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
	once   sync.Once
	log    *slog.Logger
}

func New(cfg *Config) *Loop {
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log.With("component", "loop"),
	}
}

// Defer queues fn. Tasks deferred after Close are dropped.
func (l *Loop) Defer(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	l.Defer(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes tasks until ctx is cancelled or the loop is closed. Tasks
// still queued when Close is called are run before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.pop()
			if !ok {
				break
			}
			fn()
		}
		select {
		case <-ctx.Done():
			l.log.Debug("loop cancelled", "err", ctx.Err())
			return ctx.Err()
		case <-l.done:
			for {
				fn, ok := l.pop()
				if !ok {
					return nil
				}
				fn()
			}
		case <-l.wake:
		}
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// Close stops accepting tasks and makes Run return once the queue drains.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.done)
	})
}
