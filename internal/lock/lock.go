// internal/lock/lock.go
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xkilldash9x/wxauto/internal/observability"
	"go.uber.org/zap"
)

// ErrClosed is returned by Do once the lock has been closed.
var ErrClosed = errors.New("actor lock is closed")

// Options configures an ActorLock.
type Options struct {
	// FilePath is the lock file shared by every process automating the same
	// application. Empty disables the inter-process tier.
	FilePath string
}

// ActorLock serializes every interaction with the shared UI actor. It nests
// three tiers: a semaphore bound to the caller's concurrency Domain (when the
// context carries one), an in-process lock, and an inter-process file lock.
//
// Re-entrancy is carried by context: the context handed to the protected
// function marks the caller as the holder, and a nested Do with that context
// runs inline instead of deadlocking.
type ActorLock struct {
	logger  *zap.Logger
	metrics *observability.Metrics

	// local is the in-process tier; a buffered channel so waits can be cancelled.
	local chan struct{}

	file     fileLock
	filePath string

	// domainMu guards the domain tier binding.
	domainMu sync.Mutex
	domain   *domainLock

	// owner is the token of the current outermost holder, 0 when free.
	owner   atomic.Uint64
	nextTok atomic.Uint64
	closed  atomic.Bool
}

type holderKey struct{ l *ActorLock }

// New creates an ActorLock. The lock file is opened lazily on first use.
func New(opts Options, logger *zap.Logger, metrics *observability.Metrics) *ActorLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActorLock{
		logger:   logger.Named("actor_lock"),
		metrics:  metrics,
		local:    make(chan struct{}, 1),
		filePath: opts.FilePath,
	}
}

// Held reports whether ctx was produced by this lock for its current holder.
func (l *ActorLock) Held(ctx context.Context) bool {
	tok, ok := ctx.Value(holderKey{l}).(uint64)
	return ok && tok != 0 && l.owner.Load() == tok
}

// Do runs fn while holding every tier of the lock. The lock is released on
// every exit path; a panic inside fn is re-raised after release. Acquisition
// waits until the lock is free or ctx is done.
//
// Re-entry is keyed on the ctx passed to fn: any Do call made with it runs
// inline. That ctx must not be handed to goroutines that run concurrently
// with fn, or they would touch the UI alongside the holder; derive their
// context from one that was not produced by the lock.
func (l *ActorLock) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.Held(ctx) {
		return fn(ctx)
	}
	if l.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	l.metrics.RecordLockWait(time.Since(start))

	tok := l.nextTok.Add(1)
	l.owner.Store(tok)
	held := time.Now()
	defer func() {
		l.owner.Store(0)
		release()
		l.metrics.RecordLockHeld(time.Since(held))
	}()

	return fn(context.WithValue(ctx, holderKey{l}, tok))
}

// Run is Do for functions that produce a value.
func Run[T any](ctx context.Context, l *ActorLock, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// acquire takes the tiers outermost first and returns a release func that
// unwinds them in reverse order.
func (l *ActorLock) acquire(ctx context.Context) (func(), error) {
	var releases []func()
	unwind := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	if d := DomainFrom(ctx); d != nil {
		dl := l.domainTier(d)
		if err := dl.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquiring domain tier: %w", err)
		}
		releases = append(releases, func() { dl.sem.Release(1) })
	}

	select {
	case l.local <- struct{}{}:
		releases = append(releases, func() { <-l.local })
	case <-ctx.Done():
		unwind()
		return nil, fmt.Errorf("acquiring process tier: %w", ctx.Err())
	}

	if l.filePath != "" {
		if err := l.lockFile(ctx); err != nil {
			unwind()
			return nil, fmt.Errorf("acquiring inter-process tier: %w", err)
		}
		releases = append(releases, func() {
			if err := l.file.unlock(); err != nil {
				l.logger.Warn("Failed to release lock file.", zap.String("path", l.filePath), zap.Error(err))
			}
		})
	}

	return unwind, nil
}

// lockFile takes the file tier. Callers hold the process tier, so l.file is
// only touched by one goroutine at a time.
func (l *ActorLock) lockFile(ctx context.Context) error {
	if l.file == nil {
		f, err := openFileLock(l.filePath)
		if err != nil {
			return err
		}
		l.file = f
	}
	for {
		ok, err := l.file.tryLock()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-time.After(fileRetryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

const fileRetryInterval = 10 * time.Millisecond

// Close releases the lock file handle. Do fails with ErrClosed afterwards.
// Close waits for the current holder, if any.
func (l *ActorLock) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.local <- struct{}{}
	defer func() { <-l.local }()
	if l.file == nil {
		return nil
	}
	return l.file.close()
}

// fileLock is the platform specific inter-process tier.
type fileLock interface {
	tryLock() (bool, error)
	unlock() error
	close() error
}
