// Package filelock provides advisory file locking for coordinating
// processes that share files in the board directory (session, activity log).
package filelock

import (
	"context"
	"os"
	"time"
)

const (
	lockFileMode  = 0o600
	retryInterval = 2 * time.Millisecond
	maxRetryDelay = 50 * time.Millisecond
)

// Lock acquires an exclusive advisory lock on the file at path, waiting
// as long as another process holds it.
func Lock(path string) (unlock func() error, err error) {
	return LockContext(context.Background(), path)
}

// LockContext acquires an exclusive advisory lock on the file at path,
// creating it if needed. It polls with backoff until the lock is free or
// ctx is done. The returned function releases the lock.
func LockContext(ctx context.Context, path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // path inside the board dir
	if err != nil {
		return nil, err
	}

	delay := retryInterval
	for {
		ok, err := tryLock(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay) //nolint:mnd // exponential backoff
	}

	return func() error {
		unlockErr := unlockFile(f)
		if closeErr := f.Close(); unlockErr == nil {
			return closeErr
		}
		return unlockErr
	}, nil
}

// With runs fn while holding the lock at path.
func With(path string, fn func() error) error {
	unlock, err := Lock(path)
	if err != nil {
		return err
	}
	fnErr := fn()
	if err := unlock(); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}
