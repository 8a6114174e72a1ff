package git

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// lockWait bounds how long a command waits for another git process to
// release the index or a ref lock. Editors and IDEs running git status in
// the background hold index.lock for short moments.
const lockWait = 5 * time.Second

func newLockBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = lockWait
	return bo
}

// IsLockContention reports whether err is git refusing to run because a lock
// file is held by another process.
func IsLockContention(err error) bool {
	var gerr *Error
	if !errors.As(err, &gerr) {
		return false
	}
	return strings.Contains(gerr.Stderr, ".lock': File exists")
}

// withLockRetry runs op until it succeeds, fails for a reason other than lock
// contention, or the lock wait elapses.
func withLockRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !IsLockContention(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(newLockBackoff(), ctx))
}
