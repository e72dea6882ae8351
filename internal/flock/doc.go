// Package flock serializes state writers across processes with an
// exclusive lock file per project.
//
// Acquire retries a non-blocking lock until its timeout:
//
//	lock, err := flock.Acquire(ctx, path, constants.LockTimeout)
//	if err != nil {
//	    return err // wraps ErrLockTimeout after the deadline
//	}
//	defer func() { _ = lock.Release() }()
package flock
