//go:build windows

package flock

import (
	"os"

	"golang.org/x/sys/windows"
)

// The whole file is locked through its first byte.
const (
	lockRangeLow  = 1
	lockRangeHigh = 0
)

// tryLock takes a non-blocking exclusive LockFileEx lock on f.
func tryLock(f *os.File) error {
	return windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		lockRangeLow,
		lockRangeHigh,
		&windows.Overlapped{},
	)
}

func unlock(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockRangeLow, lockRangeHigh, &windows.Overlapped{})
}
