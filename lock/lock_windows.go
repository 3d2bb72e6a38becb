//go:build windows

package lock

import (
	"os"

	"golang.org/x/sys/windows"
)

// sharedLock acquires a non-blocking advisory shared (read) lock via
// LockFileEx. Omitting LOCKFILE_EXCLUSIVE_LOCK requests a shared lock,
// matching flock(2)'s LOCK_SH semantics on Unix.
func sharedLock(f *os.File) error {
	var overlapped windows.Overlapped
	return windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		1, 0,
		&overlapped,
	)
}

// unlock releases the advisory lock acquired by sharedLock.
func unlock(f *os.File) {
	var overlapped windows.Overlapped
	_ = windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, &overlapped)
}
