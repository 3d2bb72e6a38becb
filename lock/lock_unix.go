//go:build !windows

package lock

import (
	"os"

	"golang.org/x/sys/unix"
)

// sharedLock acquires a non-blocking advisory shared (read) lock via
// flock(2). LOCK_SH allows other readers (including other launcher
// instances) to also hold the lock concurrently.
func sharedLock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_SH|unix.LOCK_NB)
}

// unlock releases the advisory lock. Closing the file descriptor would also
// release it, but this makes the release point explicit and independent of
// close ordering.
func unlock(f *os.File) {
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
