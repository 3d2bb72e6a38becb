// Package lock implements the shared-lock pinner: advisory shared (read)
// locks held over every live file backing an installation for the lifetime
// of the child runtime, so the store's write-to-new protocol cannot rename
// a file out from under a running process, while still letting multiple
// reader launchers proceed.
package lock

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/nativestart-go/launcher/launcherrors"
)

// Pinner holds one open, shared-locked file handle per pinned path. Release
// closes every handle (which drops the advisory lock) regardless of
// individual close errors.
type Pinner struct {
	handles []*os.File
}

// Acquire opens and shared-locks every path concurrently. If any single
// lock fails, every lock already acquired is released before returning the
// error — partial acquisition is never left outstanding.
func Acquire(ctx context.Context, paths []string) (*Pinner, error) {
	handles := make([]*os.File, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			f, err := os.Open(p)
			if err != nil {
				return launcherrors.Wrap(launcherrors.Storage, err, "opening %s for locking", p)
			}
			if err := sharedLock(f); err != nil {
				f.Close()
				return launcherrors.Wrap(launcherrors.Storage, err, "acquiring shared lock on %s", p)
			}
			handles[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, f := range handles {
			if f != nil {
				unlock(f)
				f.Close()
			}
		}
		return nil, err
	}

	return &Pinner{handles: handles}, nil
}

// Release closes every pinned handle, dropping its advisory lock.
func (p *Pinner) Release() error {
	var firstErr error
	for _, f := range p.handles {
		if f == nil {
			continue
		}
		unlock(f)
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = launcherrors.Wrap(launcherrors.Storage, err, "closing pinned handle")
		}
	}
	p.handles = nil
	return firstErr
}
