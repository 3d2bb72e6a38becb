// Package store owns the on-disk installation root: path resolution, the
// trash/restore write protocol, the orphan sweep, and the reserved-name
// layout (app.json, launcher.log, .launcher.backup/).
package store

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nativestart-go/launcher/launcherrors"
)

const (
	// DescriptorFileName is the reserved snapshot of the last fetched
	// descriptor, used as the offline fallback source.
	DescriptorFileName = "app.json"
	// LogFileName is the reserved process-wide log file.
	LogFileName = "launcher.log"
	// BackupDirName is the hidden trash/staging mirror.
	BackupDirName = ".launcher.backup"
)

// ReservedNames lists the installation root entries the store itself owns,
// independent of any descriptor.
var ReservedNames = []string{DescriptorFileName, LogFileName, BackupDirName}

// Store manages a single product's installation root directory.
type Store struct {
	root string
}

// New creates a Store rooted at root, creating the directory (and the
// hidden backup mirror) if absent.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, launcherrors.Wrap(launcherrors.Storage, err, "creating installation root %s", root)
	}
	if err := os.MkdirAll(filepath.Join(root, BackupDirName), 0o755); err != nil {
		return nil, launcherrors.Wrap(launcherrors.Storage, err, "creating backup mirror")
	}
	return &Store{root: root}, nil
}

// Root returns the installation root directory.
func (s *Store) Root() string {
	return s.root
}

// Path joins rel onto the installation root.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// backupPath joins rel onto the hidden trash mirror.
func (s *Store) backupPath(rel string) string {
	return filepath.Join(s.root, BackupDirName, filepath.FromSlash(rel))
}

// RestoreTrash is the crash-recovery step: if the trash mirror holds an
// entry for rel, it replaces the live entry (deleting the live version
// first, if present), then clears the trash slot. Must be called before any
// read of rel to collapse a state left behind by an interrupted run.
func (s *Store) RestoreTrash(rel string) error {
	trashed := s.backupPath(rel)
	if _, err := os.Lstat(trashed); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "statting trash entry for %s", rel)
	}

	live := s.Path(rel)
	if err := os.RemoveAll(live); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "removing stale live entry for %s", rel)
	}
	if err := os.MkdirAll(filepath.Dir(live), 0o755); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "creating parent directory for %s", rel)
	}
	if err := os.Rename(trashed, live); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "restoring trash entry for %s", rel)
	}
	return nil
}

// PathForWrite is the pre-write step: if a managed entry already exists at
// Path(rel), it is atomically renamed into the trash mirror (replacing any
// prior trash entry at that slot), then Path(rel) is returned as a fresh
// write target. Every download therefore writes to new rather than
// overwriting in place.
func (s *Store) PathForWrite(rel string) (string, error) {
	live := s.Path(rel)
	trashed := s.backupPath(rel)

	if _, err := os.Lstat(live); err == nil {
		if err := os.RemoveAll(trashed); err != nil {
			return "", launcherrors.Wrap(launcherrors.Storage, err, "clearing prior trash entry for %s", rel)
		}
		if err := os.MkdirAll(filepath.Dir(trashed), 0o755); err != nil {
			return "", launcherrors.Wrap(launcherrors.Storage, err, "creating trash parent for %s", rel)
		}
		if err := os.Rename(live, trashed); err != nil {
			return "", launcherrors.Wrap(launcherrors.Storage, err, "moving %s to trash", rel)
		}
	} else if !os.IsNotExist(err) {
		return "", launcherrors.Wrap(launcherrors.Storage, err, "statting live entry for %s", rel)
	}

	if err := os.MkdirAll(filepath.Dir(live), 0o755); err != nil {
		return "", launcherrors.Wrap(launcherrors.Storage, err, "creating parent directory for %s", rel)
	}
	return live, nil
}

// StoreDescriptor writes raw verbatim to app.json under the write-to-new
// protocol, so the next launch can boot from cache when offline.
func (s *Store) StoreDescriptor(raw []byte) error {
	target, err := s.PathForWrite(DescriptorFileName)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(target, raw); err != nil {
		return err
	}
	// The new snapshot is in place: drop the superseded copy from the trash
	// so a later LoadDescriptor does not restore it over these bytes.
	if err := os.RemoveAll(s.backupPath(DescriptorFileName)); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "clearing trash entry for %s", DescriptorFileName)
	}
	return nil
}

// LoadDescriptor restores any pending trash for app.json and returns its
// current bytes, or (nil, false) if no snapshot exists yet.
func (s *Store) LoadDescriptor() ([]byte, bool, error) {
	if err := s.RestoreTrash(DescriptorFileName); err != nil {
		return nil, false, err
	}
	raw, err := os.ReadFile(s.Path(DescriptorFileName))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, launcherrors.Wrap(launcherrors.Storage, err, "reading descriptor snapshot")
	}
	return raw, true, nil
}

// atomicWriteFile writes data to a uuid-suffixed temp file in the same
// directory as target, then renames it into place. The uuid suffix (rather
// than a fixed ".tmp" name) avoids collisions when path_for_write staging
// and a fresh write race within the same process.
func atomicWriteFile(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp := filepath.Join(dir, "."+filepath.Base(target)+"."+uuid.NewString()+".tmp")

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "writing temp file for %s", target)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return launcherrors.Wrap(launcherrors.Storage, err, "renaming temp file into place for %s", target)
	}
	return nil
}
