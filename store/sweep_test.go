package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDeleteUnusedFilesOrphanSweepScenario(t *testing.T) {
	s := mustStore(t)
	writeFile(t, s.Path("lib/a.jar"))
	writeFile(t, s.Path("lib/old.jar"))
	writeFile(t, s.Path("plugins/x.so"))

	m := NewManagedSet([]string{"lib/a.jar"}, "splash/", []string{"plugins"})
	if err := s.DeleteUnusedFiles(m); err != nil {
		t.Fatalf("DeleteUnusedFiles: %v", err)
	}

	if _, err := os.Stat(s.Path("lib/old.jar")); !os.IsNotExist(err) {
		t.Errorf("expected lib/old.jar deleted, got err=%v", err)
	}
	if _, err := os.Stat(s.Path("plugins/x.so")); err != nil {
		t.Errorf("expected plugins/x.so retained: %v", err)
	}
	if _, err := os.Stat(s.Path("lib/a.jar")); err != nil {
		t.Errorf("expected lib/a.jar kept: %v", err)
	}
}

func TestDeleteUnusedFilesEmptyArtifactsRemovesEverythingNotReserved(t *testing.T) {
	s := mustStore(t)
	writeFile(t, s.Path("stale/old.bin"))

	m := NewManagedSet(nil, "splash/", nil)
	if err := s.DeleteUnusedFiles(m); err != nil {
		t.Fatalf("DeleteUnusedFiles: %v", err)
	}

	if _, err := os.Stat(s.Path("stale/old.bin")); !os.IsNotExist(err) {
		t.Errorf("expected stale/old.bin deleted, got err=%v", err)
	}
	if _, err := os.Stat(s.Path(BackupDirName)); err != nil {
		t.Errorf("expected reserved backup dir retained: %v", err)
	}
}

func TestDeleteUnusedFilesManagedBeatsUnmanagedOnExactMatch(t *testing.T) {
	s := mustStore(t)
	writeFile(t, s.Path("lib/a.jar"))

	// "lib/a.jar" is both an artifact path and, hypothetically, also listed
	// as unmanaged; managed must still win so it is kept (it would be kept
	// either way, but this exercises the exact-match-wins-over-ancestor
	// resolution order explicitly).
	m := NewManagedSet([]string{"lib/a.jar"}, "splash/", []string{"lib/a.jar"})
	if err := s.DeleteUnusedFiles(m); err != nil {
		t.Fatalf("DeleteUnusedFiles: %v", err)
	}
	if _, err := os.Stat(s.Path("lib/a.jar")); err != nil {
		t.Errorf("expected lib/a.jar kept: %v", err)
	}
}

func TestDeleteUnusedFilesArchiveDirectoryNotDescended(t *testing.T) {
	s := mustStore(t)
	writeFile(t, s.Path("plugins/a.so"))
	writeFile(t, s.Path("plugins/b.so"))

	// "plugins" itself is the archive artifact path (declared with a
	// trailing slash in the descriptor, normalized here): it matches
	// exactly and must not be descended into even though it has children.
	m := NewManagedSet([]string{"plugins/"}, "splash/", nil)
	if err := s.DeleteUnusedFiles(m); err != nil {
		t.Fatalf("DeleteUnusedFiles: %v", err)
	}
	if _, err := os.Stat(s.Path("plugins/a.so")); err != nil {
		t.Errorf("expected archive contents retained: %v", err)
	}
	if _, err := os.Stat(s.Path("plugins/b.so")); err != nil {
		t.Errorf("expected archive contents retained: %v", err)
	}
}

func TestDeleteUnusedFilesIdempotent(t *testing.T) {
	s := mustStore(t)
	writeFile(t, s.Path("lib/a.jar"))
	writeFile(t, s.Path("lib/old.jar"))

	m := NewManagedSet([]string{"lib/a.jar"}, "splash/", nil)
	if err := s.DeleteUnusedFiles(m); err != nil {
		t.Fatalf("DeleteUnusedFiles (1st): %v", err)
	}
	if err := s.DeleteUnusedFiles(m); err != nil {
		t.Fatalf("DeleteUnusedFiles (2nd): %v", err)
	}
	if _, err := os.Stat(s.Path("lib/a.jar")); err != nil {
		t.Errorf("expected lib/a.jar still kept after second sweep: %v", err)
	}
}
