package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndReleaseAllowsConcurrentSharedReaders(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
	}
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	p1, err := Acquire(context.Background(), paths)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer p1.Release()

	// A second shared-lock acquisition over the same files must also
	// succeed: shared locks permit concurrent readers by design (spec's
	// open question notes this is intentional).
	p2, err := Acquire(context.Background(), paths)
	if err != nil {
		t.Fatalf("second concurrent Acquire should succeed for shared locks: %v", err)
	}
	defer p2.Release()
}

func TestAcquireMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Acquire(context.Background(), []string{filepath.Join(dir, "missing.txt")})
	if err == nil {
		t.Fatal("expected Acquire to fail for a missing path")
	}
}

func TestReleaseIsIdempotentFriendly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Acquire(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := p.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}
