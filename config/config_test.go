package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAbsentFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Checksum.Algorithm != want.Checksum.Algorithm {
		t.Errorf("Checksum.Algorithm = %q, want %q", cfg.Checksum.Algorithm, want.Checksum.Algorithm)
	}
	if cfg.Splash.FrameRateHz != want.Splash.FrameRateHz {
		t.Errorf("Splash.FrameRateHz = %d, want %d", cfg.Splash.FrameRateHz, want.Splash.FrameRateHz)
	}
}

func TestLoadMergesOverFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "checksum:\n  algorithm: blake3\nhttp:\n  timeout_seconds: 60\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Checksum.Algorithm != "blake3" {
		t.Errorf("Checksum.Algorithm = %q, want blake3", cfg.Checksum.Algorithm)
	}
	if cfg.HTTPTimeout().Seconds() != 60 {
		t.Errorf("HTTPTimeout = %v, want 60s", cfg.HTTPTimeout())
	}
	// Splash frame rate was not specified in the file; default must survive.
	if cfg.Splash.FrameRateHz != Default().Splash.FrameRateHz {
		t.Errorf("Splash.FrameRateHz = %d, want default %d", cfg.Splash.FrameRateHz, Default().Splash.FrameRateHz)
	}
}

func TestLoadInvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("not: [valid yaml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected Load to fail on invalid YAML")
	}
}
