// Package config loads the launcher's own ambient settings from an optional
// YAML file beside the binary. None of these settings come from the
// application descriptor — they govern the launcher's own behavior
// (transport timeouts, size caps, checksum algorithm, splash pacing).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file the launcher looks for beside its binary.
const FileName = "nativestart.yaml"

// LauncherConfig holds the launcher's own settings, independent of any
// product descriptor.
type LauncherConfig struct {
	HTTP     HTTPSettings     `yaml:"http"`
	Checksum ChecksumSettings `yaml:"checksum"`
	Splash   SplashSettings   `yaml:"splash"`
}

// HTTPSettings controls the descriptor/artifact fetcher's transport.
type HTTPSettings struct {
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxDownloadBytes uint64 `yaml:"max_download_bytes"`
	MirrorBase       string `yaml:"mirror_base"`
}

// ChecksumSettings selects the digest function shared by the signer and
// the launcher (see validate.Algorithm).
type ChecksumSettings struct {
	// Algorithm is "sha256" (default) or "blake3".
	Algorithm string `yaml:"algorithm"`
}

// SplashSettings overrides the splash renderer's frame pacing.
type SplashSettings struct {
	FrameRateHz int `yaml:"frame_rate_hz"`
}

// Default returns the launcher's built-in defaults, used when no config
// file is present.
func Default() *LauncherConfig {
	return &LauncherConfig{
		HTTP: HTTPSettings{
			TimeoutSeconds:   300,
			MaxDownloadBytes: 2 * 1024 * 1024 * 1024, // 2 GiB
		},
		Checksum: ChecksumSettings{Algorithm: "sha256"},
		Splash:   SplashSettings{FrameRateHz: 60},
	}
}

// HTTPTimeout returns the configured HTTP timeout as a time.Duration.
func (c *LauncherConfig) HTTPTimeout() time.Duration {
	if c.HTTP.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Load reads FileName from dir and returns the parsed config, merged over
// Default(). If the file does not exist, Default() is returned with no
// error — the launcher must run correctly with zero configuration.
func Load(dir string) (*LauncherConfig, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
