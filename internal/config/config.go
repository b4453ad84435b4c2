// Package config loads and persists the engine's on-disk settings.
// Unlike the desktop app it was adapted from, this process has no
// preferences store to lean on, so settings live in a small YAML file
// at a path chosen by the caller.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxConcurrent = 3
	DefaultEncoderPath   = ""
	DefaultHelperPath    = ""
)

// Settings is the persisted process configuration.
type Settings struct {
	DownloadDir   string `yaml:"downloadDir"`
	MaxConcurrent int    `yaml:"maxConcurrent"`
	EncoderPath   string `yaml:"encoderPath"`
	HelperPath    string `yaml:"helperPath"`

	path string
	mu   sync.Mutex
}

// Load reads Settings from path, filling in defaults for any zero-value
// field and returning a Settings ready for use. A missing file is not
// an error: it yields all-default Settings, which Save then persists.
func Load(path string) (*Settings, error) {
	s := &Settings{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fresh install, defaults below apply
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, err
		}
	}

	changed := false
	if s.MaxConcurrent <= 0 {
		s.MaxConcurrent = DefaultMaxConcurrent
		changed = true
	}
	if s.DownloadDir == "" {
		dir, err := defaultDownloadDir()
		if err != nil {
			dir = os.TempDir()
		}
		s.DownloadDir = dir
		changed = true
	}

	if changed {
		if err := s.Save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Save persists Settings back to its source path.
func (s *Settings) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// GetMaxConcurrent returns the configured concurrency cap, or the
// default and persists it if the stored value is invalid.
func (s *Settings) GetMaxConcurrent() int {
	s.mu.Lock()
	if s.MaxConcurrent > 0 {
		n := s.MaxConcurrent
		s.mu.Unlock()
		return n
	}
	s.MaxConcurrent = DefaultMaxConcurrent
	s.mu.Unlock()
	_ = s.Save()
	return DefaultMaxConcurrent
}

// SetMaxConcurrent updates and persists the concurrency cap, clamped to
// a sane [1, 16] range.
func (s *Settings) SetMaxConcurrent(n int) error {
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	s.mu.Lock()
	s.MaxConcurrent = n
	s.mu.Unlock()
	return s.Save()
}

// GetDownloadDir returns the configured download directory.
func (s *Settings) GetDownloadDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DownloadDir
}

// SetDownloadDir updates and persists the download directory.
func (s *Settings) SetDownloadDir(dir string) error {
	s.mu.Lock()
	s.DownloadDir = dir
	s.mu.Unlock()
	return s.Save()
}

// GetEncoderPath returns the user-configured ffmpeg path, or "" to
// signal that internal/encoder.Discover should search standard
// locations and PATH.
func (s *Settings) GetEncoderPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EncoderPath
}

// SetEncoderPath updates and persists the ffmpeg path override.
func (s *Settings) SetEncoderPath(path string) error {
	s.mu.Lock()
	s.EncoderPath = path
	s.mu.Unlock()
	return s.Save()
}

// GetHelperPath returns the user-configured external extractor binary
// path, or "" when none is configured; no PATH lookup is made for it.
func (s *Settings) GetHelperPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HelperPath
}

// SetHelperPath updates and persists the external extractor path.
func (s *Settings) SetHelperPath(path string) error {
	s.mu.Lock()
	s.HelperPath = path
	s.mu.Unlock()
	return s.Save()
}

func defaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}
