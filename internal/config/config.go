// Package config loads signset settings from a TOML file, a .env file and
// SIGNSET_* environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Dataset contains the collection protocol and dataset location.
type Dataset struct {
	Root           string   `toml:"root"`
	Labels         []string `toml:"labels"`
	Sequences      int      `toml:"sequences"`
	SequenceLength int      `toml:"sequence_length"`
	// Mode is "overwrite" (default) or "append".
	Mode string `toml:"mode"`
}

// Capture contains camera and operator feedback settings.
type Capture struct {
	Device      string `toml:"device"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	FPS         int    `toml:"fps"`
	PrepDelayMs int    `toml:"prep_delay_ms"`
	Window      bool   `toml:"window"`
	Tray        bool   `toml:"tray"`
	Progress    bool   `toml:"progress"`
}

// Detector contains landmark model settings.
type Detector struct {
	MinDetectionConfidence float64 `toml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `toml:"min_tracking_confidence"`
	// Python and Script override the interpreter and service script lookup.
	Python string `toml:"python"`
	Script string `toml:"script"`
}

// Catalog contains the run journal location.
type Catalog struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Server contains the status server bind address. Empty disables it during record.
type Server struct {
	Listen string `toml:"listen"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Hooks lists executables run after each recording run.
type Hooks struct {
	OnComplete []string `toml:"on_complete"`
	// Dir, when set, is scanned for subdirectories holding a hook.json manifest.
	Dir       string `toml:"dir"`
	TimeoutMs int    `toml:"timeout_ms"`
}

// Config encapsulates all configuration values for signset.
type Config struct {
	Dataset  Dataset  `toml:"dataset"`
	Capture  Capture  `toml:"capture"`
	Detector Detector `toml:"detector"`
	Catalog  Catalog  `toml:"catalog"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
	Hooks    Hooks    `toml:"hooks"`
}

// PrepDelay returns the capture preparation delay as a duration.
func (c *Config) PrepDelay() time.Duration {
	return time.Duration(c.Capture.PrepDelayMs) * time.Millisecond
}

// HookTimeout returns the per-hook timeout as a duration.
func (c *Config) HookTimeout() time.Duration {
	ms := c.Hooks.TimeoutMs
	if ms <= 0 {
		ms = defaultHookTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads path (or the default location when path is empty), applies .env
// and environment overrides, then normalizes and validates the result.
// A missing file is not an error; the returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := LoadDotEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// WriteDefault writes the default configuration as TOML. It refuses to replace
// an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if !force {
		if _, err := os.Stat(expanded); err == nil {
			return fmt.Errorf("config %s already exists", expanded)
		}
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if dir := filepath.Dir(expanded); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
