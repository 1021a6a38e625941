package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate ensures configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if c.Catalog.Enabled && strings.TrimSpace(c.Catalog.Path) == "" {
		return invalid("catalog.path must be set when the catalog is enabled")
	}
	if c.Hooks.TimeoutMs < 0 {
		return invalid("hooks.timeout_ms must not be negative")
	}
	switch c.Logging.Format {
	case "", "text", "console", "json":
	default:
		return invalid("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateDataset() error {
	d := c.Dataset
	if strings.TrimSpace(d.Root) == "" {
		return invalid("dataset.root must be set")
	}
	if len(d.Labels) == 0 {
		return invalid("dataset.labels must list at least one label")
	}
	seen := make(map[string]bool, len(d.Labels))
	for _, label := range d.Labels {
		if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) || filepath.Base(label) != label {
			return invalid("dataset.labels: %q is not a valid directory name", label)
		}
		if seen[label] {
			return invalid("dataset.labels: %q is listed twice", label)
		}
		seen[label] = true
	}
	if d.Sequences <= 0 {
		return invalid("dataset.sequences must be positive")
	}
	if d.SequenceLength <= 0 {
		return invalid("dataset.sequence_length must be positive")
	}
	switch d.Mode {
	case "overwrite", "append":
	default:
		return invalid("dataset.mode must be overwrite or append, got %q", d.Mode)
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.PrepDelayMs < 0 {
		return invalid("capture.prep_delay_ms must not be negative")
	}
	if c.Capture.Width < 0 || c.Capture.Height < 0 || c.Capture.FPS < 0 {
		return invalid("capture width, height and fps must not be negative")
	}
	// The tray loop and the OpenCV window both need the main thread.
	if c.Capture.Window && c.Capture.Tray {
		return invalid("capture.window and capture.tray cannot both be enabled")
	}
	return nil
}

func (c *Config) validateDetector() error {
	for name, v := range map[string]float64{
		"detector.min_detection_confidence": c.Detector.MinDetectionConfidence,
		"detector.min_tracking_confidence":  c.Detector.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			return invalid("%s must be within [0, 1], got %v", name, v)
		}
	}
	return nil
}
