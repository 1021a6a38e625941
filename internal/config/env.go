package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env files into the process environment. Missing files are
// ignored and variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from SIGNSET_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		*dst = n
		return nil
	}
	float := func(name string, dst *float64) error {
		v, ok := lookup(name)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		*dst = f
		return nil
	}

	str("SIGNSET_DATASET_ROOT", &c.Dataset.Root)
	str("SIGNSET_MODE", &c.Dataset.Mode)
	str("SIGNSET_DEVICE", &c.Capture.Device)
	str("SIGNSET_CATALOG_PATH", &c.Catalog.Path)
	str("SIGNSET_LISTEN", &c.Server.Listen)
	str("SIGNSET_LOG_LEVEL", &c.Logging.Level)
	str("SIGNSET_LOG_FORMAT", &c.Logging.Format)
	str("SIGNSET_PYTHON", &c.Detector.Python)

	if v, ok := lookup("SIGNSET_LABELS"); ok {
		c.Dataset.Labels = splitList(v)
	}

	for name, dst := range map[string]*int{
		"SIGNSET_SEQUENCES":       &c.Dataset.Sequences,
		"SIGNSET_SEQUENCE_LENGTH": &c.Dataset.SequenceLength,
		"SIGNSET_PREP_DELAY_MS":   &c.Capture.PrepDelayMs,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}

	if err := float("SIGNSET_MIN_DETECTION_CONFIDENCE", &c.Detector.MinDetectionConfidence); err != nil {
		return err
	}
	return float("SIGNSET_MIN_TRACKING_CONFIDENCE", &c.Detector.MinTrackingConfidence)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
