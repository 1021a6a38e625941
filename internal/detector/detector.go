package detector

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Detector defines the interface for holistic landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected landmark groups.
	// Groups the model could not find are left nil.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Python is the interpreter used to run the holistic service.
	// Empty means a virtual environment is searched, then python3.
	Python string

	// Script is the path to the holistic service script.
	// Empty means the usual install locations are searched.
	Script string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}

// Validate checks that both confidence thresholds are within [0, 1].
func (c Config) Validate() error {
	if c.MinDetectionConf < 0 || c.MinDetectionConf > 1 {
		return fmt.Errorf("min detection confidence %v outside [0,1]", c.MinDetectionConf)
	}
	if c.MinTrackingConf < 0 || c.MinTrackingConf > 1 {
		return fmt.Errorf("min tracking confidence %v outside [0,1]", c.MinTrackingConf)
	}
	return nil
}
