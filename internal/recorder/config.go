package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/signset/internal/dataset"
)

// Mode selects which sequence indices a run writes.
type Mode string

const (
	// ModeOverwrite records sequences 0..Sequences-1 and replaces what is there.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend starts each label after its highest existing sequence.
	ModeAppend Mode = "append"
)

// Defaults matching the reference collection protocol.
const (
	DefaultSequences      = 30
	DefaultSequenceLength = 30
	DefaultPrepDelay      = 2000 * time.Millisecond
)

// DefaultLabels are the actions collected when none are configured.
var DefaultLabels = []string{"hello", "leo", "my", "name"}

// Config describes one recording run. It is copied on New and never changed afterwards.
type Config struct {
	Labels         []string
	Sequences      int
	SequenceLength int
	PrepDelay      time.Duration
	Mode           Mode
}

// DefaultConfig returns the reference protocol: 4 labels, 30 sequences of 30 frames, 2s prep.
func DefaultConfig() Config {
	return Config{
		Labels:         append([]string(nil), DefaultLabels...),
		Sequences:      DefaultSequences,
		SequenceLength: DefaultSequenceLength,
		PrepDelay:      DefaultPrepDelay,
		Mode:           ModeOverwrite,
	}
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	if len(c.Labels) == 0 {
		return errors.New("at least one label is required")
	}
	seen := make(map[string]bool, len(c.Labels))
	for _, label := range c.Labels {
		if err := dataset.ValidateLabel(label); err != nil {
			return err
		}
		if seen[label] {
			return fmt.Errorf("label %q is listed twice", label)
		}
		seen[label] = true
	}
	if c.Sequences <= 0 {
		return fmt.Errorf("sequences must be positive, got %d", c.Sequences)
	}
	if c.SequenceLength <= 0 {
		return fmt.Errorf("sequence length must be positive, got %d", c.SequenceLength)
	}
	if c.PrepDelay < 0 {
		return fmt.Errorf("prep delay must not be negative, got %s", c.PrepDelay)
	}
	switch c.Mode {
	case ModeOverwrite, ModeAppend, "":
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}

// TotalFrames returns how many vectors a complete run writes.
func (c Config) TotalFrames() int {
	return len(c.Labels) * c.Sequences * c.SequenceLength
}

func (c Config) clone() Config {
	c.Labels = append([]string(nil), c.Labels...)
	if c.Mode == "" {
		c.Mode = ModeOverwrite
	}
	return c
}
