// Package hooks runs external executables after a recording run. Each hook
// receives a JSON Summary on stdin and may answer with a JSON Response on stdout.
package hooks

import (
	"encoding/json"
	"time"
)

// Manifest describes a hook installed in the hooks directory.
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
}

// Summary is sent to every hook when a run ends.
type Summary struct {
	RunID          string    `json:"run_id"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	Root           string    `json:"root"`
	Labels         []string  `json:"labels"`
	Sequences      int       `json:"sequences"`
	SequenceLength int       `json:"sequence_length"`
	Mode           string    `json:"mode"`
	FramesStored   int       `json:"frames_stored"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Response is what a hook may print on stdout. Printing nothing counts as success.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a resolved executable.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Name returns the manifest name, or the executable when there is none.
func (h *Hook) Name() string {
	if h.Manifest.Name != "" {
		return h.Manifest.Name
	}
	return h.Executable
}
