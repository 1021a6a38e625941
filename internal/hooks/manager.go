package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/ayusman/signset/internal/logging"
)

// ManifestFile is the manifest name looked for in each hooks subdirectory.
const ManifestFile = "hook.json"

// Manager holds the hooks to run after each recording run.
type Manager struct {
	hooks    []*Hook
	executor *Executor
	log      *slog.Logger
}

// NewManager creates a Manager that runs each hook with the given timeout.
func NewManager(timeout time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{executor: NewExecutor(timeout), log: log}
}

// Add resolves commands (absolute paths or names on PATH) and adds them as hooks.
func (m *Manager) Add(commands ...string) error {
	for _, c := range commands {
		path, err := exec.LookPath(c)
		if err != nil {
			return fmt.Errorf("hook %q: %w", c, err)
		}
		m.hooks = append(m.hooks, &Hook{Path: filepath.Dir(path), Executable: path})
	}
	return nil
}

// Discover adds every subdirectory of dir that contains a hook.json manifest.
// A missing directory adds nothing.
func (m *Manager) Discover(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var found []*Hook
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		hookPath := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(hookPath, ManifestFile))
		if err != nil {
			continue // Skip directories without a readable manifest
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil || manifest.Executable == "" {
			m.log.Warn("skipping hook with invalid manifest", "dir", hookPath, "error", err)
			continue
		}

		found = append(found, &Hook{
			Manifest:   manifest,
			Path:       hookPath,
			Executable: filepath.Join(hookPath, manifest.Executable),
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name() < found[j].Name() })
	m.hooks = append(m.hooks, found...)
	return nil
}

// Hooks returns the registered hooks in run order.
func (m *Manager) Hooks() []*Hook {
	return append([]*Hook(nil), m.hooks...)
}

// Result is the outcome of one hook.
type Result struct {
	Hook     string
	Response *Response
	Err      error
}

// Run executes every hook in order. Hook failures are logged and reported in
// the results; they never stop the remaining hooks.
func (m *Manager) Run(ctx context.Context, summary *Summary) []Result {
	results := make([]Result, 0, len(m.hooks))
	for _, h := range m.hooks {
		resp, err := m.executor.Execute(ctx, h, summary)
		if err == nil && !resp.Success {
			err = fmt.Errorf("hook %s reported failure: %s", h.Name(), resp.Error)
		}
		if err != nil {
			m.log.Warn("hook failed", "hook", h.Name(), "error", err)
		} else {
			m.log.Debug("hook finished", "hook", h.Name())
		}
		results = append(results, Result{Hook: h.Name(), Response: resp, Err: err})
	}
	return results
}
