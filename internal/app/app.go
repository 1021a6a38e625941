// Package app wires the recorder to its resources for one recording session:
// dataset lock, camera, detector, catalog, metrics, operator feedback, the
// optional status server and run hooks.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ayusman/signset/internal/capture"
	"github.com/ayusman/signset/internal/config"
	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/hooks"
	"github.com/ayusman/signset/internal/logging"
	"github.com/ayusman/signset/internal/recorder"
)

// ErrDatasetLocked is returned when another process is recording into the same dataset root.
var ErrDatasetLocked = errors.New("dataset is locked by another recording")

// LockSuffix is appended to the dataset root to form the writer lock path.
const LockSuffix = ".lock"

// Options holds everything a session needs. Camera and Detector are opened from
// Config when nil; injected ones are still closed when the session ends.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Camera   capture.Camera
	Detector detector.Detector
	Hooks    *hooks.Manager
}

// App is a recording session bound to one dataset root.
type App struct {
	cfg      *config.Config
	log      *slog.Logger
	layout   *dataset.Layout
	camera   capture.Camera
	detector detector.Detector
	hooks    *hooks.Manager
	lock     *flock.Flock
}

// New validates the configuration and prepares the dataset layout.
// No device is opened until Record.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app needs a configuration")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	layout, err := dataset.New(opts.Config.Dataset.Root)
	if err != nil {
		return nil, err
	}

	hm := opts.Hooks
	if hm == nil {
		hm = hooks.NewManager(opts.Config.HookTimeout(), log)
		if err := hm.Add(opts.Config.Hooks.OnComplete...); err != nil {
			return nil, err
		}
		if dir := opts.Config.Hooks.Dir; dir != "" {
			if err := hm.Discover(dir); err != nil {
				return nil, fmt.Errorf("discover hooks: %w", err)
			}
		}
	}

	return &App{
		cfg:      opts.Config,
		log:      log,
		layout:   layout,
		camera:   opts.Camera,
		detector: opts.Detector,
		hooks:    hm,
		lock:     flock.New(layout.Root() + LockSuffix),
	}, nil
}

// Layout returns the dataset layout the session writes into.
func (a *App) Layout() *dataset.Layout {
	return a.layout
}

// RecorderConfig converts the session configuration into a recorder.Config.
func (a *App) RecorderConfig() recorder.Config {
	d := a.cfg.Dataset
	return recorder.Config{
		Labels:         append([]string(nil), d.Labels...),
		Sequences:      d.Sequences,
		SequenceLength: d.SequenceLength,
		PrepDelay:      a.cfg.PrepDelay(),
		Mode:           recorder.Mode(d.Mode),
	}
}

// Provision creates every sequence directory the configured run would write
// into and returns the planned ranges. Nothing is recorded.
func (a *App) Provision() ([]dataset.Range, error) {
	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	plan, err := recorder.Plan(a.RecorderConfig(), a.layout)
	if err != nil {
		return nil, err
	}
	if err := a.layout.Provision(plan); err != nil {
		return nil, fmt.Errorf("provision dataset: %w", err)
	}
	a.log.Info("dataset provisioned", "root", a.layout.Root(), "labels", len(plan))
	return plan, nil
}

// acquire takes the dataset writer lock without blocking.
func (a *App) acquire() error {
	if err := os.MkdirAll(filepath.Dir(a.layout.Root()), 0755); err != nil {
		return fmt.Errorf("create dataset parent: %w", err)
	}
	ok, err := a.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDatasetLocked, a.lock.Path())
	}
	return nil
}

func (a *App) release() {
	if err := a.lock.Unlock(); err != nil {
		a.log.Warn("failed to release dataset lock", "error", err)
	}
}
