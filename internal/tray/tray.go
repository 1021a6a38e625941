// Package tray provides a system tray status item for a recording run.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/keypoints"
	"github.com/ayusman/signset/internal/recorder"
)

// Tray shows recording progress in the system tray and offers a Quit item.
// It implements recorder.Observer.
type Tray struct {
	recorder.NopObserver

	onQuit       func()
	onStatusPage func()
	total        int
	stored       int
	current      string
	ready        bool
	stopped      bool
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuCurrent  *systray.MenuItem
	menuProgress *systray.MenuItem
}

// New creates a Tray for a run that writes total frames.
func New(total int) *Tray {
	return &Tray{
		total:   total,
		current: "waiting",
	}
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// OnStatusPage sets the callback for the status page menu item.
// The item is only shown when a callback is set before Run.
func (t *Tray) OnStatusPage(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStatusPage = fn
}

// Run starts the system tray application.
// This function blocks until Stop is called or Quit is clicked.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Stop closes the tray. Calling it before the tray is ready makes Run return
// as soon as it starts.
func (t *Tray) Stop() {
	t.mu.Lock()
	t.stopped = true
	ready := t.ready
	t.mu.Unlock()

	if ready {
		systray.Quit()
	}
}

func (t *Tray) onReady() {
	t.mu.Lock()
	t.ready = true
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		systray.Quit()
		return
	}

	systray.SetTitle("signset")
	systray.SetTooltip("signset keypoint recorder")

	t.mu.Lock()
	t.menuCurrent = systray.AddMenuItem(t.currentTitle(), "Sequence being recorded")
	t.menuCurrent.Disable()
	t.menuProgress = systray.AddMenuItem(t.progressTitle(), "Frames stored in this run")
	t.menuProgress.Disable()
	statusPage := t.onStatusPage
	t.mu.Unlock()
	systray.AddSeparator()

	var statusCh chan struct{}
	if statusPage != nil {
		statusCh = systray.AddMenuItem("Open Status Page...", "Open the status page in a browser").ClickedCh
		systray.AddSeparator()
	}

	menuQuit := systray.AddMenuItem("Quit", "Stop recording")

	go func() {
		for {
			select {
			case <-statusCh:
				statusPage()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func (t *Tray) SequenceStarted(addr dataset.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = fmt.Sprintf("%s #%d", addr.Label, addr.Sequence)
	if t.menuCurrent != nil {
		t.menuCurrent.SetTitle(t.currentTitle())
	}
}

func (t *Tray) FrameStored(dataset.Address, *keypoints.Vector) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stored++
	if t.menuProgress != nil {
		t.menuProgress.SetTitle(t.progressTitle())
	}
}

// Status returns the current menu texts.
func (t *Tray) Status() (current, progress string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentTitle(), t.progressTitle()
}

func (t *Tray) currentTitle() string {
	return "Recording: " + t.current
}

func (t *Tray) progressTitle() string {
	return fmt.Sprintf("Frames: %d/%d", t.stored, t.total)
}
