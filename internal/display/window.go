package display

import (
	"context"
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/recorder"
)

// ErrOperatorQuit is the cancellation cause when the operator asks to stop.
var ErrOperatorQuit = errors.New("operator quit")

// DefaultWindowTitle is the preview window name.
const DefaultWindowTitle = "OpenCV Feed"

// keyPollDelay is how long each frame waits for a key press, in milliseconds.
const keyPollDelay = 10

// holdPollDelay bounds each event pump while holding, in milliseconds.
const holdPollDelay = 50

// Window shows each encoded frame with its overlay and polls the keyboard
// once per frame. Pressing q cancels the run.
type Window struct {
	recorder.NopObserver

	title  string
	cancel context.CancelCauseFunc

	once   sync.Once
	window *gocv.Window
}

// NewWindow returns a Window that calls cancel when the operator quits.
// The OpenCV window itself is created lazily on the first frame.
func NewWindow(title string, cancel context.CancelCauseFunc) *Window {
	if title == "" {
		title = DefaultWindowTitle
	}
	return &Window{title: title, cancel: cancel}
}

func (w *Window) FrameEncoded(addr dataset.Address, frame *gocv.Mat, result *detector.Result) {
	if frame == nil || frame.Empty() {
		return
	}
	w.once.Do(func() {
		w.window = gocv.NewWindow(w.title)
	})

	img := frame.Clone()
	defer img.Close()

	DrawLandmarks(&img, result)
	DrawStatus(&img, addr)

	w.window.IMShow(img)
	w.HandleKey(w.window.WaitKey(keyPollDelay))
}

// Hold keeps the window drawing for d before a sequence starts. Keys pressed
// meanwhile are consumed and ignored. Before the first frame there is no
// window to pump, so it just sleeps.
func (w *Window) Hold(d time.Duration) {
	if w.window == nil {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return
		}
		// WaitKey(0) blocks until a key press.
		w.window.WaitKey(holdDelay(left))
	}
}

// holdDelay converts the time left in a hold into one WaitKey delay.
func holdDelay(left time.Duration) int {
	ms := int(left / time.Millisecond)
	if ms < 1 {
		return 1
	}
	return min(ms, holdPollDelay)
}

// HandleKey cancels the run when key is q or Q. It reports whether it did.
func (w *Window) HandleKey(key int) bool {
	if key < 0 {
		return false
	}
	switch key & 0xFF {
	case 'q', 'Q':
		if w.cancel != nil {
			w.cancel(ErrOperatorQuit)
		}
		return true
	}
	return false
}

// Close destroys the OpenCV window if it was opened.
func (w *Window) Close() error {
	if w.window == nil {
		return nil
	}
	return w.window.Close()
}
