package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ayusman/signset/internal/capture"
	"github.com/ayusman/signset/internal/catalog"
	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/display"
	"github.com/ayusman/signset/internal/hooks"
	"github.com/ayusman/signset/internal/keypoints"
	"github.com/ayusman/signset/internal/metrics"
	"github.com/ayusman/signset/internal/recorder"
	"github.com/ayusman/signset/internal/server"
	"github.com/ayusman/signset/internal/tray"
)

// Record runs one full recording session. The returned summary is always
// filled in, including on cancellation and failure. A cancelled run returns an
// error matching recorder.ErrCancelled.
//
// Session order:
// 1. Take the dataset writer lock
// 2. Open the camera and detector
// 3. Create the catalog run and the observers
// 4. Start the status server when one is configured
// 5. Run the recorder
// 6. Finish the catalog run and call the hooks
func (a *App) Record(ctx context.Context) (*hooks.Summary, error) {
	rcfg := a.RecorderConfig()
	summary := &hooks.Summary{
		Root:           a.layout.Root(),
		Labels:         rcfg.Labels,
		Sequences:      rcfg.Sequences,
		SequenceLength: rcfg.SequenceLength,
		Mode:           string(rcfg.Mode),
		StartedAt:      time.Now().UTC(),
	}

	if err := a.acquire(); err != nil {
		return summary, err
	}
	defer a.release()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	cam, det, err := a.openDevices()
	if err != nil {
		return summary, err
	}
	defer a.closeDevices(cam, det)

	var observers []recorder.Observer
	counter := &frameCounter{}
	observers = append(observers, counter)

	cat, runID, err := a.openCatalog(summary)
	if err != nil {
		return summary, err
	}
	if cat != nil {
		defer cat.Close()
		observers = append(observers, catalog.NewJournal(cat, runID, a.log))
	}
	summary.RunID = runID

	m := metrics.New()
	m.RunStarted()
	observers = append(observers, m)

	opts := []recorder.Option{recorder.WithLogger(a.log)}
	if a.cfg.Capture.Window {
		w := display.NewWindow(display.DefaultWindowTitle, cancel)
		defer w.Close()
		observers = append(observers, w)
		opts = append(opts, recorder.WithHold(w.Hold))
	}

	var progress *display.Progress
	if a.cfg.Capture.Progress {
		if progress = display.NewTerminalProgress(rcfg.TotalFrames()); progress != nil {
			observers = append(observers, progress)
		}
	}

	var statusURL string
	if addr := a.cfg.Server.Listen; addr != "" {
		hub := server.NewHub(a.log)
		preview := server.NewPreview()
		observers = append(observers, hub, preview)

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return summary, fmt.Errorf("status server: %w", err)
		}
		srv := server.New(server.Config{
			Catalog:        cat,
			Layout:         a.layout,
			SequenceLength: rcfg.SequenceLength,
			Metrics:        m,
			Hub:            hub,
			Preview:        preview,
			Logger:         a.log,
		})
		srvCtx, stopServer := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.Serve(srvCtx, ln); err != nil {
				a.log.Warn("status server failed", "error", err)
			}
		}()
		defer func() {
			stopServer()
			<-done
		}()
		statusURL = "http://" + ln.Addr().String()
	}

	var t *tray.Tray
	if a.cfg.Capture.Tray {
		t = tray.New(rcfg.TotalFrames())
		t.OnQuit(func() { cancel(display.ErrOperatorQuit) })
		if statusURL != "" {
			t.OnStatusPage(func() { openBrowser(statusURL, a.log) })
		}
		observers = append(observers, t)
	}

	for _, o := range observers {
		opts = append(opts, recorder.WithObserver(o))
	}
	rec, err := recorder.New(rcfg, cam, det, a.layout, opts...)
	if err != nil {
		return summary, err
	}

	var runErr error
	if t != nil {
		// The tray loop owns the calling goroutine until the recording ends.
		errCh := make(chan error, 1)
		go func() {
			err := rec.Run(ctx)
			t.Stop()
			errCh <- err
		}()
		t.Run()
		runErr = <-errCh
	} else {
		runErr = rec.Run(ctx)
	}

	if progress != nil {
		_ = progress.Finish()
	}

	a.finish(cat, m, summary, counter.Count(), runErr)
	return summary, runErr
}

// openDevices opens the camera and starts the detector unless they were injected.
func (a *App) openDevices() (capture.Camera, detector.Detector, error) {
	cam := a.camera
	if cam == nil {
		c := a.cfg.Capture
		cam = capture.NewCamera(capture.Config{
			Device: c.Device,
			Width:  c.Width,
			Height: c.Height,
			FPS:    c.FPS,
		})
	}
	if err := cam.Open(); err != nil {
		return nil, nil, fmt.Errorf("open camera: %w", err)
	}

	det := a.detector
	if det == nil {
		d := a.cfg.Detector
		mp, err := detector.NewMediaPipeDetector(detector.Config{
			MinDetectionConf: d.MinDetectionConfidence,
			MinTrackingConf:  d.MinTrackingConfidence,
			Python:           d.Python,
			Script:           d.Script,
		})
		if err != nil {
			_ = cam.Close()
			return nil, nil, fmt.Errorf("start detector: %w", err)
		}
		det = mp
		a.log.Info("using MediaPipe holistic detection")
	}
	return cam, det, nil
}

func (a *App) closeDevices(cam capture.Camera, det detector.Detector) {
	if err := cam.Close(); err != nil {
		a.log.Warn("error closing camera", "error", err)
	}
	if err := det.Close(); err != nil {
		a.log.Warn("error closing detector", "error", err)
	}
}

// openCatalog opens the run catalog and creates the run row.
// It returns a nil catalog when the catalog is disabled.
func (a *App) openCatalog(summary *hooks.Summary) (*catalog.Catalog, string, error) {
	if !a.cfg.Catalog.Enabled {
		return nil, "", nil
	}
	cat, err := catalog.New(a.cfg.Catalog.Path)
	if err != nil {
		return nil, "", fmt.Errorf("open catalog: %w", err)
	}
	run := &catalog.Run{
		Root:           summary.Root,
		Labels:         summary.Labels,
		Sequences:      summary.Sequences,
		SequenceLength: summary.SequenceLength,
		Mode:           summary.Mode,
	}
	if err := cat.Runs().Create(run); err != nil {
		cat.Close()
		return nil, "", fmt.Errorf("create run: %w", err)
	}
	return cat, run.ID, nil
}

// finish records the outcome in the catalog and metrics, then calls the hooks.
// None of these can change the outcome of the run.
func (a *App) finish(cat *catalog.Catalog, m *metrics.Metrics, summary *hooks.Summary, frames int, runErr error) {
	status := catalog.StatusFor(runErr)

	summary.Status = string(status)
	summary.FramesStored = frames
	summary.FinishedAt = time.Now().UTC()
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	if cat != nil {
		if err := cat.Runs().Finish(summary.RunID, status, runErr); err != nil {
			a.log.Warn("failed to finish catalog run", "run", summary.RunID, "error", err)
		}
	}
	m.RunFinished(string(status))

	switch {
	case runErr == nil:
		a.log.Info("recording complete", "run", summary.RunID, "frames", frames)
	case errors.Is(runErr, recorder.ErrCancelled):
		a.log.Info("recording cancelled", "run", summary.RunID, "frames", frames, "cause", runErr)
	default:
		a.log.Error("recording failed", "run", summary.RunID, "frames", frames, "error", runErr)
	}

	a.hooks.Run(context.Background(), summary)
}

// frameCounter counts stored frames for the run summary.
type frameCounter struct {
	recorder.NopObserver
	n atomic.Int64
}

func (c *frameCounter) FrameStored(dataset.Address, *keypoints.Vector) {
	c.n.Add(1)
}

func (c *frameCounter) Count() int {
	return int(c.n.Load())
}

// browserCommand returns the command that opens url in the default browser.
var browserCommand = func(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// openBrowser opens url in the default browser and reaps the opener in the background.
func openBrowser(url string, log *slog.Logger) {
	cmd := browserCommand(url)
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open status page", "url", url, "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warn("status page opener failed", "url", url, "error", err)
		}
	}()
}
