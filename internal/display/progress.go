package display

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/keypoints"
	"github.com/ayusman/signset/internal/recorder"
)

// Progress renders a frame counter for the whole run.
type Progress struct {
	recorder.NopObserver

	bar *progressbar.ProgressBar
}

// NewProgress returns a progress bar over total frames written to w.
func NewProgress(w io.Writer, total int) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Recording"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(0),
		progressbar.OptionClearOnFinish(),
	)
	return &Progress{bar: bar}
}

// NewTerminalProgress returns a progress bar on stderr, or nil when stderr is not a terminal.
func NewTerminalProgress(total int) *Progress {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return NewProgress(os.Stderr, total)
}

func (p *Progress) SequenceStarted(addr dataset.Address) {
	p.bar.Describe(fmt.Sprintf("%s #%d", addr.Label, addr.Sequence))
}

func (p *Progress) FrameStored(dataset.Address, *keypoints.Vector) {
	p.bar.Add(1)
}

// Count returns how many frames have been counted.
func (p *Progress) Count() int {
	return int(p.bar.State().CurrentNum)
}

// Finish completes the bar.
func (p *Progress) Finish() error {
	return p.bar.Finish()
}
