package catalog

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/keypoints"
	"github.com/ayusman/signset/internal/recorder"
)

// Journal is a recorder.Observer that writes progress for one run into the catalog.
// Catalog failures are logged and never stop the recording.
type Journal struct {
	recorder.NopObserver

	catalog *Catalog
	runID   string
	log     *slog.Logger
}

// NewJournal returns a Journal for runID. A nil logger discards output.
func NewJournal(c *Catalog, runID string, log *slog.Logger) *Journal {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Journal{catalog: c, runID: runID, log: log}
}

func (j *Journal) FrameStored(addr dataset.Address, _ *keypoints.Vector) {
	if err := j.catalog.Sequences().RecordFrame(j.runID, addr.Label, addr.Sequence); err != nil {
		j.log.Warn("catalog: record frame", "run", j.runID, "at", addr.String(), "error", err)
	}
}

func (j *Journal) SequenceCompleted(label string, sequence int) {
	if err := j.catalog.Sequences().MarkComplete(j.runID, label, sequence); err != nil {
		j.log.Warn("catalog: mark complete", "run", j.runID, "label", label, "sequence", sequence, "error", err)
	}
}

// StatusFor maps the error returned by recorder.Run to a run status.
func StatusFor(err error) RunStatus {
	switch {
	case err == nil:
		return RunStatusCompleted
	case errors.Is(err, recorder.ErrCancelled):
		return RunStatusCancelled
	default:
		return RunStatusFailed
	}
}
