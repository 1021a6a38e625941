// Package recorder drives the label x sequence x frame collection loop.
//
// For every configured label and sequence index the recorder pulls
// SequenceLength frames from a FrameSource, runs the detector on each one,
// encodes the result into a keypoints.Vector and stores it at
// (label, sequence, frame). Frame 0 of each sequence is preceded by a cue and
// a fixed preparation delay so the performer can reset.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/keypoints"
)

var (
	// ErrCancelled is returned when the run stops because its context was cancelled.
	ErrCancelled = errors.New("recording cancelled")
	// ErrSourceExhausted is returned when the frame source can no longer produce frames.
	ErrSourceExhausted = errors.New("frame source exhausted")
)

// FrameSource produces camera frames. The caller owns and closes each frame.
type FrameSource interface {
	ReadFrame() (*gocv.Mat, error)
}

// Sink is where encoded frames end up. dataset.Layout implements it.
type Sink interface {
	EnsureSequenceDir(label string, sequence int) error
	Provision(ranges []dataset.Range) error
	Store(addr dataset.Address, v *keypoints.Vector) error
	NextSequence(label string) (int, error)
}

// State is the per-sequence recording state.
type State int

const (
	Idle State = iota
	AwaitingFirstFrame
	Collecting
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingFirstFrame:
		return "awaiting_first_frame"
	case Collecting:
		return "collecting"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithObserver adds an observer. Observers are notified in the order they were added.
func WithObserver(o Observer) Option {
	return func(r *Recorder) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// WithHold replaces the pause taken after frame 0 of every sequence is shown.
// The hold runs for the full prep delay and cannot be cut short. The default
// sleeps.
func WithHold(hold func(time.Duration)) Option {
	return func(r *Recorder) {
		if hold != nil {
			r.sleep = hold
		}
	}
}

// Recorder records sequences for a fixed Config.
type Recorder struct {
	cfg       Config
	source    FrameSource
	detector  detector.Detector
	sink      Sink
	observers Observers
	log       *slog.Logger
	sleep     func(time.Duration)

	mu    sync.Mutex
	state State
}

// New creates a Recorder. cfg is copied and validated.
func New(cfg Config, source FrameSource, det detector.Detector, sink Sink, opts ...Option) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recorder config: %w", err)
	}
	if source == nil || det == nil || sink == nil {
		return nil, errors.New("recorder needs a frame source, a detector and a sink")
	}

	r := &Recorder{
		cfg:      cfg.clone(),
		source:   source,
		detector: det,
		sink:     sink,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns a copy of the recorder configuration.
func (r *Recorder) Config() Config {
	return r.cfg.clone()
}

// State returns the state of the sequence currently being recorded.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Plan returns the sequence range each label will be recorded into.
func (r *Recorder) Plan() ([]dataset.Range, error) {
	return plan(r.cfg, r.sink)
}

// Plan returns the sequence range each label of cfg will be recorded into.
// In append mode the range starts after the label's highest existing sequence.
func Plan(cfg Config, sink Sink) ([]dataset.Range, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recorder config: %w", err)
	}
	return plan(cfg.clone(), sink)
}

func plan(cfg Config, sink Sink) ([]dataset.Range, error) {
	ranges := make([]dataset.Range, 0, len(cfg.Labels))
	for _, label := range cfg.Labels {
		start := 0
		if cfg.Mode == ModeAppend {
			next, err := sink.NextSequence(label)
			if err != nil {
				return nil, fmt.Errorf("plan %s: %w", label, err)
			}
			start = next
		}
		ranges = append(ranges, dataset.Range{Label: label, Start: start, Count: cfg.Sequences})
	}
	return ranges, nil
}

// Run provisions every sequence directory and then records all labels in order.
// It stops at the first fatal error. Frames already stored stay on disk.
func (r *Recorder) Run(ctx context.Context) error {
	plan, err := r.Plan()
	if err != nil {
		return err
	}
	if err := r.sink.Provision(plan); err != nil {
		return fmt.Errorf("provision dataset: %w", err)
	}

	r.log.Info("recording started",
		"labels", len(plan),
		"sequences", r.cfg.Sequences,
		"sequence_length", r.cfg.SequenceLength,
		"mode", string(r.cfg.Mode))

	for _, rng := range plan {
		for seq := rng.Start; seq < rng.End(); seq++ {
			if err := r.RecordSequence(ctx, rng.Label, seq); err != nil {
				return err
			}
		}
	}

	r.log.Info("recording finished", "frames", r.cfg.TotalFrames())
	return nil
}

// RecordSequence records SequenceLength frames into (label, sequence).
// The sequence directory is created if it does not exist yet.
func (r *Recorder) RecordSequence(ctx context.Context, label string, sequence int) error {
	if err := r.sink.EnsureSequenceDir(label, sequence); err != nil {
		return fmt.Errorf("prepare %s/%d: %w", label, sequence, err)
	}

	r.setState(AwaitingFirstFrame)
	defer func() {
		if r.State() != Complete {
			r.setState(Idle)
		}
	}()

	for frame := 0; frame < r.cfg.SequenceLength; frame++ {
		addr := dataset.Address{Label: label, Sequence: sequence, Frame: frame}

		if err := cancelled(ctx); err != nil {
			r.log.Info("recording cancelled", "at", addr.String())
			return err
		}

		if err := r.recordFrame(ctx, addr); err != nil {
			return err
		}

		if frame == 0 {
			r.setState(Collecting)
		}
	}

	r.setState(Complete)
	r.observers.SequenceCompleted(label, sequence)
	r.log.Debug("sequence complete", "label", label, "sequence", sequence)
	return nil
}

func (r *Recorder) recordFrame(ctx context.Context, addr dataset.Address) error {
	img, err := r.source.ReadFrame()
	if err != nil {
		return fmt.Errorf("%w: read frame %s: %w", ErrSourceExhausted, addr, err)
	}
	defer img.Close()

	result, err := r.detector.Detect(img)
	if err != nil {
		r.log.Debug("detection failed, storing empty frame", "at", addr.String(), "error", err)
		result = nil
	}
	r.log.Debug("frame detected", "at", addr.String(), "landmarks", result.Summary())

	vec := keypoints.Encode(result)

	if addr.Frame == 0 {
		r.observers.SequenceStarted(addr)
	}
	r.observers.FrameEncoded(addr, img, result)
	if addr.Frame == 0 && r.cfg.PrepDelay > 0 {
		r.sleep(r.cfg.PrepDelay)
	}

	if err := cancelled(ctx); err != nil {
		r.log.Info("recording cancelled before store", "at", addr.String())
		return err
	}

	if err := r.sink.Store(addr, &vec); err != nil {
		return fmt.Errorf("store %s: %w", addr, err)
	}
	r.observers.FrameStored(addr, &vec)
	return nil
}

func cancelled(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil && cause != err {
		return fmt.Errorf("%w: %w: %w", ErrCancelled, err, cause)
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
