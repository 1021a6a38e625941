package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signset/internal/capture"
	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/keypoints"
)

type fixture struct {
	layout *dataset.Layout
	camera *capture.MockCamera
	det    *detector.MockDetector
	frames []*gocv.Mat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	layout, err := dataset.New(filepath.Join(t.TempDir(), "MP_Data"))
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}

	frames := capture.NewBlankFrames(1, 64, 48)
	cam := capture.NewMockCamera(frames, true)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		cam.Close()
		capture.CloseFrames(frames)
	})

	return &fixture{layout: layout, camera: cam, det: detector.NewMockDetector(), frames: frames}
}

func testConfig(labels ...string) Config {
	return Config{
		Labels:         labels,
		Sequences:      2,
		SequenceLength: 3,
		Mode:           ModeOverwrite,
	}
}

func newTestRecorder(t *testing.T, f *fixture, cfg Config, opts ...Option) *Recorder {
	t.Helper()
	r, err := New(cfg, f.camera, f.det, f.layout, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.sleep = func(time.Duration) {}
	return r
}

// eventLog records observer events as strings.
type eventLog struct {
	events []string
}

func (e *eventLog) SequenceStarted(addr dataset.Address) {
	e.events = append(e.events, "started "+addr.String())
}

func (e *eventLog) FrameEncoded(addr dataset.Address, _ *gocv.Mat, _ *detector.Result) {
	e.events = append(e.events, "encoded "+addr.String())
}

func (e *eventLog) FrameStored(addr dataset.Address, _ *keypoints.Vector) {
	e.events = append(e.events, "stored "+addr.String())
}

func (e *eventLog) SequenceCompleted(label string, sequence int) {
	e.events = append(e.events, "completed "+dataset.Address{Label: label, Sequence: sequence}.String())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no labels", mutate: func(c *Config) { c.Labels = nil }, wantErr: true},
		{name: "duplicate label", mutate: func(c *Config) { c.Labels = []string{"hello", "hello"} }, wantErr: true},
		{name: "label with separator", mutate: func(c *Config) { c.Labels = []string{"a/b"} }, wantErr: true},
		{name: "zero sequences", mutate: func(c *Config) { c.Sequences = 0 }, wantErr: true},
		{name: "negative length", mutate: func(c *Config) { c.SequenceLength = -1 }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.PrepDelay = -time.Second }, wantErr: true},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "replace" }, wantErr: true},
		{name: "empty mode", mutate: func(c *Config) { c.Mode = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Sequences != 30 || cfg.SequenceLength != 30 {
		t.Errorf("sequences/length = %d/%d, want 30/30", cfg.Sequences, cfg.SequenceLength)
	}
	if cfg.PrepDelay != 2*time.Second {
		t.Errorf("PrepDelay = %v, want 2s", cfg.PrepDelay)
	}
	if cfg.TotalFrames() != 4*30*30 {
		t.Errorf("TotalFrames() = %d, want %d", cfg.TotalFrames(), 4*30*30)
	}
}

func TestNew_CopiesConfig(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig("hello")
	r := newTestRecorder(t, f, cfg)

	cfg.Labels[0] = "changed"
	if got := r.Config().Labels[0]; got != "hello" {
		t.Errorf("recorder label = %q, want hello", got)
	}
}

func TestRecorder_Run_NoLandmarks(t *testing.T) {
	f := newFixture(t)
	r := newTestRecorder(t, f, testConfig("hello"))

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	count := 0
	for seq := 0; seq < 2; seq++ {
		frames, err := f.layout.Frames("hello", seq)
		if err != nil {
			t.Fatalf("Frames(%d) error = %v", seq, err)
		}
		if len(frames) != 3 {
			t.Fatalf("sequence %d has %d frames, want 3", seq, len(frames))
		}
		for _, frame := range frames {
			v, err := f.layout.Load(dataset.Address{Label: "hello", Sequence: seq, Frame: frame})
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !v.IsZero() {
				t.Errorf("hello/%d/%d should be all zeros", seq, frame)
			}
			count++
		}
	}
	if count != 6 {
		t.Errorf("stored %d vectors, want 6", count)
	}
	if f.camera.Reads() != 6 {
		t.Errorf("camera reads = %d, want 6", f.camera.Reads())
	}
	if r.State() != Complete {
		t.Errorf("State() = %v, want complete", r.State())
	}
}

func TestRecorder_Run_StoresEncodedResult(t *testing.T) {
	f := newFixture(t)
	result := detector.SyntheticResult()
	f.det.SetResult(result)

	cfg := testConfig("hello", "name")
	cfg.Sequences = 1
	cfg.SequenceLength = 1
	r := newTestRecorder(t, f, cfg)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := keypoints.Encode(result)
	for _, label := range cfg.Labels {
		got, err := f.layout.Load(dataset.Address{Label: label})
		if err != nil {
			t.Fatalf("Load(%s) error = %v", label, err)
		}
		if got != want {
			t.Errorf("%s/0/0 does not match the encoded result", label)
		}
	}
}

func TestRecorder_EventOrder(t *testing.T) {
	f := newFixture(t)
	events := &eventLog{}

	cfg := testConfig("hello")
	cfg.Sequences = 1
	cfg.SequenceLength = 2
	cfg.PrepDelay = 5 * time.Millisecond
	r := newTestRecorder(t, f, cfg, WithObserver(events))

	var slept []time.Duration
	r.sleep = func(d time.Duration) {
		slept = append(slept, d)
		events.events = append(events.events, "sleep")
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		"started hello/0/0",
		"encoded hello/0/0",
		"sleep",
		"stored hello/0/0",
		"encoded hello/0/1",
		"stored hello/0/1",
		"completed hello/0/0",
	}
	if len(events.events) != len(want) {
		t.Fatalf("events = %v, want %v", events.events, want)
	}
	for i := range want {
		if events.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events.events[i], want[i])
		}
	}
	if len(slept) != 1 || slept[0] != cfg.PrepDelay {
		t.Errorf("slept = %v, want one prep delay of %v", slept, cfg.PrepDelay)
	}
}

func TestRecorder_WithHold(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig("hello", "leo")
	cfg.PrepDelay = time.Millisecond

	var held []time.Duration
	r, err := New(cfg, f.camera, f.det, f.layout, WithHold(func(d time.Duration) {
		held = append(held, d)
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// One hold per sequence: 2 labels x 2 sequences.
	if len(held) != 4 {
		t.Fatalf("held %d times, want 4", len(held))
	}
	for i, d := range held {
		if d != cfg.PrepDelay {
			t.Errorf("hold %d = %v, want %v", i, d, cfg.PrepDelay)
		}
	}
}

func TestRecorder_Run_CancelDuringFrame(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The second detection belongs to hello/0/1.
	f.det.OnDetect(func(call int) {
		if call == 2 {
			cancel()
		}
	})

	r := newTestRecorder(t, f, testConfig("hello", "leo"))
	err := r.Run(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}

	frames, err := f.layout.Frames("hello", 0)
	if err != nil {
		t.Fatalf("Frames() error = %v", err)
	}
	if len(frames) != 1 || frames[0] != 0 {
		t.Errorf("hello/0 frames = %v, want [0]", frames)
	}

	for _, probe := range []struct {
		label string
		seq   int
	}{{"hello", 1}, {"leo", 0}, {"leo", 1}} {
		frames, err := f.layout.Frames(probe.label, probe.seq)
		if err != nil {
			t.Fatalf("Frames(%s, %d) error = %v", probe.label, probe.seq, err)
		}
		if len(frames) != 0 {
			t.Errorf("%s/%d should be empty, got %v", probe.label, probe.seq, frames)
		}
	}
	if f.det.Calls() != 2 {
		t.Errorf("detector calls = %d, want 2", f.det.Calls())
	}
}

func TestRecorder_Run_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRecorder(t, f, testConfig("hello"))
	if err := r.Run(ctx); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}
	if f.camera.Reads() != 0 {
		t.Errorf("camera reads = %d, want 0", f.camera.Reads())
	}

	// Provisioning still happens eagerly.
	if _, err := os.Stat(f.layout.SequenceDir("hello", 1)); err != nil {
		t.Errorf("sequence dir should exist: %v", err)
	}
}

func TestRecorder_Run_SourceExhausted(t *testing.T) {
	f := newFixture(t)
	frames := capture.NewBlankFrames(4, 64, 48)
	defer capture.CloseFrames(frames)

	cam := capture.NewMockCamera(frames, false)
	cam.Open()
	defer cam.Close()

	r, err := New(testConfig("hello"), cam, f.det, f.layout)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.sleep = func(time.Duration) {}

	err = r.Run(context.Background())
	if !errors.Is(err, ErrSourceExhausted) {
		t.Fatalf("Run() error = %v, want ErrSourceExhausted", err)
	}
	if !errors.Is(err, capture.ErrNoFrame) {
		t.Errorf("error should wrap capture.ErrNoFrame, got %v", err)
	}

	seq1, _ := f.layout.Frames("hello", 1)
	if len(seq1) != 1 {
		t.Errorf("hello/1 frames = %v, want only frame 0", seq1)
	}
}

func TestRecorder_Run_DetectorErrorStoresZeros(t *testing.T) {
	f := newFixture(t)
	f.det.SetError(errors.New("model crashed"))

	cfg := testConfig("hello")
	cfg.Sequences = 1
	r := newTestRecorder(t, f, cfg)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for frame := 0; frame < cfg.SequenceLength; frame++ {
		v, err := f.layout.Load(dataset.Address{Label: "hello", Frame: frame})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !v.IsZero() {
			t.Errorf("frame %d should be all zeros", frame)
		}
	}
}

type failingSink struct {
	*dataset.Layout
	failAt dataset.Address
	err    error
}

func (s *failingSink) Store(addr dataset.Address, v *keypoints.Vector) error {
	if addr == s.failAt {
		return s.err
	}
	return s.Layout.Store(addr, v)
}

func TestRecorder_Run_StoreFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	diskFull := errors.New("no space left on device")
	sink := &failingSink{
		Layout: f.layout,
		failAt: dataset.Address{Label: "hello", Sequence: 0, Frame: 1},
		err:    diskFull,
	}

	r, err := New(testConfig("hello"), f.camera, f.det, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.sleep = func(time.Duration) {}

	err = r.Run(context.Background())
	if !errors.Is(err, diskFull) {
		t.Fatalf("Run() error = %v, want the store error", err)
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrSourceExhausted) {
		t.Errorf("store failure should not look like cancellation or exhaustion: %v", err)
	}
	if f.camera.Reads() != 2 {
		t.Errorf("camera reads = %d, want 2", f.camera.Reads())
	}
}

func TestRecorder_Plan_AppendMode(t *testing.T) {
	f := newFixture(t)
	for seq := 0; seq < 3; seq++ {
		if err := f.layout.EnsureSequenceDir("hello", seq); err != nil {
			t.Fatalf("EnsureSequenceDir() error = %v", err)
		}
	}

	cfg := testConfig("hello", "leo")
	cfg.Mode = ModeAppend
	r := newTestRecorder(t, f, cfg)

	plan, err := r.Plan()
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := []dataset.Range{
		{Label: "hello", Start: 3, Count: 2},
		{Label: "leo", Start: 0, Count: 2},
	}
	if len(plan) != len(want) {
		t.Fatalf("Plan() = %v, want %v", plan, want)
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Errorf("plan[%d] = %+v, want %+v", i, plan[i], want[i])
		}
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	seqs, err := f.layout.Sequences("hello")
	if err != nil {
		t.Fatalf("Sequences() error = %v", err)
	}
	if len(seqs) != 5 {
		t.Errorf("hello sequences = %v, want 0..4", seqs)
	}
}

func TestRecorder_Plan_OverwriteMode(t *testing.T) {
	f := newFixture(t)
	f.layout.EnsureSequenceDir("hello", 7)

	r := newTestRecorder(t, f, testConfig("hello"))
	plan, err := r.Plan()
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan[0].Start != 0 {
		t.Errorf("overwrite plan should start at 0, got %d", plan[0].Start)
	}
}

func TestPlan(t *testing.T) {
	f := newFixture(t)
	f.layout.EnsureSequenceDir("leo", 1)

	cfg := testConfig("hello", "leo")
	cfg.Mode = ModeAppend
	plan, err := Plan(cfg, f.layout)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan[0].Start != 0 || plan[1].Start != 2 {
		t.Errorf("Plan() = %+v, want starts 0 and 2", plan)
	}

	if _, err := Plan(Config{Labels: []string{"hello"}}, f.layout); err == nil {
		t.Error("Plan() should reject an invalid config")
	}
}

func TestRecorder_States(t *testing.T) {
	f := newFixture(t)
	var seen []State

	cfg := testConfig("hello")
	cfg.Sequences = 1
	r := newTestRecorder(t, f, cfg)
	f.det.OnDetect(func(int) { seen = append(seen, r.State()) })

	if r.State() != Idle {
		t.Errorf("initial State() = %v, want idle", r.State())
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []State{AwaitingFirstFrame, Collecting, Collecting}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("state during frame %d = %v, want %v", i, seen[i], want[i])
		}
	}
	if r.State() != Complete {
		t.Errorf("final State() = %v, want complete", r.State())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		Idle:               "idle",
		AwaitingFirstFrame: "awaiting_first_frame",
		Collecting:         "collecting",
		Complete:           "complete",
		State(9):           "state(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestObservers_FanOut(t *testing.T) {
	a, b := &eventLog{}, &eventLog{}
	obs := Observers{a, NopObserver{}, b}

	obs.SequenceStarted(dataset.Address{Label: "my"})
	obs.SequenceCompleted("my", 0)

	for _, log := range []*eventLog{a, b} {
		if len(log.events) != 2 {
			t.Errorf("events = %v, want 2", log.events)
		}
	}
}

func TestRecorder_Run_CancelCause(t *testing.T) {
	f := newFixture(t)
	quit := errors.New("operator quit")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(quit)

	r := newTestRecorder(t, f, testConfig("hello"))
	err := r.Run(ctx)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) || !errors.Is(err, quit) {
		t.Errorf("Run() error = %v, want ErrCancelled wrapping context.Canceled and the cause", err)
	}
}
