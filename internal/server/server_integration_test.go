package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/signset/internal/capture"
	"github.com/ayusman/signset/internal/catalog"
	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/metrics"
	"github.com/ayusman/signset/internal/recorder"
)

func TestAPI_RecordingWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	cat, err := catalog.New(filepath.Join(tmpDir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	layout, err := dataset.New(filepath.Join(tmpDir, "MP_Data"))
	if err != nil {
		t.Fatal(err)
	}

	frames := capture.NewBlankFrames(1, 64, 48)
	defer capture.CloseFrames(frames)
	cam := capture.NewMockCamera(frames, true)
	cam.Open()
	defer cam.Close()

	det := detector.NewMockDetector()
	det.SetResult(&detector.Result{RightHand: detector.SyntheticPoints(detector.NumHandLandmarks, 0.3)})

	cfg := recorder.Config{Labels: []string{"hello", "my"}, Sequences: 2, SequenceLength: 3}
	run := &catalog.Run{Root: layout.Root(), Labels: cfg.Labels, Sequences: cfg.Sequences, SequenceLength: cfg.SequenceLength, Mode: "overwrite"}
	if err := cat.Runs().Create(run); err != nil {
		t.Fatal(err)
	}

	m := metrics.New()
	hub := NewHub(nil)
	preview := NewPreview()
	rec, err := recorder.New(cfg, cam, det, layout,
		recorder.WithObserver(catalog.NewJournal(cat, run.ID, nil)),
		recorder.WithObserver(m),
		recorder.WithObserver(hub),
		recorder.WithObserver(preview),
	)
	if err != nil {
		t.Fatal(err)
	}

	runErr := rec.Run(context.Background())
	if runErr != nil {
		t.Fatalf("Run() error = %v", runErr)
	}
	if err := cat.Runs().Finish(run.ID, catalog.StatusFor(runErr), runErr); err != nil {
		t.Fatal(err)
	}

	srv := New(Config{Catalog: cat, Layout: layout, SequenceLength: cfg.SequenceLength, Metrics: m, Hub: hub, Preview: preview})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. The run is listed as completed with every frame counted
	resp, err := client.Get(ts.URL + "/api/runs/" + run.ID)
	if err != nil {
		t.Fatalf("GET /api/runs/%s error = %v", run.ID, err)
	}
	var detail struct {
		Status       string                     `json:"status"`
		FramesStored int                        `json:"frames_stored"`
		Progress     []catalog.SequenceProgress `json:"progress"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()

	if detail.Status != "completed" || detail.FramesStored != 12 {
		t.Errorf("run detail = %+v, want completed with 12 frames", detail)
	}
	if len(detail.Progress) != 4 {
		t.Errorf("progress rows = %d, want 4", len(detail.Progress))
	}

	// 2. The dataset summary sees both labels complete
	resp, err = client.Get(ts.URL + "/api/dataset")
	if err != nil {
		t.Fatalf("GET /api/dataset error = %v", err)
	}
	var summary struct {
		Labels []dataset.LabelStats `json:"labels"`
	}
	json.NewDecoder(resp.Body).Decode(&summary)
	resp.Body.Close()

	if len(summary.Labels) != 2 {
		t.Fatalf("labels = %+v", summary.Labels)
	}
	for _, l := range summary.Labels {
		if l.Complete != 2 || l.Presence["right_hand"] != 1 {
			t.Errorf("%s = %+v", l.Label, l)
		}
	}

	// 3. A single frame can be fetched
	resp, err = client.Get(ts.URL + "/api/dataset/my/1/2")
	if err != nil {
		t.Fatalf("GET frame error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("frame status = %d, want 200", resp.StatusCode)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
