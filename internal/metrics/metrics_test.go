package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/keypoints"
)

func TestMetrics_FrameStored(t *testing.T) {
	m := New()

	poseOnly := keypoints.Encode(&detector.Result{Pose: detector.SyntheticPose()})
	empty := keypoints.Encode(nil)

	m.FrameStored(dataset.Address{Label: "hello"}, &poseOnly)
	m.FrameStored(dataset.Address{Label: "hello", Frame: 1}, &empty)
	m.FrameStored(dataset.Address{Label: "leo"}, nil)

	if got := testutil.ToFloat64(m.framesStored.WithLabelValues("hello")); got != 2 {
		t.Errorf("frames stored for hello = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.framesStored.WithLabelValues("leo")); got != 1 {
		t.Errorf("frames stored for leo = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.groupsAbsent.WithLabelValues("pose")); got != 1 {
		t.Errorf("pose absent = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.groupsAbsent.WithLabelValues("face")); got != 2 {
		t.Errorf("face absent = %v, want 2", got)
	}
}

func TestMetrics_Runs(t *testing.T) {
	m := New()

	m.RunStarted()
	if got := testutil.ToFloat64(m.activeRuns); got != 1 {
		t.Errorf("active runs = %v, want 1", got)
	}

	m.SequenceCompleted("my", 0)
	m.RunFinished("cancelled")

	if got := testutil.ToFloat64(m.activeRuns); got != 0 {
		t.Errorf("active runs = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("cancelled")); got != 1 {
		t.Errorf("cancelled runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sequencesCompleted.WithLabelValues("my")); got != 1 {
		t.Errorf("sequences completed = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SequenceCompleted("name", 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `signset_sequences_completed_total{label="name"} 1`) {
		t.Errorf("body missing sequence counter:\n%s", rec.Body.String())
	}
}
