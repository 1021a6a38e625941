package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	result   *Result
	err      error
	calls    int
	onDetect func(call int)
	closed   bool
}

// NewMockDetector creates a new MockDetector that finds nothing.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetResult sets the result that will be returned by Detect.
func (m *MockDetector) SetResult(r *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = r
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// OnDetect registers a hook called with the 1-based call number before Detect returns.
func (m *MockDetector) OnDetect(fn func(call int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDetect = fn
}

// Detect returns the pre-configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	m.calls++
	call, hook, result, err := m.calls, m.onDetect, m.result, m.err
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the mock as closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SyntheticPose returns 33 pose landmarks with distinct, predictable values.
// Landmark i has X=i/100, Y=i/100+0.001, Z=-i/1000 and Visibility=0.5+i/100.
func SyntheticPose() []PoseLandmark {
	pose := make([]PoseLandmark, NumPoseLandmarks)
	for i := range pose {
		f := float64(i)
		pose[i] = PoseLandmark{X: f / 100, Y: f/100 + 0.001, Z: -f / 1000, Visibility: 0.5 + f/100}
	}
	return pose
}

// SyntheticPoints returns n points offset by base so groups stay distinguishable.
func SyntheticPoints(n int, base float64) []Point3D {
	points := make([]Point3D, n)
	for i := range points {
		f := float64(i)
		points[i] = Point3D{X: base + f/1000, Y: base + f/500, Z: -f / 10000}
	}
	return points
}

// SyntheticResult returns a result with every group present.
func SyntheticResult() *Result {
	return &Result{
		Pose:      SyntheticPose(),
		Face:      SyntheticPoints(NumFaceLandmarks, 0.1),
		LeftHand:  SyntheticPoints(NumHandLandmarks, 0.6),
		RightHand: SyntheticPoints(NumHandLandmarks, 0.3),
	}
}
