// Package detector provides landmark detection interfaces and types for sign capture.
package detector

import (
	"fmt"
	"strings"
)

// Landmark counts per group following the MediaPipe Holistic model.
// See: https://developers.google.com/mediapipe/solutions/vision/holistic_landmarker
const (
	NumPoseLandmarks = 33
	NumFaceLandmarks = 468
	NumHandLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PoseLandmark is a body landmark with its visibility score.
type PoseLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Result is the per-frame output of a holistic landmark model.
// A nil group means the model found nothing for that body part.
type Result struct {
	Pose      []PoseLandmark `json:"pose"`
	Face      []Point3D      `json:"face"`
	LeftHand  []Point3D      `json:"left_hand"`
	RightHand []Point3D      `json:"right_hand"`
}

// Empty reports whether no landmark group is present.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	return len(r.Pose) == 0 && len(r.Face) == 0 && len(r.LeftHand) == 0 && len(r.RightHand) == 0
}

// Summary returns a compact description such as "pose=33 face=- lh=21 rh=-".
func (r *Result) Summary() string {
	if r == nil {
		r = &Result{}
	}
	count := func(n int) string {
		if n == 0 {
			return "-"
		}
		return fmt.Sprint(n)
	}

	var b strings.Builder
	b.WriteString("pose=" + count(len(r.Pose)))
	b.WriteString(" face=" + count(len(r.Face)))
	b.WriteString(" lh=" + count(len(r.LeftHand)))
	b.WriteString(" rh=" + count(len(r.RightHand)))
	return b.String()
}
