// Package keypoints encodes holistic detection results into fixed-length frame vectors.
//
// A frame vector is the concatenation, in this order, of:
//
//	pose        33 landmarks x [x, y, z, visibility] = 132
//	face       468 landmarks x [x, y, z]             = 1404
//	left hand   21 landmarks x [x, y, z]             = 63
//	right hand  21 landmarks x [x, y, z]             = 63
//
// for a total length of 1662. Downstream training code depends on this exact
// layout, so groups the detector could not find are filled with zeros rather
// than omitted.
package keypoints

import (
	"fmt"

	"github.com/ayusman/signset/internal/detector"
)

// Sub-vector sizes.
const (
	PoseSize = detector.NumPoseLandmarks * 4
	FaceSize = detector.NumFaceLandmarks * 3
	HandSize = detector.NumHandLandmarks * 3

	// Length is the total number of values in a frame vector.
	Length = PoseSize + FaceSize + 2*HandSize
)

// Group identifies one landmark group within a frame vector.
type Group int

const (
	Pose Group = iota
	Face
	LeftHand
	RightHand
)

// Groups lists every group in vector order.
var Groups = []Group{Pose, Face, LeftHand, RightHand}

var layout = [...]struct {
	name   string
	offset int
	size   int
}{
	Pose:      {"pose", 0, PoseSize},
	Face:      {"face", PoseSize, FaceSize},
	LeftHand:  {"left_hand", PoseSize + FaceSize, HandSize},
	RightHand: {"right_hand", PoseSize + FaceSize + HandSize, HandSize},
}

// String returns the group name used in logs, metrics and JSON.
func (g Group) String() string {
	if g < Pose || g > RightHand {
		return fmt.Sprintf("group(%d)", int(g))
	}
	return layout[g].name
}

// Offset returns the index of the group's first value.
func (g Group) Offset() int { return layout[g].offset }

// Size returns the number of values the group occupies.
func (g Group) Size() int { return layout[g].size }

// Vector is one encoded frame.
type Vector [Length]float64

// Encode flattens a detection result into a frame vector.
//
// Points are written in landmark order, then field order. Absent groups stay
// zero. A group with fewer points than expected leaves the tail zero and extra
// points are ignored. A nil result encodes to the zero vector.
func Encode(r *detector.Result) Vector {
	var v Vector
	if r == nil {
		return v
	}

	pose := v.Slice(Pose)
	for i, p := range r.Pose {
		if i >= detector.NumPoseLandmarks {
			break
		}
		pose[i*4] = p.X
		pose[i*4+1] = p.Y
		pose[i*4+2] = p.Z
		pose[i*4+3] = p.Visibility
	}

	putPoints(v.Slice(Face), r.Face)
	putPoints(v.Slice(LeftHand), r.LeftHand)
	putPoints(v.Slice(RightHand), r.RightHand)

	return v
}

func putPoints(dst []float64, points []detector.Point3D) {
	for i, p := range points {
		if i*3+2 >= len(dst) {
			return
		}
		dst[i*3] = p.X
		dst[i*3+1] = p.Y
		dst[i*3+2] = p.Z
	}
}

// Slice returns the part of v that belongs to g. The slice aliases v.
func (v *Vector) Slice(g Group) []float64 {
	return v[g.Offset() : g.Offset()+g.Size()]
}

// Groups splits v into its four group slices, in layout order.
func (v *Vector) Groups() [4][]float64 {
	var out [4][]float64
	for i, g := range Groups {
		out[i] = v.Slice(g)
	}
	return out
}

// Present reports whether any value of the group is non-zero.
func (v *Vector) Present(g Group) bool {
	for _, x := range v.Slice(g) {
		if x != 0 {
			return true
		}
	}
	return false
}

// IsZero reports whether every value is zero.
func (v *Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// FromSlice copies values into a Vector. The slice must have exactly Length values.
func FromSlice(values []float64) (Vector, error) {
	var v Vector
	if len(values) != Length {
		return v, fmt.Errorf("frame vector has %d values, want %d", len(values), Length)
	}
	copy(v[:], values)
	return v, nil
}
