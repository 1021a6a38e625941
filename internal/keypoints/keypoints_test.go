package keypoints

import (
	"testing"

	"github.com/ayusman/signset/internal/detector"
)

func TestLayoutConstants(t *testing.T) {
	if Length != 1662 {
		t.Fatalf("Length = %d, want 1662", Length)
	}

	want := []struct {
		group  Group
		offset int
		size   int
		name   string
	}{
		{Pose, 0, 132, "pose"},
		{Face, 132, 1404, "face"},
		{LeftHand, 1536, 63, "left_hand"},
		{RightHand, 1599, 63, "right_hand"},
	}
	for _, w := range want {
		if w.group.Offset() != w.offset || w.group.Size() != w.size {
			t.Errorf("%s: offset/size = %d/%d, want %d/%d", w.name, w.group.Offset(), w.group.Size(), w.offset, w.size)
		}
		if w.group.String() != w.name {
			t.Errorf("String() = %q, want %q", w.group.String(), w.name)
		}
	}

	last := RightHand
	if last.Offset()+last.Size() != Length {
		t.Error("groups do not cover the whole vector")
	}
}

func TestEncode_AllAbsent(t *testing.T) {
	tests := []struct {
		name   string
		result *detector.Result
	}{
		{name: "nil result", result: nil},
		{name: "zero result", result: &detector.Result{}},
		{name: "empty slices", result: &detector.Result{Pose: []detector.PoseLandmark{}, Face: []detector.Point3D{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Encode(tt.result)
			if len(v) != Length {
				t.Fatalf("len = %d, want %d", len(v), Length)
			}
			if !v.IsZero() {
				t.Error("expected all-zero vector")
			}
		})
	}
}

func TestEncode_PoseOnly(t *testing.T) {
	pose := detector.SyntheticPose()
	v := Encode(&detector.Result{Pose: pose})

	for i, p := range pose {
		got := v[i*4 : i*4+4]
		want := []float64{p.X, p.Y, p.Z, p.Visibility}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("pose landmark %d field %d = %v, want %v", i, j, got[j], want[j])
			}
		}
	}

	for i := PoseSize; i < Length; i++ {
		if v[i] != 0 {
			t.Fatalf("v[%d] = %v, want 0", i, v[i])
		}
	}

	if !v.Present(Pose) {
		t.Error("pose should be present")
	}
	for _, g := range []Group{Face, LeftHand, RightHand} {
		if v.Present(g) {
			t.Errorf("%s should be absent", g)
		}
	}
}

func TestEncode_GroupOrder(t *testing.T) {
	result := detector.SyntheticResult()
	v := Encode(result)

	t.Run("face follows pose", func(t *testing.T) {
		face := v.Slice(Face)
		for i, p := range result.Face {
			if face[i*3] != p.X || face[i*3+1] != p.Y || face[i*3+2] != p.Z {
				t.Fatalf("face point %d mismatch", i)
			}
		}
	})

	t.Run("left hand then right hand", func(t *testing.T) {
		lh := v.Slice(LeftHand)
		rh := v.Slice(RightHand)
		if lh[0] != result.LeftHand[0].X {
			t.Errorf("left hand first value = %v, want %v", lh[0], result.LeftHand[0].X)
		}
		if rh[0] != result.RightHand[0].X {
			t.Errorf("right hand first value = %v, want %v", rh[0], result.RightHand[0].X)
		}
		last := result.RightHand[detector.NumHandLandmarks-1]
		if v[Length-1] != last.Z {
			t.Errorf("last value = %v, want right hand last Z %v", v[Length-1], last.Z)
		}
	})

	t.Run("right hand only leaves left hand zero", func(t *testing.T) {
		only := Encode(&detector.Result{RightHand: result.RightHand})
		if only.Present(LeftHand) {
			t.Error("left hand should be zero")
		}
		if !only.Present(RightHand) {
			t.Error("right hand should be present")
		}
	})
}

func TestEncode_ShortAndLongGroups(t *testing.T) {
	short := detector.SyntheticPoints(5, 0.5)
	long := detector.SyntheticPoints(detector.NumHandLandmarks+4, 0.5)

	v := Encode(&detector.Result{LeftHand: short, RightHand: long})

	lh := v.Slice(LeftHand)
	for i := 5 * 3; i < HandSize; i++ {
		if lh[i] != 0 {
			t.Fatalf("left hand tail[%d] = %v, want 0", i, lh[i])
		}
	}

	rh := v.Slice(RightHand)
	if rh[HandSize-1] != long[detector.NumHandLandmarks-1].Z {
		t.Errorf("right hand should hold the first %d points", detector.NumHandLandmarks)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	result := detector.SyntheticResult()
	if Encode(result) != Encode(result) {
		t.Error("Encode should be deterministic")
	}
}

func TestFromSlice(t *testing.T) {
	if _, err := FromSlice(make([]float64, 10)); err == nil {
		t.Error("expected error for short slice")
	}

	values := make([]float64, Length)
	values[Length-1] = 42
	v, err := FromSlice(values)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if v[Length-1] != 42 {
		t.Errorf("last value = %v, want 42", v[Length-1])
	}
}

func TestVector_Groups(t *testing.T) {
	result := &detector.Result{RightHand: detector.SyntheticPoints(detector.NumHandLandmarks, 0.3)}
	v := Encode(result)

	groups := v.Groups()
	for i, g := range Groups {
		if len(groups[i]) != g.Size() {
			t.Errorf("%s: len = %d, want %d", g, len(groups[i]), g.Size())
		}
	}
	if groups[3][0] != 0.3 {
		t.Errorf("right hand first value = %v, want 0.3", groups[3][0])
	}
	if v.Present(LeftHand) || !v.Present(RightHand) {
		t.Errorf("presence: lh=%v rh=%v, want false/true", v.Present(LeftHand), v.Present(RightHand))
	}
}
