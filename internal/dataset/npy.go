package dataset

import (
	"io"

	"github.com/sbinet/npyio"

	"github.com/ayusman/signset/internal/keypoints"
)

// writeVector writes v as a NumPy array of dtype <f8 and shape (1662,) in
// C order. npyio writes the format 2.0 header (4-byte header length); np.load
// reads it the same as the 1.0 files np.save writes.
func writeVector(w io.Writer, v *keypoints.Vector) error {
	return npyio.Write(w, v[:])
}

func readVector(r io.Reader) (keypoints.Vector, error) {
	var values []float64
	if err := npyio.Read(r, &values); err != nil {
		return keypoints.Vector{}, err
	}
	return keypoints.FromSlice(values)
}
