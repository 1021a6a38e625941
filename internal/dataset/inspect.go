package dataset

import (
	"fmt"

	"github.com/ayusman/signset/internal/keypoints"
)

// LabelStats summarizes the recorded sequences of one label.
type LabelStats struct {
	Label      string `json:"label"`
	Sequences  int    `json:"sequences"`
	Complete   int    `json:"complete"`
	Incomplete int    `json:"incomplete"`
	Frames     int    `json:"frames"`
	// Presence is the fraction of frames in which each landmark group was detected.
	Presence map[string]float64 `json:"presence"`
}

// Inspect walks the dataset and summarizes each label. A sequence is complete
// when it holds exactly sequenceLength frames. An empty label inspects every
// label under the root.
func (l *Layout) Inspect(label string, sequenceLength int) ([]LabelStats, error) {
	labels := []string{label}
	if label == "" {
		var err error
		if labels, err = l.Labels(); err != nil {
			return nil, err
		}
	} else if err := ValidateLabel(label); err != nil {
		return nil, err
	}

	stats := make([]LabelStats, 0, len(labels))
	for _, name := range labels {
		s, err := l.inspectLabel(name, sequenceLength)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func (l *Layout) inspectLabel(label string, sequenceLength int) (LabelStats, error) {
	stats := LabelStats{Label: label, Presence: make(map[string]float64, len(keypoints.Groups))}
	present := make([]int, len(keypoints.Groups))

	seqs, err := l.Sequences(label)
	if err != nil {
		return stats, err
	}
	stats.Sequences = len(seqs)

	for _, seq := range seqs {
		frames, err := l.Frames(label, seq)
		if err != nil {
			return stats, err
		}
		if len(frames) == sequenceLength {
			stats.Complete++
		} else {
			stats.Incomplete++
		}

		for _, frame := range frames {
			v, err := l.Load(Address{Label: label, Sequence: seq, Frame: frame})
			if err != nil {
				return stats, fmt.Errorf("inspect: %w", err)
			}
			stats.Frames++
			for i, g := range keypoints.Groups {
				if v.Present(g) {
					present[i]++
				}
			}
		}
	}

	for i, g := range keypoints.Groups {
		if stats.Frames > 0 {
			stats.Presence[g.String()] = float64(present[i]) / float64(stats.Frames)
		} else {
			stats.Presence[g.String()] = 0
		}
	}
	return stats, nil
}
