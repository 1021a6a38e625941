// Package dataset owns the on-disk addressing scheme for recorded frame vectors.
//
// Every vector lives at root/<label>/<sequence>/<frame>.npy. Training tools
// read this layout directly, so the scheme must not change.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ayusman/signset/internal/keypoints"
)

// FileExt is appended to the frame index to form the vector file name.
const FileExt = ".npy"

// Address identifies exactly one stored frame vector.
type Address struct {
	Label    string `json:"label"`
	Sequence int    `json:"sequence"`
	Frame    int    `json:"frame"`
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d/%d", a.Label, a.Sequence, a.Frame)
}

// Range is a contiguous block of sequence indices for one label.
type Range struct {
	Label string
	Start int
	Count int
}

// End returns one past the last sequence index of the range.
func (r Range) End() int { return r.Start + r.Count }

// Layout maps addresses to files below a dataset root.
type Layout struct {
	root string
}

// New creates a Layout rooted at root. The directory is created lazily.
func New(root string) (*Layout, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("dataset root is empty")
	}
	return &Layout{root: filepath.Clean(root)}, nil
}

// Root returns the dataset root directory.
func (l *Layout) Root() string { return l.root }

// ValidateLabel rejects labels that are not a single safe path element.
func ValidateLabel(label string) error {
	switch {
	case strings.TrimSpace(label) == "":
		return errors.New("label is empty")
	case label != strings.TrimSpace(label):
		return fmt.Errorf("label %q has surrounding whitespace", label)
	case label == "." || label == "..":
		return fmt.Errorf("label %q is not a valid directory name", label)
	case strings.ContainsAny(label, `/\`) || strings.ContainsRune(label, 0):
		return fmt.Errorf("label %q contains a path separator", label)
	}
	return nil
}

// SequenceDir returns the directory holding the frames of one sequence.
func (l *Layout) SequenceDir(label string, sequence int) string {
	return filepath.Join(l.root, label, strconv.Itoa(sequence))
}

// Path returns the file holding the vector at addr.
func (l *Layout) Path(addr Address) string {
	return filepath.Join(l.SequenceDir(addr.Label, addr.Sequence), strconv.Itoa(addr.Frame)+FileExt)
}

// EnsureSequenceDir creates root/label/sequence if needed. Existing directories are not an error.
func (l *Layout) EnsureSequenceDir(label string, sequence int) error {
	if err := ValidateLabel(label); err != nil {
		return err
	}
	if sequence < 0 {
		return fmt.Errorf("sequence index %d is negative", sequence)
	}
	if err := os.MkdirAll(l.SequenceDir(label, sequence), 0o755); err != nil {
		return fmt.Errorf("create sequence dir %s/%d: %w", label, sequence, err)
	}
	return nil
}

// Provision creates every sequence directory of every range before recording starts.
func (l *Layout) Provision(ranges []Range) error {
	for _, r := range ranges {
		for seq := r.Start; seq < r.End(); seq++ {
			if err := l.EnsureSequenceDir(r.Label, seq); err != nil {
				return err
			}
		}
	}
	return nil
}

// Store writes v at addr, replacing any vector already stored there.
// The file is written next to its destination and renamed into place.
func (l *Layout) Store(addr Address, v *keypoints.Vector) error {
	if err := ValidateLabel(addr.Label); err != nil {
		return err
	}
	dst := l.Path(addr)

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+strconv.Itoa(addr.Frame)+"-*"+FileExt)
	if err != nil {
		return fmt.Errorf("store %s: %w", addr, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeVector(tmp, v); err != nil {
		tmp.Close()
		return fmt.Errorf("store %s: %w", addr, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store %s: %w", addr, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("store %s: %w", addr, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("store %s: %w", addr, err)
	}
	return nil
}

// Load reads the vector stored at addr.
func (l *Layout) Load(addr Address) (keypoints.Vector, error) {
	f, err := os.Open(l.Path(addr))
	if err != nil {
		return keypoints.Vector{}, err
	}
	defer f.Close()

	v, err := readVector(f)
	if err != nil {
		return v, fmt.Errorf("load %s: %w", addr, err)
	}
	return v, nil
}

// Labels returns the label directories present under the root, sorted.
// A missing root yields no labels.
func (l *Layout) Labels() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			labels = append(labels, e.Name())
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// Sequences returns the numeric sequence indices present for label, ascending.
func (l *Layout) Sequences(label string) ([]int, error) {
	return numericEntries(filepath.Join(l.root, label), true, "")
}

// Frames returns the frame indices stored for one sequence, ascending.
func (l *Layout) Frames(label string, sequence int) ([]int, error) {
	return numericEntries(l.SequenceDir(label, sequence), false, FileExt)
}

// NextSequence returns one past the highest existing sequence index of label,
// or 0 when the label has no sequences yet.
func (l *Layout) NextSequence(label string) (int, error) {
	seqs, err := l.Sequences(label)
	if err != nil {
		return 0, err
	}
	if len(seqs) == 0 {
		return 0, nil
	}
	return seqs[len(seqs)-1] + 1, nil
}

func numericEntries(dir string, dirs bool, suffix string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []int
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		name := e.Name()
		if suffix != "" {
			if !strings.HasSuffix(name, suffix) {
				continue
			}
			name = strings.TrimSuffix(name, suffix)
		}
		n, err := strconv.Atoi(name)
		if err != nil || n < 0 || strconv.Itoa(n) != name {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
