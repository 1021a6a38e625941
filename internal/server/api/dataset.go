package api

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/keypoints"
)

// DatasetHandler serves dataset summaries and individual frame vectors.
type DatasetHandler struct {
	layout         *dataset.Layout
	sequenceLength int
}

// NewDatasetHandler creates a DatasetHandler. sequenceLength decides which
// sequences count as complete.
func NewDatasetHandler(l *dataset.Layout, sequenceLength int) *DatasetHandler {
	return &DatasetHandler{layout: l, sequenceLength: sequenceLength}
}

type datasetResponse struct {
	Root   string               `json:"root"`
	Labels []dataset.LabelStats `json:"labels"`
}

type frameResponse struct {
	Label    string               `json:"label"`
	Sequence int                  `json:"sequence"`
	Frame    int                  `json:"frame"`
	Length   int                  `json:"length"`
	Present  map[string]bool      `json:"present"`
	Groups   map[string][]float64 `json:"groups"`
}

// Summary handles GET /api/dataset.
func (h *DatasetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.layout.Inspect(r.URL.Query().Get("label"), h.sequenceLength)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to inspect dataset")
		return
	}
	if stats == nil {
		stats = []dataset.LabelStats{}
	}
	writeJSON(w, http.StatusOK, datasetResponse{Root: h.layout.Root(), Labels: stats})
}

// Frame handles GET /api/dataset/{label}/{sequence}/{frame}.
func (h *DatasetHandler) Frame(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	if err := dataset.ValidateLabel(label); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid label")
		return
	}
	seq, err1 := strconv.Atoi(chi.URLParam(r, "sequence"))
	frame, err2 := strconv.Atoi(chi.URLParam(r, "frame"))
	if err1 != nil || err2 != nil || seq < 0 || frame < 0 {
		writeError(w, http.StatusBadRequest, "Invalid sequence or frame")
		return
	}

	addr := dataset.Address{Label: label, Sequence: seq, Frame: frame}
	v, err := h.layout.Load(addr)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "Frame not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load frame")
		return
	}

	resp := frameResponse{
		Label:    label,
		Sequence: seq,
		Frame:    frame,
		Length:   keypoints.Length,
		Present:  make(map[string]bool, len(keypoints.Groups)),
		Groups:   make(map[string][]float64, len(keypoints.Groups)),
	}
	for _, g := range keypoints.Groups {
		resp.Present[g.String()] = v.Present(g)
		resp.Groups[g.String()] = v.Slice(g)
	}
	writeJSON(w, http.StatusOK, resp)
}
