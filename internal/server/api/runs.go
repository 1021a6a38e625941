package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signset/internal/catalog"
)

const defaultRunLimit = 20

// RunsHandler serves recording runs from the catalog.
type RunsHandler struct {
	catalog *catalog.Catalog
}

// NewRunsHandler creates a new RunsHandler with the given catalog.
func NewRunsHandler(c *catalog.Catalog) *RunsHandler {
	return &RunsHandler{catalog: c}
}

type runDetailResponse struct {
	*catalog.Run
	Progress []catalog.SequenceProgress `json:"progress"`
}

// List handles GET /api/runs?limit=N and returns the newest runs first.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.catalog.Runs().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []*catalog.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Get handles GET /api/runs/{id} and includes per-sequence progress.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.catalog.Runs().GetByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	progress, err := h.catalog.Sequences().ListByRun(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run progress")
		return
	}
	if progress == nil {
		progress = []catalog.SequenceProgress{}
	}

	writeJSON(w, http.StatusOK, runDetailResponse{Run: run, Progress: progress})
}
