package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the lifecycle state of a recording run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recording invocation.
type Run struct {
	ID             string     `json:"id"`
	Root           string     `json:"root"`
	Labels         []string   `json:"labels"`
	Sequences      int        `json:"sequences"`
	SequenceLength int        `json:"sequence_length"`
	Mode           string     `json:"mode"`
	Status         RunStatus  `json:"status"`
	Error          string     `json:"error,omitempty"`
	FramesStored   int        `json:"frames_stored"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or has taken so far.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRepository provides access to the runs table.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this catalog.
func (c *Catalog) Runs() *RunRepository {
	return &RunRepository{db: c.db}
}

const runColumns = `id, root, labels, sequences, sequence_length, mode, status, error, frames_stored, started_at, finished_at`

// Create inserts a new run in the running state. An empty ID is replaced with a UUID.
func (r *RunRepository) Create(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = RunStatusRunning
	run.StartedAt = time.Now()
	run.FinishedAt = nil

	labels, err := json.Marshal(run.Labels)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO runs (id, root, labels, sequences, sequence_length, mode, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Root, string(labels), run.Sequences, run.SequenceLength, run.Mode, string(run.Status), run.StartedAt,
	)
	return err
}

// Finish records the final status of a run. runErr is stored as the error text.
func (r *RunRepository) Finish(id string, status RunStatus, runErr error) error {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}

	result, err := r.db.Exec(
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), msg, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit returns every run.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	run := &Run{}
	var labels, status string
	var finished sql.NullTime

	err := s.Scan(&run.ID, &run.Root, &labels, &run.Sequences, &run.SequenceLength, &run.Mode,
		&status, &run.Error, &run.FramesStored, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(labels), &run.Labels); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}
