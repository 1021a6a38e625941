package catalog

import (
	"database/sql"
	"time"
)

// SequenceProgress is how far one (label, sequence) got within a run.
type SequenceProgress struct {
	RunID        string    `json:"run_id"`
	Label        string    `json:"label"`
	Sequence     int       `json:"sequence"`
	FramesStored int       `json:"frames_stored"`
	Completed    bool      `json:"completed"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SequenceRepository provides access to per-sequence progress.
type SequenceRepository struct {
	db *sql.DB
}

// Sequences returns the sequence repository for this catalog.
func (c *Catalog) Sequences() *SequenceRepository {
	return &SequenceRepository{db: c.db}
}

// RecordFrame counts one stored frame for (label, sequence) and for the run.
func (r *SequenceRepository) RecordFrame(runID, label string, sequence int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.Exec(
		`INSERT INTO run_sequences (run_id, label, sequence, frames_stored, updated_at)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(run_id, label, sequence)
		 DO UPDATE SET frames_stored = frames_stored + 1, updated_at = excluded.updated_at`,
		runID, label, sequence, now,
	)
	if err != nil {
		return err
	}

	result, err := tx.Exec(`UPDATE runs SET frames_stored = frames_stored + 1 WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// MarkComplete flags (label, sequence) as fully recorded.
func (r *SequenceRepository) MarkComplete(runID, label string, sequence int) error {
	result, err := r.db.Exec(
		`UPDATE run_sequences SET completed = 1, updated_at = ?
		 WHERE run_id = ? AND label = ? AND sequence = ?`,
		time.Now(), runID, label, sequence,
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

// ListByRun returns the progress rows of a run in recording order.
func (r *SequenceRepository) ListByRun(runID string) ([]SequenceProgress, error) {
	rows, err := r.db.Query(
		`SELECT run_id, label, sequence, frames_stored, completed, updated_at
		 FROM run_sequences WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []SequenceProgress
	for rows.Next() {
		var p SequenceProgress
		if err := rows.Scan(&p.RunID, &p.Label, &p.Sequence, &p.FramesStored, &p.Completed, &p.UpdatedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return progress, nil
}
