package catalog

// runMigrations executes all database migrations.
func (c *Catalog) runMigrations() error {
	migrations := []string{
		// Runs table - one row per record invocation
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			labels TEXT NOT NULL DEFAULT '[]',
			sequences INTEGER NOT NULL,
			sequence_length INTEGER NOT NULL,
			mode TEXT NOT NULL CHECK(mode IN ('overwrite', 'append')),
			status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'cancelled', 'failed')),
			error TEXT NOT NULL DEFAULT '',
			frames_stored INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		// Sequence progress - frames stored per (label, sequence) within a run
		`CREATE TABLE IF NOT EXISTS run_sequences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			label TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			frames_stored INTEGER NOT NULL DEFAULT 0,
			completed INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(run_id, label, sequence)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_sequences_run_id ON run_sequences(run_id)`,
	}

	for _, migration := range migrations {
		if _, err := c.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
