// Package catalog keeps a SQLite journal of recording runs and their per-sequence progress.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Catalog is a SQLite database connection holding the run journal.
type Catalog struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the catalog at dbPath.
// It creates the parent directory, enables foreign keys, and runs migrations.
func New(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer; the recorder and the status server share this handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	c := &Catalog{
		db:   db,
		path: dbPath,
	}

	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// DB returns the underlying database connection.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.path
}
