package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestCatalog creates a Catalog backed by a file in a temp directory.
func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
	})

	return c
}

func TestNew_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "catalog.db")

	c, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating catalog")
	}
	if c.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", c.Path(), dbPath)
	}
}

func TestNew_RunsMigrations(t *testing.T) {
	c := newTestCatalog(t)

	for _, table := range []string{"runs", "run_sequences"} {
		var name string
		err := c.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	for _, idx := range []string{"idx_runs_started_at", "idx_run_sequences_run_id"} {
		var name string
		err := c.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestNew_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	c, err := New(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	run := &Run{Root: "MP_Data", Labels: []string{"hello"}, Sequences: 1, SequenceLength: 1, Mode: "overwrite"}
	if err := c.Runs().Create(run); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	c.Close()

	c, err = New(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer c.Close()

	if _, err := c.Runs().GetByID(run.ID); err != nil {
		t.Errorf("run should survive reopen: %v", err)
	}
}

func TestCatalog_ForeignKeysEnabled(t *testing.T) {
	c := newTestCatalog(t)

	var fkEnabled int
	if err := c.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestCatalog_Close(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}
	if _, err := c.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}
