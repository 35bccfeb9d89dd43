// Package history records finished runs in a SQLite database
package history

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/tkjaer/epinger/internal/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started TEXT NOT NULL,
    elapsed_ms REAL NOT NULL,
    num_requests INTEGER NOT NULL,
    request_timeout INTEGER NOT NULL,
    max_threads INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS hosts (
    run_id TEXT NOT NULL REFERENCES runs(id),
    idx INTEGER NOT NULL,
    host TEXT NOT NULL,
    address TEXT,
    sent INTEGER NOT NULL,
    received INTEGER NOT NULL,
    loss_pct REAL NOT NULL,
    min_ms REAL,
    avg_ms REAL,
    max_ms REAL,
    stddev_ms REAL,
    PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_hosts_host ON hosts(host);
`

// DB is a run history database. It implements output.Output.
type DB struct {
	db *sql.DB
}

// Open opens or creates the history database at path
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history open failed: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history %q: %w", path, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history schema creation failed: %w", err)
	}

	return &DB{db: db}, nil
}

// CompleteHost is a no-op; hosts are stored with their run
func (h *DB) CompleteHost(int, shared.HostResult) {}

func (h *DB) CompleteRun(run *shared.RunResult) error {
	if err := h.SaveRun(run); err != nil {
		return err
	}
	slog.Debug("Recorded run in history", "id", run.ID, "hosts", len(run.Hosts))
	return nil
}

func (h *DB) Close() error {
	return h.db.Close()
}
