package sqlite

import (
	"context"
	"database/sql"
)

// Migrate runs all database migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// Runs table
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			test_id TEXT NOT NULL,
			command TEXT,
			config TEXT NOT NULL,
			rule TEXT NOT NULL,
			times INTEGER NOT NULL,
			passes INTEGER NOT NULL,
			actual_runs INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			summary TEXT,
			value REAL,
			method TEXT,
			overridden BOOLEAN NOT NULL DEFAULT FALSE,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,

		// Run Trials table
		`CREATE TABLE IF NOT EXISTS run_trials (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT,
			duration_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, idx),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		// Indexes for efficient queries
		`CREATE INDEX IF NOT EXISTS idx_runs_test ON runs(test_id, started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome)`,
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
