// ABOUTME: Run-history schema
// ABOUTME: One row per workflow run with its state and step results as JSON
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS workflow_runs (
	id TEXT PRIMARY KEY,
	policy TEXT NOT NULL CHECK(policy IN ('continue', 'halt')),
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	halted INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	state TEXT NOT NULL,
	steps TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workflow_runs_started_at ON workflow_runs(started_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
