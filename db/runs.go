// ABOUTME: Workflow run history operations
// ABOUTME: Saves completed runs and reads them back newest first
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/ucadmin/workflow"
	"github.com/oklog/ulid/v2"
)

func SaveRun(db *sql.DB, run *workflow.Run) error {
	if _, err := ulid.ParseStrict(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}

	state, err := json.Marshal(run.State)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO workflow_runs (id, policy, started_at, finished_at, halted, failed, state, steps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Policy), run.StartedAt, run.FinishedAt, run.Halted, run.Failed(), string(state), string(steps))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns nil when no run has the id.
func GetRun(db *sql.DB, id string) (*workflow.Run, error) {
	row := db.QueryRow(`
		SELECT id, policy, started_at, finished_at, halted, state, steps
		FROM workflow_runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func ListRuns(db *sql.DB, limit int) ([]*workflow.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, policy, started_at, finished_at, halted, state, steps
		FROM workflow_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*workflow.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*workflow.Run, error) {
	var (
		run    workflow.Run
		policy string
		state  string
		steps  string
	)
	if err := s.Scan(&run.ID, &policy, &run.StartedAt, &run.FinishedAt, &run.Halted, &state, &steps); err != nil {
		return nil, err
	}
	run.Policy = workflow.ErrorPolicy(policy)

	if err := json.Unmarshal([]byte(state), &run.State); err != nil {
		return nil, fmt.Errorf("failed to decode state of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(steps), &run.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps of run %s: %w", run.ID, err)
	}
	return &run, nil
}
