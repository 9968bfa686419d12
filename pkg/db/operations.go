package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dtnitsch/inbox-digest/models"
)

// RecordRun stores the metadata of one summarization run.
func (db *DB) RecordRun(ctx context.Context, run models.Run) error {
	_, err := db.InsertRun(ctx, run)
	return err
}

// InsertRun stores run and returns its run_id.
func (db *DB) InsertRun(ctx context.Context, run models.Run) (int64, error) {
	at := run.At
	if at.IsZero() {
		at = time.Now()
	}
	result, err := db.ExecContext(ctx, `
		INSERT INTO runs (cycle_id, mode, email_count, path, provider, language, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.CycleID, run.Mode.String(), run.Count, run.Path, run.Provider, run.Language,
		run.Duration.Milliseconds(), run.Err, at.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, cycle_id, mode, email_count, path, provider, language, duration_ms, error, created_at
		FROM runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var (
			r                       models.Run
			mode                    string
			cycleID, lang, errText  sql.NullString
			durationMS, createdAtMS int64
		)
		if err := rows.Scan(&r.ID, &cycleID, &mode, &r.Count, &r.Path, &r.Provider, &lang, &durationMS, &errText, &createdAtMS); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Mode, _ = models.ParseViewMode(mode)
		r.CycleID = cycleID.String
		r.Language = lang.String
		r.Err = errText.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.At = time.UnixMilli(createdAtMS)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunStats counts runs per path.
func (db *DB) RunStats(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT path, COUNT(*) FROM runs GROUP BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			path  string
			count int
		)
		if err := rows.Scan(&path, &count); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		stats[path] = count
	}
	return stats, rows.Err()
}

// RecordCycle stores or replaces a cycle.
func (db *DB) RecordCycle(ctx context.Context, c models.Cycle) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cycles (cycle_id, mode, extracted_count, retained_count, outcome, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cycle_id) DO UPDATE SET
			extracted_count = excluded.extracted_count,
			retained_count = excluded.retained_count,
			outcome = excluded.outcome,
			finished_at = excluded.finished_at
	`, c.ID, c.Mode.String(), c.Extracted, c.Retained, c.Outcome, c.Started.UnixMilli(), c.Finished.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record cycle: %w", err)
	}
	return nil
}

// RecentCycles returns up to limit cycles, newest first.
func (db *DB) RecentCycles(ctx context.Context, limit int) ([]models.Cycle, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT cycle_id, mode, extracted_count, retained_count, outcome, started_at, finished_at
		FROM cycles
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.Cycle
	for rows.Next() {
		var (
			c                  models.Cycle
			mode               string
			startedMS, endedMS int64
		)
		if err := rows.Scan(&c.ID, &mode, &c.Extracted, &c.Retained, &c.Outcome, &startedMS, &endedMS); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		c.Mode, _ = models.ParseViewMode(mode)
		c.Started = time.UnixMilli(startedMS)
		c.Finished = time.UnixMilli(endedMS)
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// Prune deletes runs and cycles older than cutoff and returns how many rows went.
func (db *DB) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ms := cutoff.UnixMilli()
	res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, ms)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	runs, _ := res.RowsAffected()

	res, err = db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, ms)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cycles: %w", err)
	}
	cycles, _ := res.RowsAffected()
	return runs + cycles, nil
}
