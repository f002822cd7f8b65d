package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/turboci-repeated/internal/storage"
)

type runRepo struct {
	tx *sql.Tx
}

func (r *runRepo) Create(ctx context.Context, run *storage.Run) error {
	var value sql.NullFloat64
	if run.Value != nil {
		value = sql.NullFloat64{Float64: *run.Value, Valid: true}
	}

	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, test_id, command, config, rule, times, passes, actual_runs,
			outcome, summary, value, method, overridden, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.TestID, run.Command, run.Config, run.Rule, run.Times, run.Passes, run.ActualRuns,
		run.Outcome, run.Summary, value, run.Method, run.Overridden, run.StartedAt, run.FinishedAt)
	if err != nil {
		return err
	}

	for _, t := range run.Trials {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO run_trials (run_id, idx, outcome, detail, duration_ns)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, t.Index, t.Outcome, t.Detail, int64(t.Duration))
		if err != nil {
			return err
		}
	}
	return nil
}

const runColumns = `id, test_id, command, config, rule, times, passes, actual_runs,
	outcome, summary, value, method, overridden, started_at, finished_at`

func (r *runRepo) Get(ctx context.Context, id string) (*storage.Run, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.QueryContext(ctx, `
		SELECT idx, outcome, detail, duration_ns
		FROM run_trials WHERE run_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t        storage.Trial
			detail   sql.NullString
			duration int64
		)
		if err := rows.Scan(&t.Index, &t.Outcome, &detail, &duration); err != nil {
			return nil, err
		}
		t.Detail = detail.String
		t.Duration = time.Duration(duration)
		run.Trials = append(run.Trials, t)
	}
	return run, rows.Err()
}

func (r *runRepo) List(ctx context.Context, opts storage.ListOptions) ([]*storage.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if opts.TestID != "" {
		query += ` AND test_id = ?`
		args = append(args, opts.TestID)
	}
	if len(opts.Outcomes) > 0 {
		query += ` AND outcome IN (?` + strings.Repeat(`, ?`, len(opts.Outcomes)-1) + `)`
		for _, o := range opts.Outcomes {
			args = append(args, o)
		}
	}

	query += ` ORDER BY started_at DESC, id`

	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *runRepo) Summarize(ctx context.Context, testID string) (*storage.TestSummary, error) {
	summary := &storage.TestSummary{TestID: testID}

	row := r.tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'PASS' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(actual_runs), 0),
			COALESCE(SUM(passes), 0)
		FROM runs WHERE test_id = ?
	`, testID)
	if err := row.Scan(&summary.Runs, &summary.PassedRuns, &summary.Trials, &summary.PassedTrials); err != nil {
		return nil, err
	}
	if summary.Runs == 0 {
		return nil, storage.ErrNotFound
	}

	row = r.tx.QueryRowContext(ctx, `
		SELECT started_at FROM runs WHERE test_id = ? ORDER BY started_at DESC LIMIT 1
	`, testID)
	if err := row.Scan(&summary.LastRunAt); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *runRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM run_trials WHERE run_id = ?`, id); err != nil {
		return err
	}

	result, err := r.tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*storage.Run, error) {
	run := &storage.Run{}
	var (
		command, summary, method sql.NullString
		value                    sql.NullFloat64
	)

	err := row.Scan(&run.ID, &run.TestID, &command, &run.Config, &run.Rule, &run.Times,
		&run.Passes, &run.ActualRuns, &run.Outcome, &summary, &value, &method,
		&run.Overridden, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		return nil, err
	}

	run.Command = command.String
	run.Summary = summary.String
	run.Method = method.String
	if value.Valid {
		v := value.Float64
		run.Value = &v
	}
	return run, nil
}
