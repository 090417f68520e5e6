package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Insert(ctx context.Context, report Report) error {
	const query = `
INSERT INTO validation_reports (id, file_name, content_type, size_bytes, outcome, summary, issues, step_log, model_usage, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	issues, err := json.Marshal(report.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	stepLog, err := json.Marshal(report.StepLog)
	if err != nil {
		return fmt.Errorf("marshal step log: %w", err)
	}
	usage, err := json.Marshal(report.ModelUsage)
	if err != nil {
		return fmt.Errorf("marshal model usage: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		report.ID,
		report.FileName,
		report.ContentType,
		report.SizeBytes,
		string(report.Outcome),
		report.Summary,
		issues,
		stepLog,
		usage,
		report.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, reportID string) (Report, error) {
	const query = `
SELECT id, file_name, content_type, size_bytes, outcome, summary, issues, step_log, model_usage, created_at
FROM validation_reports
WHERE id = $1
LIMIT 1`
	var report Report
	var outcome string
	var issues, stepLog, usage []byte
	err := r.DB.QueryRowContext(ctx, query, reportID).Scan(
		&report.ID,
		&report.FileName,
		&report.ContentType,
		&report.SizeBytes,
		&outcome,
		&report.Summary,
		&issues,
		&stepLog,
		&usage,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	report.Outcome = validation.Outcome(outcome)
	if err := unmarshalColumn(issues, &report.Issues); err != nil {
		return Report{}, fmt.Errorf("decode issues: %w", err)
	}
	if err := unmarshalColumn(stepLog, &report.StepLog); err != nil {
		return Report{}, fmt.Errorf("decode step log: %w", err)
	}
	if err := unmarshalColumn(usage, &report.ModelUsage); err != nil {
		return Report{}, fmt.Errorf("decode model usage: %w", err)
	}
	return report, nil
}

func (r *PGRepo) List(ctx context.Context, limit int) ([]Report, error) {
	const query = `
SELECT id, file_name, content_type, size_bytes, outcome, summary, created_at
FROM validation_reports
ORDER BY created_at DESC
LIMIT $1`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var report Report
		var outcome string
		if err := rows.Scan(
			&report.ID,
			&report.FileName,
			&report.ContentType,
			&report.SizeBytes,
			&outcome,
			&report.Summary,
			&report.CreatedAt,
		); err != nil {
			return nil, err
		}
		report.Outcome = validation.Outcome(outcome)
		out = append(out, report)
	}
	return out, rows.Err()
}

func unmarshalColumn[T any](raw []byte, dst *T) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
