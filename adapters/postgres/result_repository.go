// Package postgres persists analysis results. Scalar columns carry the
// fields reports query on; the full result record rides along as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/ports"
)

// ResultRepositoryImpl implements ports.ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// Schema is the DDL for the analysis_results table, applied by cmd binaries
// at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS analysis_results (
	run_id            UUID PRIMARY KEY,
	dataset           TEXT NOT NULL,
	model             TEXT NOT NULL,
	target            DOUBLE PRECISION NOT NULL,
	n_trials          INTEGER NOT NULL,
	overall_accuracy  DOUBLE PRECISION NOT NULL,
	simple_threshold  DOUBLE PRECISION,
	fitted_threshold  DOUBLE PRECISION,
	r_squared         DOUBLE PRECISION,
	payload           JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_results_dataset
	ON analysis_results (dataset, created_at DESC);
`

type resultRow struct {
	RunID           string          `db:"run_id"`
	Dataset         string          `db:"dataset"`
	Model           string          `db:"model"`
	Target          float64         `db:"target"`
	NTrials         int             `db:"n_trials"`
	OverallAccuracy float64         `db:"overall_accuracy"`
	SimpleThreshold sql.NullFloat64 `db:"simple_threshold"`
	FittedThreshold sql.NullFloat64 `db:"fitted_threshold"`
	RSquared        sql.NullFloat64 `db:"r_squared"`
	Payload         []byte          `db:"payload"`
}

func nullThreshold(t psychometric.Threshold) sql.NullFloat64 {
	if t.Undetermined() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: t.Value(), Valid: true}
}

// Save stores one analysis result
func (r *ResultRepositoryImpl) Save(ctx context.Context, result *psychometric.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result payload: %w", err)
	}

	rsq := sql.NullFloat64{}
	if result.Fit != nil && !math.IsNaN(result.Fit.RSquared) {
		rsq = sql.NullFloat64{Float64: result.Fit.RSquared, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_results
			(run_id, dataset, model, target, n_trials, overall_accuracy,
			 simple_threshold, fitted_threshold, r_squared, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, result.RunID.String(), result.Dataset.String(), result.Model.String(),
		result.Target, result.NTrials, result.OverallAccuracy,
		nullThreshold(result.SimpleThreshold), nullThreshold(result.FittedThreshold()),
		rsq, payload, result.CreatedAt.Time())
	return err
}

// GetByRunID retrieves a result by its run identifier
func (r *ResultRepositoryImpl) GetByRunID(ctx context.Context, id core.RunID) (*psychometric.AnalysisResult, error) {
	var row resultRow
	err := r.db.GetContext(ctx, &row, `
		SELECT run_id, dataset, model, target, n_trials, overall_accuracy,
		       simple_threshold, fitted_threshold, r_squared, payload
		FROM analysis_results
		WHERE run_id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", core.ErrResultNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.decode()
}

// ListByDataset returns the newest results for one dataset
func (r *ResultRepositoryImpl) ListByDataset(ctx context.Context, name core.DatasetName, limit int) ([]*psychometric.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []resultRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, dataset, model, target, n_trials, overall_accuracy,
		       simple_threshold, fitted_threshold, r_squared, payload
		FROM analysis_results
		WHERE dataset = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, name.String(), limit)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// ListLatest returns the newest results across all datasets
func (r *ResultRepositoryImpl) ListLatest(ctx context.Context, limit int) ([]*psychometric.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []resultRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, dataset, model, target, n_trials, overall_accuracy,
		       simple_threshold, fitted_threshold, r_squared, payload
		FROM analysis_results
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

func (row resultRow) decode() (*psychometric.AnalysisResult, error) {
	var result psychometric.AnalysisResult
	if err := json.Unmarshal(row.Payload, &result); err != nil {
		return nil, fmt.Errorf("decoding result payload for run %s: %w", row.RunID, err)
	}
	return &result, nil
}

func decodeRows(rows []resultRow) ([]*psychometric.AnalysisResult, error) {
	results := make([]*psychometric.AnalysisResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.decode()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
