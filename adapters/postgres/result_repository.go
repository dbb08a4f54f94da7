// Package postgres persists run manifests and aggregated result tables for
// cross-run comparison. The canonical output stays the TSV files; the
// database is a queryable mirror.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/report"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/run"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS permanova_runs (
	run_id       TEXT PRIMARY KEY,
	formula      TEXT NOT NULL,
	seed         BIGINT NOT NULL,
	permutations INTEGER NOT NULL,
	strata       TEXT NOT NULL DEFAULT '',
	input_hash   TEXT NOT NULL,
	design_hash  TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS permanova_results (
	run_id    TEXT NOT NULL REFERENCES permanova_runs(run_id),
	position  INTEGER NOT NULL,
	subset    TEXT NOT NULL DEFAULT '',
	effects   TEXT NOT NULL,
	df        INTEGER NOT NULL,
	sum_sq    DOUBLE PRECISION NOT NULL,
	r_sq      DOUBLE PRECISION NOT NULL,
	p         DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, position)
);`

// resultRepository implements the ResultRepository interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// EnsureSchema creates the result tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create result schema: %w", err)
	}
	return nil
}

// SaveManifest inserts the run manifest row.
func (r *resultRepository) SaveManifest(ctx context.Context, m *run.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO permanova_runs (
		run_id, formula, seed, permutations, strata, input_hash, design_hash, fingerprint, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		m.RunID, m.Formula, m.Seed, m.Permutations, m.Strata,
		m.InputHash, m.DesignHash, m.Fingerprint, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run manifest: %w", err)
	}
	return nil
}

// SaveTable inserts every record of an aggregated table, preserving row order
// through the position column.
func (r *resultRepository) SaveTable(ctx context.Context, m *run.Manifest, t *report.Table) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO permanova_results (
		run_id, position, subset, effects, df, sum_sq, r_sq, p
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i, rec := range t.Records {
		if _, err := tx.ExecContext(ctx, query,
			m.RunID, i, rec.Subset, rec.Effect, rec.Df, rec.SumSq, rec.RSquared, rec.P,
		); err != nil {
			return fmt.Errorf("failed to save result row %d (%s): %w", i, rec.Effect, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}
