package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS screener_runs (
		run_id            TEXT PRIMARY KEY,
		ts                TIMESTAMPTZ NOT NULL,
		config_name       TEXT NOT NULL,
		total_scanned     INTEGER NOT NULL,
		total_matches     INTEGER NOT NULL,
		execution_seconds DOUBLE PRECISION NOT NULL,
		errors            TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS screener_results (
		id              BIGSERIAL PRIMARY KEY,
		run_id          TEXT NOT NULL REFERENCES screener_runs(run_id) ON DELETE CASCADE,
		symbol          TEXT NOT NULL,
		name            TEXT NOT NULL DEFAULT '',
		exchange        TEXT NOT NULL DEFAULT '',
		sector          TEXT NOT NULL DEFAULT '',
		industry        TEXT NOT NULL DEFAULT '',
		price           DOUBLE PRECISION NOT NULL DEFAULT 0,
		market_cap      DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_volume      BIGINT NOT NULL DEFAULT 0,
		score           DOUBLE PRECISION,
		score_breakdown JSONB,
		metrics         JSONB,
		data_source     TEXT NOT NULL DEFAULT '',
		last_updated    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_screener_results_run ON screener_results (run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_screener_runs_ts ON screener_runs (ts DESC)`,
}

// Migrate creates the runs tables when missing. Statements are
// idempotent, so repeated startup is safe.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
