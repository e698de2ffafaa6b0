package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/garprun/garprun/internal/models"
	"github.com/garprun/garprun/internal/persistence"
)

// runsRepo implements persistence.RunsRepo for PostgreSQL.
type runsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunsRepo creates a PostgreSQL runs repository.
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) persistence.RunsRepo {
	return &runsRepo{
		db:      db,
		timeout: timeout,
	}
}

// Open connects to PostgreSQL with the pq driver.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// SaveRun writes the run header and its stocks in one transaction.
func (r *runsRepo) SaveRun(ctx context.Context, result *models.ScreenerResult) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO screener_runs (run_id, ts, config_name, total_scanned, total_matches, execution_seconds, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.RunID, result.Timestamp, result.ConfigName,
		result.TotalScanned, result.TotalMatches, result.ExecutionSeconds,
		pq.Array(result.Errors))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate run %s: %w", result.RunID, err)
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO screener_results (run_id, symbol, name, exchange, sector, industry,
			price, market_cap, avg_volume, score, score_breakdown, metrics, data_source, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`)
	if err != nil {
		return fmt.Errorf("failed to prepare results statement: %w", err)
	}
	defer stmt.Close()

	for _, stock := range result.Stocks {
		breakdownJSON, err := json.Marshal(stock.ScoreBreakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal score breakdown for %s: %w", stock.Symbol, err)
		}
		metricsJSON, err := json.Marshal(stock.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal metrics for %s: %w", stock.Symbol, err)
		}

		// pq sends []byte as bytea, so JSONB columns get strings.
		_, err = stmt.ExecContext(ctx,
			result.RunID, stock.Symbol, stock.Name, stock.Exchange, stock.Sector, stock.Industry,
			stock.Price, stock.MarketCap, stock.AvgVolume, stock.Score,
			string(breakdownJSON), string(metricsJSON), stock.DataSource, stock.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to insert result %s: %w", stock.Symbol, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns recent run headers, newest first.
func (r *runsRepo) ListRuns(ctx context.Context, limit int) ([]persistence.RunSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	var runs []persistence.RunSummary
	err := r.db.SelectContext(ctx, &runs, `
		SELECT run_id, ts::text AS ts, config_name, total_scanned, total_matches, execution_seconds
		FROM screener_runs
		ORDER BY ts DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// GetRun loads one run with its stocks, in stored (rank) order.
func (r *runsRepo) GetRun(ctx context.Context, runID string) (*models.ScreenerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var header struct {
		RunID            string         `db:"run_id"`
		Timestamp        time.Time      `db:"ts"`
		ConfigName       string         `db:"config_name"`
		TotalScanned     int            `db:"total_scanned"`
		TotalMatches     int            `db:"total_matches"`
		ExecutionSeconds float64        `db:"execution_seconds"`
		Errors           pq.StringArray `db:"errors"`
	}
	err := r.db.GetContext(ctx, &header, `
		SELECT run_id, ts, config_name, total_scanned, total_matches, execution_seconds, errors
		FROM screener_runs WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT symbol, name, exchange, sector, industry, price, market_cap, avg_volume,
			score, score_breakdown, metrics, data_source, last_updated
		FROM screener_results
		WHERE run_id = $1
		ORDER BY score DESC NULLS LAST`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	defer rows.Close()

	result := &models.ScreenerResult{
		RunID:            header.RunID,
		Timestamp:        header.Timestamp,
		ConfigName:       header.ConfigName,
		TotalScanned:     header.TotalScanned,
		TotalMatches:     header.TotalMatches,
		ExecutionSeconds: header.ExecutionSeconds,
		Errors:           header.Errors,
	}

	for rows.Next() {
		var (
			stock         models.Stock
			score         sql.NullFloat64
			breakdownJSON []byte
			metricsJSON   []byte
		)
		err := rows.Scan(&stock.Symbol, &stock.Name, &stock.Exchange, &stock.Sector, &stock.Industry,
			&stock.Price, &stock.MarketCap, &stock.AvgVolume,
			&score, &breakdownJSON, &metricsJSON, &stock.DataSource, &stock.LastUpdated)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		if score.Valid {
			stock.Score = &score.Float64
		}
		if len(breakdownJSON) > 0 {
			if err := json.Unmarshal(breakdownJSON, &stock.ScoreBreakdown); err != nil {
				return nil, fmt.Errorf("failed to decode score breakdown for %s: %w", stock.Symbol, err)
			}
		}
		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &stock.Metrics); err != nil {
				return nil, fmt.Errorf("failed to decode metrics for %s: %w", stock.Symbol, err)
			}
		}

		result.Stocks = append(result.Stocks, stock)
	}

	return result, rows.Err()
}
