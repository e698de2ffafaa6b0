package persistence

import (
	"context"

	"github.com/garprun/garprun/internal/models"
)

// RunSummary is the stored header of one screening run.
type RunSummary struct {
	RunID            string  `db:"run_id" json:"run_id"`
	Timestamp        string  `db:"ts" json:"timestamp"`
	ConfigName       string  `db:"config_name" json:"config_name"`
	TotalScanned     int     `db:"total_scanned" json:"total_scanned"`
	TotalMatches     int     `db:"total_matches" json:"total_matches"`
	ExecutionSeconds float64 `db:"execution_seconds" json:"execution_time_seconds"`
}

// RunsRepo stores screening runs and their scored results.
type RunsRepo interface {
	// SaveRun persists the run header and every surviving stock.
	SaveRun(ctx context.Context, result *models.ScreenerResult) error

	// ListRuns returns the most recent run headers, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// GetRun loads one full run with its stocks.
	GetRun(ctx context.Context, runID string) (*models.ScreenerResult, error)
}
