package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garprun/garprun/internal/models"
)

func sampleResult() *models.ScreenerResult {
	score := 7.25
	return &models.ScreenerResult{
		RunID:        "run-1",
		Timestamp:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ConfigName:   "garp",
		TotalScanned: 100,
		TotalMatches: 1,
		Stocks: []models.Stock{
			{
				Symbol:    "ACME",
				Name:      "Acme Corp",
				Sector:    "Technology",
				Exchange:  "NASDAQ",
				Price:     42.5,
				MarketCap: 1.2e9,
				Metrics: models.StockMetrics{
					PERatio:  models.Float(15.5),
					PEGRatio: models.Float(1.1),
				},
				Score: &score,
				ScoreBreakdown: map[string]float64{
					"valuation":        8.0,
					"growth":           7.0,
					"profitability":    7.0,
					"financial_health": 7.0,
				},
			},
		},
	}
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	path, err := e.Export(sampleResult(), FormatJSON, "out")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "out.json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.ScreenerResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Stocks, 1)
	assert.Equal(t, "ACME", decoded.Stocks[0].Symbol)
	require.NotNil(t, decoded.Stocks[0].Metrics.PERatio)
	assert.Equal(t, 15.5, *decoded.Stocks[0].Metrics.PERatio)
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	path, err := e.Export(sampleResult(), FormatCSV, "out")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	row := rows[1]
	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("column %q not found", name)
		return ""
	}

	assert.Equal(t, "ACME", col("Symbol"))
	assert.Equal(t, "15.5", col("Pe Ratio"))
	assert.Equal(t, "", col("Roe"), "unknown metric should export as empty cell")
	assert.Equal(t, "7.25", col("Score"))
	assert.Equal(t, "8", col("Score Valuation"))
	assert.Equal(t, "7", col("Score Financial Health"))
}

func TestExport_AutoFilename(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	path, err := e.Export(sampleResult(), FormatJSON, "")
	require.NoError(t, err)
	assert.Contains(t, path, "screener_garp_")
}

func TestExport_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	_, err = e.Export(sampleResult(), Format("xml"), "out")
	assert.Error(t, err)
}
