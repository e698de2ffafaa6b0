package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/models"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// metricColumns fixes the CSV column order for the optional metrics.
var metricColumns = []string{
	"pe_ratio", "peg_ratio", "pb_ratio", "ps_ratio",
	"eps_growth_5y", "revenue_growth_5y", "eps_growth_ttm",
	"roe", "roa",
	"gross_margin", "operating_margin", "net_margin",
	"current_ratio", "quick_ratio",
	"debt_to_equity", "interest_coverage",
}

// breakdownColumns fixes the CSV column order for the score components.
var breakdownColumns = []string{"valuation", "growth", "profitability", "financial_health"}

// Exporter writes screening results to disk.
type Exporter struct {
	outputDir string
}

// NewExporter creates an exporter rooted at outputDir, creating the
// directory if needed.
func NewExporter(outputDir string) (*Exporter, error) {
	if outputDir == "" {
		outputDir = "data/outputs"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{outputDir: outputDir}, nil
}

// Export writes the result in the given format. An empty filename
// auto-generates one from the config name and current time. Returns the
// path of the written file.
func (e *Exporter) Export(result *models.ScreenerResult, format Format, filename string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("screener_%s_%s", result.ConfigName, time.Now().Format("20060102_150405"))
	}

	var (
		path string
		err  error
	)
	switch format {
	case FormatJSON:
		path, err = e.exportJSON(result, filename)
	case FormatCSV:
		path, err = e.exportCSV(result, filename)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return "", err
	}

	log.Info().Str("path", path).Str("format", string(format)).Msg("Results exported")
	return path, nil
}

func (e *Exporter) exportJSON(result *models.ScreenerResult, filename string) (string, error) {
	path := filepath.Join(e.outputDir, filename+".json")

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// exportCSV flattens each stock into one row: identity columns, then
// every metric, then the score components.
func (e *Exporter) exportCSV(result *models.ScreenerResult, filename string) (string, error) {
	path := filepath.Join(e.outputDir, filename+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"Symbol", "Name", "Sector", "Industry", "Exchange", "Price", "Market Cap", "Avg Volume", "Score"}
	for _, name := range metricColumns {
		header = append(header, titleCase(name))
	}
	for _, name := range breakdownColumns {
		header = append(header, "Score "+titleCase(name))
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i := range result.Stocks {
		stock := &result.Stocks[i]
		row := []string{
			stock.Symbol,
			stock.Name,
			stock.Sector,
			stock.Industry,
			stock.Exchange,
			formatFloat(stock.Price),
			formatFloat(stock.MarketCap),
			strconv.FormatInt(stock.AvgVolume, 10),
			formatOptional(stock.Score),
		}
		for _, name := range metricColumns {
			row = append(row, formatOptional(stock.Metrics.Metric(name)))
		}
		for _, name := range breakdownColumns {
			if v, ok := stock.ScoreBreakdown[name]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", stock.Symbol, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional renders unknown values as empty cells.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// titleCase turns "pe_ratio" into "Pe Ratio".
func titleCase(name string) string {
	words := strings.Split(name, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
