package models

import (
	"time"
)

// StockMetrics holds the normalized fundamental metrics for one instrument.
// Every field is optional: a nil pointer means the data source did not report
// the value, which is distinct from zero (debt_to_equity=0 is a real low-debt
// reading, not "unknown").
type StockMetrics struct {
	// Valuation
	PERatio  *float64 `json:"pe_ratio,omitempty" yaml:"pe_ratio"`
	PEGRatio *float64 `json:"peg_ratio,omitempty" yaml:"peg_ratio"`
	PBRatio  *float64 `json:"pb_ratio,omitempty" yaml:"pb_ratio"`
	PSRatio  *float64 `json:"ps_ratio,omitempty" yaml:"ps_ratio"`

	// Growth
	EPSGrowth5Y     *float64 `json:"eps_growth_5y,omitempty" yaml:"eps_growth_5y"`
	RevenueGrowth5Y *float64 `json:"revenue_growth_5y,omitempty" yaml:"revenue_growth_5y"`
	EPSGrowthTTM    *float64 `json:"eps_growth_ttm,omitempty" yaml:"eps_growth_ttm"`

	// Profitability
	ROE             *float64 `json:"roe,omitempty" yaml:"roe"`
	ROA             *float64 `json:"roa,omitempty" yaml:"roa"`
	GrossMargin     *float64 `json:"gross_margin,omitempty" yaml:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin,omitempty" yaml:"operating_margin"`
	NetMargin       *float64 `json:"net_margin,omitempty" yaml:"net_margin"`

	// Liquidity
	CurrentRatio *float64 `json:"current_ratio,omitempty" yaml:"current_ratio"`
	QuickRatio   *float64 `json:"quick_ratio,omitempty" yaml:"quick_ratio"`

	// Solvency
	DebtToEquity     *float64 `json:"debt_to_equity,omitempty" yaml:"debt_to_equity"`
	InterestCoverage *float64 `json:"interest_coverage,omitempty" yaml:"interest_coverage"`
}

// Metric returns the metric value for a config-facing metric name.
// Unknown names read as missing data, which keeps the filter layer
// permissive about criteria that reference metrics we do not carry.
func (m *StockMetrics) Metric(name string) *float64 {
	switch name {
	case "pe_ratio":
		return m.PERatio
	case "peg_ratio":
		return m.PEGRatio
	case "pb_ratio":
		return m.PBRatio
	case "ps_ratio":
		return m.PSRatio
	case "eps_growth_5y":
		return m.EPSGrowth5Y
	case "revenue_growth_5y":
		return m.RevenueGrowth5Y
	case "eps_growth_ttm":
		return m.EPSGrowthTTM
	case "roe":
		return m.ROE
	case "roa":
		return m.ROA
	case "gross_margin":
		return m.GrossMargin
	case "operating_margin":
		return m.OperatingMargin
	case "net_margin":
		return m.NetMargin
	case "current_ratio":
		return m.CurrentRatio
	case "quick_ratio":
		return m.QuickRatio
	case "debt_to_equity":
		return m.DebtToEquity
	case "interest_coverage":
		return m.InterestCoverage
	default:
		return nil
	}
}

// Stock represents one screened instrument with its market data, metrics and
// (after scoring) the assigned score breakdown.
type Stock struct {
	Symbol   string `json:"symbol" db:"symbol"`
	Name     string `json:"name" db:"name"`
	Exchange string `json:"exchange" db:"exchange"`
	Sector   string `json:"sector" db:"sector"`
	Industry string `json:"industry" db:"industry"`

	// Market data
	Price     float64 `json:"price" db:"price"`
	MarketCap float64 `json:"market_cap" db:"market_cap"`
	AvgVolume int64   `json:"avg_volume" db:"avg_volume"`

	// Calculated metrics
	Metrics StockMetrics `json:"metrics"`

	// Scoring, written exactly once by a scoring engine after the stock
	// clears the filter gate.
	Score          *float64           `json:"score,omitempty"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`

	// Metadata
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
	DataSource  string    `json:"data_source" db:"data_source"`
}

// ScreenerResult is the outcome of one full screening pass.
type ScreenerResult struct {
	RunID            string    `json:"run_id"`
	Timestamp        time.Time `json:"timestamp"`
	ConfigName       string    `json:"config_name"`
	TotalScanned     int       `json:"total_scanned"`
	TotalMatches     int       `json:"total_matches"`
	Stocks           []Stock   `json:"stocks"`
	ExecutionSeconds float64   `json:"execution_time_seconds"`
	Errors           []string  `json:"errors,omitempty"`
}

// Float returns a pointer to v. Convenience for building optional metrics.
func Float(v float64) *float64 {
	return &v
}
