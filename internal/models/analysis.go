package models

import "time"

// NewsItem is one headline attached to a stock analysis.
type NewsItem struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Source string `json:"source"`
	Date   string `json:"date,omitempty"`
}

// EarningsInfo carries the next scheduled earnings event and estimates.
type EarningsInfo struct {
	NextEarningsDate *time.Time `json:"next_earnings_date,omitempty"`
	EPSEstimate      *float64   `json:"eps_estimate,omitempty"`
	EPSActual        *float64   `json:"eps_actual,omitempty"`
	RevenueEstimate  *float64   `json:"revenue_estimate,omitempty"`
}

// PricePerformance holds trailing returns over the standard reporting
// windows, as fractions (0.05 = +5%). Each field is optional: nil means the
// price history was too short to cover that window.
type PricePerformance struct {
	Perf1D  *float64 `json:"perf_1d,omitempty"`
	Perf1W  *float64 `json:"perf_1w,omitempty"`
	Perf1M  *float64 `json:"perf_1m,omitempty"`
	PerfYTD *float64 `json:"perf_ytd,omitempty"`
	Perf52W *float64 `json:"perf_52w,omitempty"`
}

// RelatedAsset is a commodity, ETF or index tracked alongside a stock's
// sector (gold futures for miners, SMH for semis, and so on).
type RelatedAsset struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Relevance     string  `json:"relevance"` // "commodity", "index", "peer", "etf"
}

// StockAnalysis aggregates the auxiliary signals used by the AI scorer:
// secondary-source valuation figures, recent news, earnings calendar,
// balance-sheet highlights and related assets. Every field is independently
// optional; the scorer degrades gracefully when a section is missing.
type StockAnalysis struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`

	// Secondary-source valuation figures
	PEGSecondary *float64 `json:"peg_secondary,omitempty"`
	ForwardPE    *float64 `json:"fwd_pe,omitempty"`
	EPSThisYear  *float64 `json:"eps_this_year,omitempty"`
	EPSNextYear  *float64 `json:"eps_next_year,omitempty"`

	Performance *PricePerformance `json:"performance,omitempty"`

	News []NewsItem `json:"news,omitempty"`

	Earnings *EarningsInfo `json:"earnings,omitempty"`

	RelatedAssets []RelatedAsset `json:"related_assets,omitempty"`

	// Balance highlights
	RevenueTTM   *float64 `json:"revenue_ttm,omitempty"`
	NetIncomeTTM *float64 `json:"net_income_ttm,omitempty"`
	FreeCashFlow *float64 `json:"free_cash_flow,omitempty"`
	TotalDebt    *float64 `json:"total_debt,omitempty"`
	TotalCash    *float64 `json:"total_cash,omitempty"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}
