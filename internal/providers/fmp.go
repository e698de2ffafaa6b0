package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/analysis"
	"github.com/garprun/garprun/internal/filter"
	"github.com/garprun/garprun/internal/models"
)

const fmpProviderName = "fmp"

// FMPClient talks to a Financial Modeling Prep style REST API. It supplies
// the screening universe, per-symbol fundamentals, price history and the
// auxiliary analysis sections. All calls go through the shared transport's
// rate limiter and circuit breaker.
type FMPClient struct {
	baseURL   string
	apiKey    string
	transport *Transport
}

// NewFMPClient creates a client against the given base URL.
func NewFMPClient(baseURL, apiKey string, transport *Transport) *FMPClient {
	return &FMPClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		transport: transport,
	}
}

func (c *FMPClient) query(extra url.Values) url.Values {
	q := url.Values{}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	return q
}

type screenerRow struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	Sector            string  `json:"sector"`
	Industry          string  `json:"industry"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Price             float64 `json:"price"`
	MarketCap         float64 `json:"marketCap"`
	Volume            int64   `json:"volume"`
}

// Universe pulls the candidate list, pre-filtered by the operability bounds
// the upstream screener endpoint supports (market cap, price, volume,
// exchange). Metric criteria are applied later by the filter engine.
func (c *FMPClient) Universe(ctx context.Context, op filter.Operability, limit int) ([]models.Stock, error) {
	q := url.Values{}
	if op.MarketCapMin != nil {
		q.Set("marketCapMoreThan", strconv.FormatFloat(*op.MarketCapMin, 'f', 0, 64))
	}
	if op.PriceMin != nil {
		q.Set("priceMoreThan", strconv.FormatFloat(*op.PriceMin, 'f', -1, 64))
	}
	if op.AvgVolumeMin != nil {
		q.Set("volumeMoreThan", strconv.FormatFloat(*op.AvgVolumeMin, 'f', 0, 64))
	}
	if op.Exchange != "" {
		q.Set("exchange", op.Exchange)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	q.Set("isActivelyTrading", "true")

	var rows []screenerRow
	u := buildURL(c.baseURL, "/stock-screener", c.query(q))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &rows); err != nil {
		return nil, fmt.Errorf("universe fetch failed: %w", err)
	}

	stocks := make([]models.Stock, 0, len(rows))
	for _, row := range rows {
		stocks = append(stocks, models.Stock{
			Symbol:      row.Symbol,
			Name:        row.CompanyName,
			Exchange:    row.ExchangeShortName,
			Sector:      row.Sector,
			Industry:    row.Industry,
			Price:       row.Price,
			MarketCap:   row.MarketCap,
			AvgVolume:   row.Volume,
			DataSource:  fmpProviderName,
			LastUpdated: time.Now().UTC(),
		})
	}

	log.Info().Int("candidates", len(stocks)).Msg("Universe fetched")
	return stocks, nil
}

type ratiosTTM struct {
	PERatioTTM               *float64 `json:"peRatioTTM"`
	PEGRatioTTM              *float64 `json:"pegRatioTTM"`
	PriceToBookRatioTTM      *float64 `json:"priceToBookRatioTTM"`
	PriceToSalesRatioTTM     *float64 `json:"priceToSalesRatioTTM"`
	ReturnOnEquityTTM        *float64 `json:"returnOnEquityTTM"`
	ReturnOnAssetsTTM        *float64 `json:"returnOnAssetsTTM"`
	GrossProfitMarginTTM     *float64 `json:"grossProfitMarginTTM"`
	OperatingProfitMarginTTM *float64 `json:"operatingProfitMarginTTM"`
	NetProfitMarginTTM       *float64 `json:"netProfitMarginTTM"`
	CurrentRatioTTM          *float64 `json:"currentRatioTTM"`
	QuickRatioTTM            *float64 `json:"quickRatioTTM"`
	DebtEquityRatioTTM       *float64 `json:"debtEquityRatioTTM"`
	InterestCoverageTTM      *float64 `json:"interestCoverageTTM"`
}

type growthRow struct {
	FiveYEPSGrowthPerShare     *float64 `json:"fiveYNetIncomeGrowthPerShare"`
	FiveYRevenueGrowthPerShare *float64 `json:"fiveYRevenueGrowthPerShare"`
	EPSGrowth                  *float64 `json:"epsgrowth"`
}

// Fundamentals builds the metrics record for one symbol from the TTM ratios
// and growth endpoints. Fields the API omits stay nil.
func (c *FMPClient) Fundamentals(ctx context.Context, symbol string) (*models.StockMetrics, error) {
	var ratios []ratiosTTM
	u := buildURL(c.baseURL, "/ratios-ttm/"+url.PathEscape(symbol), c.query(nil))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &ratios); err != nil {
		return nil, fmt.Errorf("ratios fetch failed for %s: %w", symbol, err)
	}

	metrics := &models.StockMetrics{}
	if len(ratios) > 0 {
		r := ratios[0]
		metrics.PERatio = r.PERatioTTM
		metrics.PEGRatio = r.PEGRatioTTM
		metrics.PBRatio = r.PriceToBookRatioTTM
		metrics.PSRatio = r.PriceToSalesRatioTTM
		metrics.ROE = r.ReturnOnEquityTTM
		metrics.ROA = r.ReturnOnAssetsTTM
		metrics.GrossMargin = r.GrossProfitMarginTTM
		metrics.OperatingMargin = r.OperatingProfitMarginTTM
		metrics.NetMargin = r.NetProfitMarginTTM
		metrics.CurrentRatio = r.CurrentRatioTTM
		metrics.QuickRatio = r.QuickRatioTTM
		metrics.DebtToEquity = r.DebtEquityRatioTTM
		metrics.InterestCoverage = r.InterestCoverageTTM
	}

	var growth []growthRow
	u = buildURL(c.baseURL, "/financial-growth/"+url.PathEscape(symbol), c.query(url.Values{"limit": {"1"}}))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &growth); err != nil {
		// Growth figures are optional; the engines treat them as unknown.
		log.Debug().Err(err).Str("symbol", symbol).Msg("Growth figures unavailable")
	} else if len(growth) > 0 {
		metrics.EPSGrowth5Y = growth[0].FiveYEPSGrowthPerShare
		metrics.RevenueGrowth5Y = growth[0].FiveYRevenueGrowthPerShare
		metrics.EPSGrowthTTM = growth[0].EPSGrowth
	}

	return metrics, nil
}

type historicalResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"historical"`
}

// DailyCloses returns trailing daily closes, most recent last. Implements
// the price history contract of the AI scorer's momentum component.
func (c *FMPClient) DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	q := url.Values{"timeseries": {strconv.Itoa(days)}}
	u := buildURL(c.baseURL, "/historical-price-full/"+url.PathEscape(symbol), c.query(q))

	var resp historicalResponse
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &resp); err != nil {
		return nil, fmt.Errorf("price history fetch failed for %s: %w", symbol, err)
	}

	// The API returns most recent first; the scorer wants most recent last.
	closes := make([]float64, 0, len(resp.Historical))
	for i := len(resp.Historical) - 1; i >= 0; i-- {
		closes = append(closes, resp.Historical[i].Close)
	}
	return closes, nil
}

type newsRow struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Site          string `json:"site"`
	PublishedDate string `json:"publishedDate"`
}

// News returns the latest headlines for a symbol, newest first.
func (c *FMPClient) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	q := url.Values{"tickers": {symbol}, "limit": {strconv.Itoa(limit)}}
	u := buildURL(c.baseURL, "/stock_news", c.query(q))

	var rows []newsRow
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &rows); err != nil {
		return nil, fmt.Errorf("news fetch failed for %s: %w", symbol, err)
	}

	items := make([]models.NewsItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.NewsItem{
			Title:  row.Title,
			Link:   row.URL,
			Source: row.Site,
			Date:   row.PublishedDate,
		})
	}
	return items, nil
}

type estimateRow struct {
	EstimatedEPSAvg *float64 `json:"estimatedEpsAvg"`
	Date            string   `json:"date"`
}

type quoteRow struct {
	Symbol            string   `json:"symbol"`
	Price             float64  `json:"price"`
	ChangesPercentage float64  `json:"changesPercentage"`
	PE                *float64 `json:"pe"`
	EPS               *float64 `json:"eps"`
}

// SecondaryStats pulls the forward-looking valuation figures from the
// analyst estimates and quote endpoints.
func (c *FMPClient) SecondaryStats(ctx context.Context, symbol string) (*analysis.SecondaryStats, error) {
	stats := &analysis.SecondaryStats{}

	var ratios []ratiosTTM
	u := buildURL(c.baseURL, "/ratios-ttm/"+url.PathEscape(symbol), c.query(nil))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &ratios); err == nil && len(ratios) > 0 {
		stats.PEG = ratios[0].PEGRatioTTM
	}

	var estimates []estimateRow
	u = buildURL(c.baseURL, "/analyst-estimates/"+url.PathEscape(symbol), c.query(url.Values{"limit": {"2"}}))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &estimates); err != nil {
		return nil, fmt.Errorf("estimates fetch failed for %s: %w", symbol, err)
	}
	// Estimates come newest first: [0] is next year, [1] the current year.
	if len(estimates) > 0 {
		stats.EPSNextYear = estimates[0].EstimatedEPSAvg
	}
	if len(estimates) > 1 {
		stats.EPSThisYear = estimates[1].EstimatedEPSAvg
	}

	var quotes []quoteRow
	u = buildURL(c.baseURL, "/quote/"+url.PathEscape(symbol), c.query(nil))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &quotes); err == nil && len(quotes) > 0 {
		q := quotes[0]
		if q.PE != nil && q.EPS != nil && stats.EPSNextYear != nil && *stats.EPSNextYear != 0 {
			fwd := q.Price / *stats.EPSNextYear
			stats.ForwardPE = &fwd
		}
	}

	return stats, nil
}

type earningsRow struct {
	Date        string   `json:"date"`
	EPSEstimate *float64 `json:"epsEstimated"`
	EPS         *float64 `json:"eps"`
	Revenue     *float64 `json:"revenueEstimated"`
}

// NextEarnings returns the next scheduled earnings event, if any.
func (c *FMPClient) NextEarnings(ctx context.Context, symbol string) (*models.EarningsInfo, error) {
	var rows []earningsRow
	u := buildURL(c.baseURL, "/historical/earning_calendar/"+url.PathEscape(symbol), c.query(url.Values{"limit": {"4"}}))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &rows); err != nil {
		return nil, fmt.Errorf("earnings fetch failed for %s: %w", symbol, err)
	}

	now := time.Now().UTC()
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil || date.Before(now) {
			continue
		}
		return &models.EarningsInfo{
			NextEarningsDate: &date,
			EPSEstimate:      row.EPSEstimate,
			EPSActual:        row.EPS,
			RevenueEstimate:  row.Revenue,
		}, nil
	}

	return nil, nil
}

type keyMetricsTTM struct {
	FreeCashFlowTTM *float64 `json:"freeCashFlowTTM"`
	TotalDebtTTM    *float64 `json:"totalDebtTTM"`
	CashAndEquivTTM *float64 `json:"cashAndShortTermInvestmentsTTM"`
	NetIncomeTotal  *float64 `json:"netIncomeTTM"`
	RevenueTotal    *float64 `json:"revenueTTM"`
}

// BalanceHighlights returns the trailing aggregates used by the quality
// component of the AI score.
func (c *FMPClient) BalanceHighlights(ctx context.Context, symbol string) (*analysis.BalanceHighlights, error) {
	var rows []keyMetricsTTM
	u := buildURL(c.baseURL, "/key-metrics-ttm/"+url.PathEscape(symbol), c.query(nil))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &rows); err != nil {
		return nil, fmt.Errorf("key metrics fetch failed for %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return &analysis.BalanceHighlights{}, nil
	}

	r := rows[0]
	return &analysis.BalanceHighlights{
		RevenueTTM:   r.RevenueTotal,
		NetIncomeTTM: r.NetIncomeTotal,
		FreeCashFlow: r.FreeCashFlowTTM,
		TotalDebt:    r.TotalDebtTTM,
		TotalCash:    r.CashAndEquivTTM,
	}, nil
}

// RelatedQuote returns price and day change for a related asset symbol.
func (c *FMPClient) RelatedQuote(ctx context.Context, symbol string) (float64, float64, error) {
	var quotes []quoteRow
	u := buildURL(c.baseURL, "/quote/"+url.PathEscape(symbol), c.query(nil))
	if err := c.transport.GetJSON(ctx, fmpProviderName, u, &quotes); err != nil {
		return 0, 0, fmt.Errorf("quote fetch failed for %s: %w", symbol, err)
	}
	if len(quotes) == 0 {
		return 0, 0, fmt.Errorf("no quote for %s", symbol)
	}
	return quotes[0].Price, quotes[0].ChangesPercentage, nil
}
