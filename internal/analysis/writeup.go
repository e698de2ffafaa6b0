package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/garprun/garprun/internal/models"
	"github.com/garprun/garprun/internal/scoring"
)

// Recommendation tiers over the AI total score.
const (
	strongBuyThreshold = 7.5
	buyThreshold       = 6.5
	holdThreshold      = 5.5
)

// TradeIdea is a client-facing write-up for one stock, rendered once in
// markdown and once in plain text so it can be pasted anywhere.
type TradeIdea struct {
	Symbol      string    `json:"symbol"`
	GeneratedAt time.Time `json:"generated_at"`
	Markdown    string    `json:"markdown"`
	PlainText   string    `json:"plain_text"`
}

// IdeaWriter renders trade ideas from a scored analysis.
type IdeaWriter struct{}

// NewIdeaWriter creates a write-up renderer.
func NewIdeaWriter() *IdeaWriter {
	return &IdeaWriter{}
}

// Generate builds the full write-up for one stock. analysis must carry at
// least symbol and industry; sections it lacks are simply omitted from the
// output.
func (w *IdeaWriter) Generate(stock *models.Stock, analysis *models.StockAnalysis, score *scoring.AIScoreBreakdown) *TradeIdea {
	now := time.Now()
	rec := recommendation(score.TotalScore)

	return &TradeIdea{
		Symbol:      stock.Symbol,
		GeneratedAt: now,
		Markdown:    w.renderMarkdown(stock, analysis, score, rec, now),
		PlainText:   w.renderPlainText(stock, analysis, score, rec, now),
	}
}

// QuickSummary renders the one-line form used in list output.
func (w *IdeaWriter) QuickSummary(stock *models.Stock, score *scoring.AIScoreBreakdown) string {
	return fmt.Sprintf("%s | %s | Score: %.2f/10 | $%.2f | %s",
		stock.Symbol, recommendation(score.TotalScore), score.TotalScore, stock.Price, stock.Sector)
}

func recommendation(total float64) string {
	switch {
	case total >= strongBuyThreshold:
		return "STRONG BUY"
	case total >= buyThreshold:
		return "BUY"
	case total >= holdThreshold:
		return "HOLD"
	default:
		return "WATCH"
	}
}

func (w *IdeaWriter) renderMarkdown(stock *models.Stock, analysis *models.StockAnalysis, score *scoring.AIScoreBreakdown, rec string, now time.Time) string {
	m := &stock.Metrics
	var b strings.Builder

	fmt.Fprintf(&b, "# Trade Idea: %s\n\n", stock.Symbol)
	fmt.Fprintf(&b, "**%s**\n", stock.Name)
	fmt.Fprintf(&b, "Sector: %s | Industry: %s\n", stock.Sector, analysis.Industry)
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("2006-01-02 15:04"))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| **Recommendation** | **%s** |\n", rec)
	fmt.Fprintf(&b, "| **AI Score** | **%.2f/10** |\n", score.TotalScore)
	fmt.Fprintf(&b, "| **Price** | $%.2f |\n", stock.Price)
	fmt.Fprintf(&b, "| **Market Cap** | %s |\n\n", formatCurrency(&stock.MarketCap))

	fmt.Fprintf(&b, "## Why %s\n\n", stock.Symbol)
	for _, reason := range buyReasons(stock, analysis, score) {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	b.WriteString("\n")

	b.WriteString("## Fundamentals\n\n")
	b.WriteString("### Valuation\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| P/E | %s |\n", formatRatio(m.PERatio, 1))
	fmt.Fprintf(&b, "| PEG | %s |\n", formatRatio(firstOf(analysis.PEGSecondary, m.PEGRatio), 2))
	fmt.Fprintf(&b, "| Forward P/E | %s |\n", formatRatio(analysis.ForwardPE, 1))
	fmt.Fprintf(&b, "| P/B | %s |\n\n", formatRatio(m.PBRatio, 2))

	b.WriteString("### Profitability\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| ROE | %s |\n", formatPercent(m.ROE))
	fmt.Fprintf(&b, "| ROA | %s |\n", formatPercent(m.ROA))
	fmt.Fprintf(&b, "| Net Margin | %s |\n", formatPercent(m.NetMargin))
	fmt.Fprintf(&b, "| Gross Margin | %s |\n\n", formatPercent(m.GrossMargin))

	b.WriteString("### Growth\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| EPS Growth (5Y) | %s |\n", formatPercent(m.EPSGrowth5Y))
	fmt.Fprintf(&b, "| EPS This Year | %s |\n", formatPercent(analysis.EPSThisYear))
	fmt.Fprintf(&b, "| EPS Next Year | %s |\n\n", formatPercent(analysis.EPSNextYear))

	b.WriteString("### Financial Health\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Current Ratio | %s |\n", formatRatio(m.CurrentRatio, 2))
	fmt.Fprintf(&b, "| Quick Ratio | %s |\n", formatRatio(m.QuickRatio, 2))
	fmt.Fprintf(&b, "| Debt/Equity | %s |\n\n", formatRatio(m.DebtToEquity, 2))

	if p := analysis.Performance; p != nil {
		b.WriteString("## Price Performance\n\n")
		b.WriteString("| Period | Change |\n|--------|--------|\n")
		fmt.Fprintf(&b, "| 1 Day | %s |\n", formatPercent(p.Perf1D))
		fmt.Fprintf(&b, "| 1 Week | %s |\n", formatPercent(p.Perf1W))
		fmt.Fprintf(&b, "| 1 Month | %s |\n", formatPercent(p.Perf1M))
		fmt.Fprintf(&b, "| YTD | %s |\n", formatPercent(p.PerfYTD))
		fmt.Fprintf(&b, "| 52 Weeks | %s |\n\n", formatPercent(p.Perf52W))
	}

	b.WriteString("## Balance Highlights\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Revenue (TTM) | %s |\n", formatCurrency(analysis.RevenueTTM))
	fmt.Fprintf(&b, "| Net Income (TTM) | %s |\n", formatCurrency(analysis.NetIncomeTTM))
	fmt.Fprintf(&b, "| Free Cash Flow | %s |\n", formatCurrency(analysis.FreeCashFlow))
	fmt.Fprintf(&b, "| Total Cash | %s |\n", formatCurrency(analysis.TotalCash))
	fmt.Fprintf(&b, "| Total Debt | %s |\n\n", formatCurrency(analysis.TotalDebt))

	if analysis.TotalCash != nil && analysis.TotalDebt != nil {
		netCash := *analysis.TotalCash - *analysis.TotalDebt
		if netCash > 0 {
			fmt.Fprintf(&b, "**Net cash position:** %s\n\n", formatCurrency(&netCash))
		} else {
			netDebt := math.Abs(netCash)
			fmt.Fprintf(&b, "**Net debt:** %s\n\n", formatCurrency(&netDebt))
		}
	}

	if analysis.Earnings != nil && analysis.Earnings.NextEarningsDate != nil {
		b.WriteString("## Next Earnings\n\n")
		fmt.Fprintf(&b, "**Date:** %s\n", analysis.Earnings.NextEarningsDate.Format("2006-01-02"))
		if analysis.Earnings.EPSEstimate != nil {
			fmt.Fprintf(&b, "**EPS Estimate:** $%.2f\n", *analysis.Earnings.EPSEstimate)
		}
		b.WriteString("\n")
	}

	b.WriteString("## AI Score Breakdown\n\n")
	b.WriteString("| Component | Score | Weight | Detail |\n|-----------|-------|--------|--------|\n")
	fmt.Fprintf(&b, "| Fundamental | %.1f/10 | 20%% | ROE, margins, ratios |\n", score.FundamentalScore)
	fmt.Fprintf(&b, "| Valuation | %.1f/10 | 25%% | %s |\n", score.ValuationScore, score.ValuationVsPeers)
	fmt.Fprintf(&b, "| Growth | %.1f/10 | 20%% | %s |\n", score.GrowthScore, score.GrowthOutlook)
	fmt.Fprintf(&b, "| Momentum | %.1f/10 | 15%% | %s |\n", score.MomentumScore, score.MomentumTrend)
	fmt.Fprintf(&b, "| Sentiment | %.1f/10 | 10%% | %s |\n", score.SentimentScore, score.SentimentSummary)
	fmt.Fprintf(&b, "| Quality | %.1f/10 | 10%% | FCF, efficiency |\n", score.QualityScore)
	fmt.Fprintf(&b, "| **TOTAL** | **%.2f/10** | 100%% | |\n\n", score.TotalScore)

	if len(score.Flags) > 0 {
		b.WriteString("## Signals\n\n")
		for _, flag := range score.Flags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
		b.WriteString("\n")
	}

	if len(analysis.News) > 0 {
		b.WriteString("## Recent News\n\n")
		for _, item := range boundNews(analysis.News, 5) {
			if item.Date != "" {
				fmt.Fprintf(&b, "- [%s] %s\n", item.Date, item.Title)
			} else {
				fmt.Fprintf(&b, "- %s\n", item.Title)
			}
		}
		b.WriteString("\n")
	}

	if len(analysis.RelatedAssets) > 0 {
		b.WriteString("## Related Assets\n\n")
		b.WriteString("| Asset | Price | Change | Type |\n|-------|-------|--------|------|\n")
		for _, asset := range analysis.RelatedAssets {
			fmt.Fprintf(&b, "| %s | $%.2f | %+.2f%% | %s |\n", asset.Name, asset.Price, asset.ChangePercent, asset.Relevance)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Disclaimer\n\n")
	b.WriteString("This idea is generated automatically from quantitative and qualitative analysis.\n")
	b.WriteString("**It is not financial advice.** Do your own research before investing.\n")

	return b.String()
}

// buyReasons lists the components that stand out, one line each. A stock
// with no standout component still gets the baseline line.
func buyReasons(stock *models.Stock, analysis *models.StockAnalysis, score *scoring.AIScoreBreakdown) []string {
	var reasons []string

	if score.FundamentalScore >= 8 {
		reasons = append(reasons, fmt.Sprintf("Solid fundamentals (%.1f/10): ROE %s, healthy margins",
			score.FundamentalScore, formatPercent(stock.Metrics.ROE)))
	}
	if score.ValuationScore >= 7 {
		detail := "attractive multiples"
		if peg := firstOf(analysis.PEGSecondary, stock.Metrics.PEGRatio); peg != nil {
			detail = fmt.Sprintf("PEG %.2f", *peg)
		}
		reasons = append(reasons, fmt.Sprintf("Attractive valuation (%.1f/10): %s, %s",
			score.ValuationScore, detail, score.ValuationVsPeers))
	}
	if score.GrowthScore >= 7 {
		reasons = append(reasons, fmt.Sprintf("Projected growth (%.1f/10): outlook %s",
			score.GrowthScore, score.GrowthOutlook))
	}
	if score.MomentumScore >= 7 {
		reasons = append(reasons, fmt.Sprintf("Positive technical momentum (%.1f/10): %s",
			score.MomentumScore, score.MomentumTrend))
	}
	if score.SentimentScore >= 7 {
		reasons = append(reasons, fmt.Sprintf("Positive news sentiment (%.1f/10): %s",
			score.SentimentScore, score.SentimentSummary))
	}
	if score.QualityScore >= 8 {
		detail := "solid cash generation"
		if analysis.FreeCashFlow != nil {
			detail = "FCF " + formatCurrency(analysis.FreeCashFlow)
		}
		reasons = append(reasons, fmt.Sprintf("Business quality (%.1f/10): %s",
			score.QualityScore, detail))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("Passes every GARP filter with score %.2f/10", score.TotalScore))
	}
	return reasons
}

func (w *IdeaWriter) renderPlainText(stock *models.Stock, analysis *models.StockAnalysis, score *scoring.AIScoreBreakdown, rec string, now time.Time) string {
	m := &stock.Metrics
	rule := strings.Repeat("=", 78)
	thin := strings.Repeat("-", 78)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nTRADE IDEA: %s - %s\n%s\n\n", rule, stock.Symbol, rec, rule)
	fmt.Fprintf(&b, "%s\nSector: %s | Industry: %s\nDate: %s\n\n", stock.Name, stock.Sector, analysis.Industry, now.Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "%s\nSUMMARY\n%s\n", thin, thin)
	fmt.Fprintf(&b, "Recommendation: %s\n", rec)
	fmt.Fprintf(&b, "AI Score: %.2f/10\n", score.TotalScore)
	fmt.Fprintf(&b, "Price: $%.2f\n", stock.Price)
	fmt.Fprintf(&b, "Market Cap: %s\n\n", formatCurrency(&stock.MarketCap))

	fmt.Fprintf(&b, "%s\nKEY METRICS\n%s\n", thin, thin)
	fmt.Fprintf(&b, "P/E: %s\n", formatRatio(m.PERatio, 1))
	fmt.Fprintf(&b, "PEG: %s\n", formatRatio(firstOf(analysis.PEGSecondary, m.PEGRatio), 2))
	fmt.Fprintf(&b, "ROE: %s\n", formatPercent(m.ROE))
	fmt.Fprintf(&b, "D/E: %s\n\n", formatRatio(m.DebtToEquity, 2))

	if p := analysis.Performance; p != nil {
		fmt.Fprintf(&b, "%s\nPERFORMANCE\n%s\n", thin, thin)
		fmt.Fprintf(&b, "1D: %s  1W: %s  1M: %s  YTD: %s  52W: %s\n\n",
			formatPercent(p.Perf1D), formatPercent(p.Perf1W), formatPercent(p.Perf1M),
			formatPercent(p.PerfYTD), formatPercent(p.Perf52W))
	}

	fmt.Fprintf(&b, "%s\nAI SCORE BREAKDOWN\n%s\n", thin, thin)
	fmt.Fprintf(&b, "Fundamental: %.1f/10\n", score.FundamentalScore)
	fmt.Fprintf(&b, "Valuation:   %.1f/10 (%s)\n", score.ValuationScore, score.ValuationVsPeers)
	fmt.Fprintf(&b, "Growth:      %.1f/10 (%s)\n", score.GrowthScore, score.GrowthOutlook)
	fmt.Fprintf(&b, "Momentum:    %.1f/10 (%s)\n", score.MomentumScore, score.MomentumTrend)
	fmt.Fprintf(&b, "Sentiment:   %.1f/10 (%s)\n", score.SentimentScore, score.SentimentSummary)
	fmt.Fprintf(&b, "Quality:     %.1f/10\n", score.QualityScore)
	fmt.Fprintf(&b, "TOTAL:       %.2f/10\n\n", score.TotalScore)

	fmt.Fprintf(&b, "%s\nBALANCE\n%s\n", thin, thin)
	fmt.Fprintf(&b, "Revenue TTM: %s\n", formatCurrency(analysis.RevenueTTM))
	fmt.Fprintf(&b, "Net Income:  %s\n", formatCurrency(analysis.NetIncomeTTM))
	fmt.Fprintf(&b, "Free Cash Flow: %s\n", formatCurrency(analysis.FreeCashFlow))
	fmt.Fprintf(&b, "Cash: %s\n", formatCurrency(analysis.TotalCash))
	fmt.Fprintf(&b, "Debt: %s\n", formatCurrency(analysis.TotalDebt))

	if analysis.Earnings != nil && analysis.Earnings.NextEarningsDate != nil {
		fmt.Fprintf(&b, "\n%s\nNEXT EARNINGS: %s\n%s\n", thin, analysis.Earnings.NextEarningsDate.Format("2006-01-02"), thin)
	}

	if len(score.Flags) > 0 {
		fmt.Fprintf(&b, "\n%s\nSIGNALS\n%s\n", thin, thin)
		for _, flag := range score.Flags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
	}

	fmt.Fprintf(&b, "\n%s\nDISCLAIMER: Generated automatically. Not financial advice. Do your own\nresearch before investing.\n%s\n", rule, rule)

	return b.String()
}

func boundNews(items []models.NewsItem, max int) []models.NewsItem {
	if len(items) > max {
		return items[:max]
	}
	return items
}

// firstOf returns the first non-nil value.
func firstOf(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// formatCurrency renders large money amounts in T/B/M units.
func formatCurrency(v *float64) string {
	if v == nil {
		return "N/A"
	}
	switch abs := math.Abs(*v); {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", *v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", *v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", *v/1e6)
	default:
		return fmt.Sprintf("$%.0f", *v)
	}
}

// formatPercent renders a percentage, treating magnitudes below 1 as
// fractions. Same heuristic the scorers apply to growth and ROE inputs.
func formatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	if math.Abs(*v) < 1 {
		return fmt.Sprintf("%.1f%%", *v*100)
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func formatRatio(v *float64, decimals int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}
