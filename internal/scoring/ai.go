package scoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/models"
)

// Component weights for the AI score. Hard-coded, sum to 1.0, so the total
// stays in [0,10] as long as each component is clamped.
const (
	weightFundamental = 0.20
	weightValuation   = 0.25
	weightGrowth      = 0.20
	weightMomentum    = 0.15
	weightSentiment   = 0.10
	weightQuality     = 0.10
)

// AIScoreBreakdown is the full multi-signal score for one stock: six
// component scores, the weighted total, categorical labels and the
// opportunity/risk flags. Produced fresh on every Score call.
type AIScoreBreakdown struct {
	FundamentalScore float64 `json:"fundamental_score"`
	ValuationScore   float64 `json:"valuation_score"`
	GrowthScore      float64 `json:"growth_score"`
	MomentumScore    float64 `json:"momentum_score"`
	SentimentScore   float64 `json:"sentiment_score"`
	QualityScore     float64 `json:"quality_score"`

	TotalScore float64 `json:"total_score"`

	SentimentSummary string `json:"sentiment_summary"`
	MomentumTrend    string `json:"momentum_trend"`    // "bullish", "neutral", "bearish", ...
	ValuationVsPeers string `json:"valuation_vs_peers"` // "cheap", "fair", "expensive", ...
	GrowthOutlook    string `json:"growth_outlook"`     // "accelerating", "stable", "decelerating", ...

	Flags []string `json:"flags,omitempty"`
}

// PriceHistoryProvider supplies trailing daily closes, most recent last.
// The momentum component asks for roughly three months of data; any error or
// short history degrades momentum to its neutral baseline.
type PriceHistoryProvider interface {
	DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// AIScorer blends fundamentals, valuation, growth, technical momentum, news
// sentiment and business quality into one weighted score with qualitative
// flags. It never fails on sparse inputs: every missing signal falls back to
// the neutral baseline documented on its component.
type AIScorer struct {
	history PriceHistoryProvider
}

// NewAIScorer creates an AI scorer. history may be nil, in which case the
// momentum component always reports the neutral baseline.
func NewAIScorer(history PriceHistoryProvider) *AIScorer {
	return &AIScorer{history: history}
}

// Score computes the full breakdown. analysis and sectorMedianPE are
// optional; nil degrades the dependent components as specified per
// component.
func (a *AIScorer) Score(ctx context.Context, stock *models.Stock, analysis *models.StockAnalysis, sectorMedianPE *float64) *AIScoreBreakdown {
	b := &AIScoreBreakdown{}

	b.FundamentalScore = a.scoreFundamentals(&stock.Metrics)
	b.ValuationScore, b.ValuationVsPeers = a.scoreValuation(&stock.Metrics, analysis, sectorMedianPE)
	b.GrowthScore, b.GrowthOutlook = a.scoreGrowth(&stock.Metrics, analysis)
	b.MomentumScore, b.MomentumTrend = a.scoreMomentum(ctx, stock)

	if analysis != nil && len(analysis.News) > 0 {
		b.SentimentScore, b.SentimentSummary = scoreSentiment(analysis.News)
	} else {
		b.SentimentScore = 5.0
		b.SentimentSummary = "No news available"
	}

	b.QualityScore = a.scoreQuality(&stock.Metrics, analysis)

	b.TotalScore = round2(
		b.FundamentalScore*weightFundamental +
			b.ValuationScore*weightValuation +
			b.GrowthScore*weightGrowth +
			b.MomentumScore*weightMomentum +
			b.SentimentScore*weightSentiment +
			b.QualityScore*weightQuality)

	b.Flags = a.generateFlags(stock, analysis, b)

	log.Debug().Str("symbol", stock.Symbol).
		Float64("total", b.TotalScore).
		Str("trend", b.MomentumTrend).
		Str("outlook", b.GrowthOutlook).
		Msg("AI score computed")

	return b
}

// scoreFundamentals covers the core financial ratios.
func (a *AIScorer) scoreFundamentals(m *models.StockMetrics) float64 {
	score := 5.0

	if m.ROE != nil {
		switch roe := normalizePercent(*m.ROE); {
		case roe >= 25:
			score += 2
		case roe >= 20:
			score += 1.5
		case roe >= 15:
			score += 1
		case roe < 10:
			score -= 1
		}
	}

	if m.NetMargin != nil {
		switch nm := *m.NetMargin; {
		case nm > 0.20:
			score += 1.5
		case nm > 0.15:
			score += 1
		case nm > 0.10:
			score += 0.5
		case nm < 0.05:
			score -= 1
		}
	}

	if m.CurrentRatio != nil {
		if *m.CurrentRatio >= 2 {
			score += 1
		} else if *m.CurrentRatio < 1 {
			score -= 1.5
		}
	}

	if m.DebtToEquity != nil {
		if *m.DebtToEquity <= 0.3 {
			score += 1
		} else if *m.DebtToEquity > 1 {
			score -= 1
		}
	}

	return clamp10(score)
}

// scoreValuation measures how cheap the stock is, preferring the
// secondary-source PEG when one exists and comparing P/E against the sector
// median when supplied. The label reflects whichever tier applied last.
func (a *AIScorer) scoreValuation(m *models.StockMetrics, analysis *models.StockAnalysis, sectorMedianPE *float64) (float64, string) {
	score := 5.0
	label := "fair"

	peg := m.PEGRatio
	if analysis != nil && analysis.PEGSecondary != nil {
		peg = analysis.PEGSecondary
	}

	if peg != nil {
		switch p := *peg; {
		case p <= 0.5:
			score += 3
			label = "very cheap"
		case p <= 0.75:
			score += 2
			label = "cheap"
		case p <= 1:
			score += 1
		case p > 1.5:
			score -= 1
			label = "expensive"
		case p > 2:
			score -= 2
			label = "very expensive"
		}
	}

	if m.PERatio != nil && sectorMedianPE != nil && *sectorMedianPE != 0 {
		switch ratio := *m.PERatio / *sectorMedianPE; {
		case ratio < 0.7:
			score += 2
			label = "cheap vs sector"
		case ratio < 0.9:
			score += 1
		case ratio > 1.3:
			score -= 1
		case ratio > 1.5:
			score -= 2
		}
	}

	if analysis != nil && analysis.ForwardPE != nil {
		if *analysis.ForwardPE < 15 {
			score += 1
		} else if *analysis.ForwardPE > 30 {
			score -= 1
		}
	}

	return clamp10(score), label
}

// scoreGrowth combines historical EPS growth with forward estimates.
func (a *AIScorer) scoreGrowth(m *models.StockMetrics, analysis *models.StockAnalysis) (float64, string) {
	score := 5.0
	outlook := "stable"

	if m.EPSGrowth5Y != nil {
		switch growth := normalizePercent(*m.EPSGrowth5Y); {
		case growth >= 25:
			score += 2
			outlook = "strong"
		case growth >= 15:
			score += 1.5
		case growth >= 10:
			score += 1
		case growth < 5:
			score -= 1
			outlook = "weak"
		}
	}

	if analysis != nil {
		if analysis.EPSThisYear != nil && analysis.EPSNextYear != nil {
			if *analysis.EPSNextYear > *analysis.EPSThisYear {
				score += 1.5
				outlook = "accelerating"
			} else if *analysis.EPSNextYear < *analysis.EPSThisYear*0.9 {
				score -= 1
				outlook = "decelerating"
			}
		}

		if analysis.EPSThisYear != nil && *analysis.EPSThisYear > 0.3 {
			score += 1
		}
	}

	if m.RevenueGrowth5Y != nil {
		if *m.RevenueGrowth5Y > 0.15 {
			score += 1
		} else if *m.RevenueGrowth5Y < 0 {
			score -= 1
		}
	}

	return clamp10(score), outlook
}

// scoreQuality measures how durable the business is: asset efficiency, cash
// generation and gross margin as a moat proxy.
func (a *AIScorer) scoreQuality(m *models.StockMetrics, analysis *models.StockAnalysis) float64 {
	score := 5.0

	if m.ROA != nil {
		switch roa := *m.ROA; {
		case roa > 0.15:
			score += 2
		case roa > 0.10:
			score += 1
		case roa < 0.05:
			score -= 1
		}
	}

	if analysis != nil && analysis.FreeCashFlow != nil && *analysis.FreeCashFlow > 0 {
		score += 1
		// FCF above reported net income is an earnings-quality signal.
		if analysis.NetIncomeTTM != nil && *analysis.FreeCashFlow > *analysis.NetIncomeTTM {
			score += 1
		}
	}

	if analysis != nil && analysis.TotalCash != nil && analysis.TotalDebt != nil {
		if *analysis.TotalCash > *analysis.TotalDebt {
			score += 1
		}
	}

	if m.GrossMargin != nil {
		if *m.GrossMargin > 0.40 {
			score += 1
		} else if *m.GrossMargin < 0.20 {
			score -= 1
		}
	}

	return clamp10(score)
}

// generateFlags emits the ordered opportunity/risk/event flags. Checks are
// independent; several can fire for the same stock.
func (a *AIScorer) generateFlags(stock *models.Stock, analysis *models.StockAnalysis, b *AIScoreBreakdown) []string {
	var flags []string

	if b.ValuationScore >= 8 {
		flags = append(flags, "OPPORTUNITY: Very undervalued")
	}
	if b.SentimentScore >= 7 && b.MomentumScore >= 7 {
		flags = append(flags, "OPPORTUNITY: Positive momentum + sentiment")
	}
	if b.GrowthOutlook == "accelerating" {
		flags = append(flags, "OPPORTUNITY: Accelerating growth")
	}
	if b.MomentumTrend == "oversold - potential bounce" {
		flags = append(flags, "OPPORTUNITY: Technically oversold")
	}
	if analysis != nil && analysis.PEGSecondary != nil && *analysis.PEGSecondary < 0.5 {
		flags = append(flags, fmt.Sprintf("OPPORTUNITY: Very low PEG (%.2f)", *analysis.PEGSecondary))
	}

	if b.SentimentScore <= 3 {
		flags = append(flags, "RISK: Negative news sentiment")
	}
	if b.MomentumTrend == "bearish" {
		flags = append(flags, "RISK: Bearish technical trend")
	}
	if b.GrowthOutlook == "decelerating" {
		flags = append(flags, "RISK: Decelerating growth")
	}
	if stock.Metrics.DebtToEquity != nil && *stock.Metrics.DebtToEquity > 1 {
		flags = append(flags, "RISK: High debt levels")
	}

	if analysis != nil && analysis.Earnings != nil && analysis.Earnings.NextEarningsDate != nil {
		flags = append(flags, fmt.Sprintf("EVENT: Earnings on %s", analysis.Earnings.NextEarningsDate.Format("2006-01-02")))
	}

	return flags
}
