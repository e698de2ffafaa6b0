package scoring

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/models"
)

// Weights defines how much each category contributes to the base score.
// Weights are applied as given, without normalization: totals only stay in
// [0,10] when the weights sum to 1.0. Validate warns on misconfigured sets.
type Weights struct {
	Valuation       float64 `yaml:"valuation" json:"valuation"`
	Growth          float64 `yaml:"growth" json:"growth"`
	Profitability   float64 `yaml:"profitability" json:"profitability"`
	FinancialHealth float64 `yaml:"financial_health" json:"financial_health"`
}

// DefaultWeights splits the four categories evenly.
func DefaultWeights() Weights {
	return Weights{
		Valuation:       0.25,
		Growth:          0.25,
		Profitability:   0.25,
		FinancialHealth: 0.25,
	}
}

// Sum returns the total of the four weights.
func (w Weights) Sum() float64 {
	return w.Valuation + w.Growth + w.Profitability + w.FinancialHealth
}

// Validate warns when the weight sum strays from 1.0. The engine still uses
// the weights as given; rescaling them silently would change ranking
// behavior relative to the configured intent.
func (w Weights) Validate() {
	if math.Abs(w.Sum()-1.0) > 0.01 {
		log.Warn().Float64("sum", w.Sum()).
			Msg("Scoring weights do not sum to 1.0, totals may leave the 0-10 range")
	}
}

// Engine ranks stocks that already cleared the filter gate. Each of the four
// category sub-scores starts from a neutral 5.0 baseline, applies tier
// bonuses/penalties and clamps to [0,10]; missing metrics leave the baseline
// untouched.
type Engine struct {
	weights Weights
}

// NewEngine creates a base scoring engine. Zero-valued weights fall back to
// the even default split.
func NewEngine(weights Weights) *Engine {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	weights.Validate()
	return &Engine{weights: weights}
}

// Weights returns the weights the engine scores with.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Score computes the weighted total (2-decimal rounded) and per-category
// breakdown for a stock.
func (e *Engine) Score(stock *models.Stock) (float64, map[string]float64) {
	breakdown := map[string]float64{
		"valuation":        e.scoreValuation(&stock.Metrics),
		"growth":           e.scoreGrowth(&stock.Metrics),
		"profitability":    e.scoreProfitability(&stock.Metrics),
		"financial_health": e.scoreFinancialHealth(&stock.Metrics),
	}

	total := breakdown["valuation"]*e.weights.Valuation +
		breakdown["growth"]*e.weights.Growth +
		breakdown["profitability"]*e.weights.Profitability +
		breakdown["financial_health"]*e.weights.FinancialHealth

	return round2(total), breakdown
}

// scoreValuation rewards low PEG and a reasonable P/E.
func (e *Engine) scoreValuation(m *models.StockMetrics) float64 {
	score := 5.0

	if m.PEGRatio != nil {
		switch peg := *m.PEGRatio; {
		case peg <= 0.5:
			score += 3
		case peg <= 0.75:
			score += 2
		case peg <= 1:
			score += 1
		case peg > 1.5:
			score -= 2
		}
	}

	if m.PERatio != nil {
		switch pe := *m.PERatio; {
		case pe >= 10 && pe <= 20:
			score += 2
		case pe >= 5 && pe <= 30:
			score += 1
		case pe > 50:
			score -= 2
		}
	}

	return clamp10(score)
}

// scoreGrowth rewards historical EPS growth with a revenue growth bonus.
func (e *Engine) scoreGrowth(m *models.StockMetrics) float64 {
	score := 5.0

	if m.EPSGrowth5Y != nil {
		switch growth := normalizePercent(*m.EPSGrowth5Y); {
		case growth >= 20:
			score += 3
		case growth >= 15:
			score += 2
		case growth >= 10:
			score += 1
		case growth < 5:
			score -= 1
		}
	}

	// Revenue growth stays in fraction units here.
	if m.RevenueGrowth5Y != nil && *m.RevenueGrowth5Y > 0.1 {
		score += 1
	}

	return clamp10(score)
}

// scoreProfitability rewards ROE, net margin and ROA.
func (e *Engine) scoreProfitability(m *models.StockMetrics) float64 {
	score := 5.0

	if m.ROE != nil {
		switch roe := normalizePercent(*m.ROE); {
		case roe >= 25:
			score += 3
		case roe >= 20:
			score += 2
		case roe >= 15:
			score += 1
		case roe < 10:
			score -= 1
		}
	}

	if m.NetMargin != nil {
		if *m.NetMargin > 0.15 {
			score += 1
		} else if *m.NetMargin > 0.10 {
			score += 0.5
		}
	}

	if m.ROA != nil && *m.ROA > 0.10 {
		score += 1
	}

	return clamp10(score)
}

// scoreFinancialHealth rewards liquidity and low leverage.
func (e *Engine) scoreFinancialHealth(m *models.StockMetrics) float64 {
	score := 5.0

	if m.CurrentRatio != nil {
		switch cr := *m.CurrentRatio; {
		case cr >= 2.5:
			score += 2
		case cr >= 2:
			score += 1.5
		case cr >= 1.5:
			score += 1
		case cr < 1:
			score -= 2
		}
	}

	if m.QuickRatio != nil {
		switch qr := *m.QuickRatio; {
		case qr >= 1.5:
			score += 1.5
		case qr >= 1:
			score += 1
		case qr < 0.5:
			score -= 1
		}
	}

	if m.DebtToEquity != nil {
		switch de := *m.DebtToEquity; {
		case de <= 0.2:
			score += 2
		case de <= 0.3:
			score += 1.5
		case de <= 0.5:
			score += 1
		case de > 1:
			score -= 2
		}
	}

	return clamp10(score)
}
