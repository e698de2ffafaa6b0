package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garprun/garprun/internal/models"
)

func TestEngine_Score_AllMetricsStrong(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	stock := &models.Stock{
		Symbol: "GARP",
		Metrics: models.StockMetrics{
			PEGRatio:     models.Float(0.4),
			PERatio:      models.Float(15),
			ROE:          models.Float(0.28),
			CurrentRatio: models.Float(2.6),
			QuickRatio:   models.Float(1.8),
			DebtToEquity: models.Float(0.15),
			NetMargin:    models.Float(0.22),
		},
	}

	total, breakdown := engine.Score(stock)

	// All valuation, profitability and financial-health tiers hit.
	assert.GreaterOrEqual(t, breakdown["valuation"], 8.0)
	assert.GreaterOrEqual(t, breakdown["profitability"], 8.0)
	assert.GreaterOrEqual(t, breakdown["financial_health"], 9.0)
	assert.LessOrEqual(t, total, 10.0)
	assert.Greater(t, total, 0.0)
}

func TestEngine_Score_AllMetricsWeak(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	stock := &models.Stock{
		Symbol: "JUNK",
		Metrics: models.StockMetrics{
			PEGRatio:     models.Float(1.8),
			PERatio:      models.Float(55),
			ROE:          models.Float(0.08),
			DebtToEquity: models.Float(1.4),
			CurrentRatio: models.Float(0.9),
		},
	}

	_, breakdown := engine.Score(stock)

	assert.LessOrEqual(t, breakdown["valuation"], 2.0)
	assert.LessOrEqual(t, breakdown["profitability"], 4.0)
	assert.LessOrEqual(t, breakdown["financial_health"], 1.0)
}

func TestEngine_Score_MissingMetricsStayNeutral(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	total, breakdown := engine.Score(&models.Stock{Symbol: "EMPTY"})

	for category, score := range breakdown {
		assert.Equal(t, 5.0, score, "category %s", category)
	}
	assert.Equal(t, 5.0, total)
}

func TestEngine_Score_ExtremeInputsStayClamped(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	stock := &models.Stock{
		Symbol: "EXTREME",
		Metrics: models.StockMetrics{
			PEGRatio:        models.Float(-50),
			PERatio:         models.Float(100000),
			EPSGrowth5Y:     models.Float(99999),
			RevenueGrowth5Y: models.Float(99999),
			ROE:             models.Float(-1000),
			ROA:             models.Float(1000),
			NetMargin:       models.Float(1000),
			CurrentRatio:    models.Float(1000),
			QuickRatio:      models.Float(-1000),
			DebtToEquity:    models.Float(1000),
		},
	}

	total, breakdown := engine.Score(stock)
	for category, score := range breakdown {
		assert.GreaterOrEqual(t, score, 0.0, "category %s", category)
		assert.LessOrEqual(t, score, 10.0, "category %s", category)
	}
	assert.GreaterOrEqual(t, total, 0.0)
	assert.LessOrEqual(t, total, 10.0)
}

func TestEngine_Score_ValuationMonotonicInPEG(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	stock := &models.Stock{
		Symbol: "PEG",
		Metrics: models.StockMetrics{
			PERatio: models.Float(15),
		},
	}

	// Dropping PEG from 1.2 to 0.4 never decreases the valuation sub-score.
	previous := -1.0
	for _, peg := range []float64{1.2, 1.0, 0.75, 0.5, 0.4} {
		stock.Metrics.PEGRatio = models.Float(peg)
		_, breakdown := engine.Score(stock)
		assert.GreaterOrEqual(t, breakdown["valuation"], previous, "peg=%v", peg)
		previous = breakdown["valuation"]
	}
}

func TestEngine_Score_GrowthNormalizesPercentUnits(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	fraction := &models.Stock{
		Metrics: models.StockMetrics{EPSGrowth5Y: models.Float(0.22)},
	}
	percent := &models.Stock{
		Metrics: models.StockMetrics{EPSGrowth5Y: models.Float(22)},
	}

	_, fb := engine.Score(fraction)
	_, pb := engine.Score(percent)
	assert.Equal(t, fb["growth"], pb["growth"], "0.22 and 22 are the same growth rate")
	assert.Equal(t, 8.0, fb["growth"])
}

func TestEngine_Score_WeightedTotal(t *testing.T) {
	weights := Weights{Valuation: 0.5, Growth: 0.2, Profitability: 0.2, FinancialHealth: 0.1}
	engine := NewEngine(weights)

	stock := &models.Stock{
		Metrics: models.StockMetrics{
			PEGRatio:     models.Float(0.4),
			CurrentRatio: models.Float(2.6),
		},
	}

	total, breakdown := engine.Score(stock)
	expected := breakdown["valuation"]*0.5 + breakdown["growth"]*0.2 +
		breakdown["profitability"]*0.2 + breakdown["financial_health"]*0.1
	assert.InDelta(t, expected, total, 0.005)
}

func TestNewEngine_ZeroWeightsFallBackToDefaults(t *testing.T) {
	engine := NewEngine(Weights{})
	require.Equal(t, DefaultWeights(), engine.Weights())
	assert.InDelta(t, 1.0, engine.Weights().Sum(), 1e-9)
}
