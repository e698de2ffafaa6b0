package scoring

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/models"
)

// historyDays is roughly three months of trading days. A full momentum
// signal wants ≥60 observations; shorter histories degrade component by
// component rather than failing.
const historyDays = 63

// scoreMomentum computes the technical momentum component from trailing
// daily closes. Missing or failed price history is never an error: the
// component returns the unmodified 5.0 baseline with a "neutral" trend.
func (a *AIScorer) scoreMomentum(ctx context.Context, stock *models.Stock) (float64, string) {
	score := 5.0
	trend := "neutral"

	if a.history == nil {
		return score, trend
	}

	closes, err := a.history.DailyCloses(ctx, stock.Symbol, historyDays)
	if err != nil {
		log.Debug().Err(err).Str("symbol", stock.Symbol).Msg("Price history unavailable, momentum stays neutral")
		return score, trend
	}
	if len(closes) == 0 {
		return score, trend
	}

	price := closes[len(closes)-1]

	// Trend via moving average ordering. With fewer than 20 observations
	// there is no SMA20 and the trend component stays neutral.
	if len(closes) >= 20 {
		sma20 := mean(closes[len(closes)-20:])
		sma50 := sma20
		if len(closes) >= 50 {
			sma50 = mean(closes[len(closes)-50:])
		}

		switch {
		case price > sma20 && sma20 > sma50:
			score += 2
			trend = "bullish"
		case price > sma20:
			score += 1
			trend = "slightly bullish"
		case price < sma20 && sma20 < sma50:
			score -= 2
			trend = "bearish"
		case price < sma20:
			score -= 1
			trend = "slightly bearish"
		}
	}

	// Position within the trailing range: proximity to the lows reads as
	// opportunity, the top decile as stretched.
	low, high := minMax(closes)
	if high > low {
		position := (price - low) / (high - low)
		if position < 0.3 {
			score += 1
		} else if position > 0.9 {
			score -= 0.5
		}
	}

	// 14-period RSI from daily deltas. Zero average loss (straight-up tape)
	// leaves the RSI adjustment out entirely.
	if avgGain, avgLoss, ok := rsiAverages(closes, 14); ok && avgLoss > 0 {
		rs := avgGain / avgLoss
		rsi := 100 - (100 / (1 + rs))

		if rsi < 30 {
			score += 1.5
			trend = "oversold - potential bounce"
		} else if rsi > 70 {
			score -= 0.5
		}
	}

	return clamp10(score), trend
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minMax(values []float64) (float64, float64) {
	low, high := values[0], values[0]
	for _, v := range values[1:] {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high
}

// rsiAverages returns the average gain and average loss over the last
// `period` daily deltas. ok is false when there are not enough observations.
func rsiAverages(closes []float64, period int) (float64, float64, bool) {
	if len(closes) < period+1 {
		return 0, 0, false
	}

	gains := 0.0
	losses := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	return gains / float64(period), losses / float64(period), true
}
