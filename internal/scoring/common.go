package scoring

import "math"

// clamp10 bounds a score to the closed [0,10] interval. Every sub-score and
// total across both engines goes through this before leaving the package.
func clamp10(score float64) float64 {
	return math.Max(0, math.Min(10, score))
}

// round2 rounds to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizePercent resolves the percent-vs-fraction ambiguity in growth and
// ROE inputs: upstream sources report either 0.18 or 18 for the same rate.
// Any magnitude below 1 is treated as a fraction and scaled to percent;
// anything at or above 1 is assumed to already be percent. Intentionally
// fuzzy, but filter thresholds elsewhere assume fraction units, so this stays
// a scoring-local normalization rather than a data-model coercion.
func normalizePercent(v float64) float64 {
	if math.Abs(v) < 1 {
		return v * 100
	}
	return v
}
