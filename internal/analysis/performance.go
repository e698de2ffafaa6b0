package analysis

import (
	"time"

	"github.com/garprun/garprun/internal/models"
)

// performanceHistoryDays is one trading year plus a small buffer, enough to
// cover the 52-week window.
const performanceHistoryDays = 260

// Trading-day offsets from the latest close for the short windows.
const (
	offset1D = 2
	offset1W = 6
	offset1M = 22
)

// min52WHistory is the shortest history still worth reporting a trailing
// long-window return for; below it the oldest close is too recent to mean
// anything.
const min52WHistory = 100

// PerformanceFromCloses derives the multi-period returns from trailing daily
// closes, most recent last. Returns are fractions against the latest close.
// Windows the history cannot cover stay nil; an empty history yields nil.
// now anchors the year-to-date window.
func PerformanceFromCloses(closes []float64, now time.Time) *models.PricePerformance {
	n := len(closes)
	if n == 0 {
		return nil
	}

	perf := &models.PricePerformance{}
	current := closes[n-1]

	perf.Perf1D = changeFrom(closes, current, offset1D)
	perf.Perf1W = changeFrom(closes, current, offset1W)
	perf.Perf1M = changeFrom(closes, current, offset1M)

	// YTD measures against the first trading day of the year. The history
	// carries no dates, so the anchor index is the weekday count since
	// January 1st; a history shorter than that sits entirely inside the
	// year and anchors at its oldest close.
	if elapsed := tradingDaysSinceYearStart(now); elapsed >= 2 {
		idx := n - elapsed
		if idx < 0 {
			idx = 0
		}
		perf.PerfYTD = relativeChange(current, closes[idx])
	}

	// 52W compares against the oldest close, provided the history reaches
	// reasonably far back.
	if n >= min52WHistory {
		perf.Perf52W = relativeChange(current, closes[0])
	}

	return perf
}

// changeFrom computes the return against the close `offset` positions from
// the end, nil when the history is too short.
func changeFrom(closes []float64, current float64, offset int) *float64 {
	if len(closes) < offset {
		return nil
	}
	return relativeChange(current, closes[len(closes)-offset])
}

func relativeChange(current, base float64) *float64 {
	if base == 0 {
		return nil
	}
	change := (current - base) / base
	return &change
}

// tradingDaysSinceYearStart counts the weekdays from January 1st through
// now, inclusive. An approximation of trading days that ignores market
// holidays, which is close enough for a YTD anchor.
func tradingDaysSinceYearStart(now time.Time) int {
	count := 0
	for d := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()); !d.After(now); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}
