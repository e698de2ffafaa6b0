package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garprun/garprun/internal/models"
)

// Curated finance vocabulary for headline sentiment. Neutral keywords are
// kept for reference and reporting; they do not move the count.
var positiveKeywords = keywordSet(
	"beat", "beats", "exceeds", "surpass", "upgrade", "upgrades", "buy",
	"outperform", "strong", "growth", "record", "profit", "gains", "surge",
	"jumps", "soars", "rally", "bullish", "positive", "success", "boost",
	"innovation", "breakthrough", "expansion", "dividend", "buyback",
	"acquisition", "partnership", "deal", "win", "award", "launch",
)

var negativeKeywords = keywordSet(
	"miss", "misses", "below", "downgrade", "downgrades", "sell", "cut",
	"underperform", "weak", "decline", "loss", "losses", "drop", "plunge",
	"falls", "crash", "bearish", "negative", "warning", "concern", "risk",
	"lawsuit", "investigation", "recall", "delay", "layoff", "layoffs",
	"debt", "default", "bankruptcy", "fraud", "scandal", "fine", "penalty",
)

var neutralKeywords = keywordSet(
	"hold", "neutral", "maintain", "steady", "flat", "unchanged", "mixed",
)

var wordPattern = regexp.MustCompile(`\w+`)

// scoreSentiment scores a non-empty headline list by counting positive and
// negative keyword hits across case-folded word tokens. The score shifts the
// 5.0 baseline by 3×(pos−neg)/(pos+neg); headlines with no keyword hits
// leave the baseline untouched.
func scoreSentiment(news []models.NewsItem) (float64, string) {
	if len(news) == 0 {
		return 5.0, "No news"
	}

	positive := 0
	negative := 0

	for _, item := range news {
		for _, word := range wordPattern.FindAllString(strings.ToLower(item.Title), -1) {
			if _, ok := positiveKeywords[word]; ok {
				positive++
			} else if _, ok := negativeKeywords[word]; ok {
				negative++
			}
		}
	}

	score := 5.0
	if positive+negative > 0 {
		ratio := float64(positive-negative) / float64(positive+negative)
		score += ratio * 3
	}

	var summary string
	switch {
	case positive > negative*2:
		summary = fmt.Sprintf("Very positive (%d+ / %d-)", positive, negative)
	case positive > negative:
		summary = fmt.Sprintf("Positive (%d+ / %d-)", positive, negative)
	case negative > positive*2:
		summary = fmt.Sprintf("Very negative (%d+ / %d-)", positive, negative)
	case negative > positive:
		summary = fmt.Sprintf("Negative (%d+ / %d-)", positive, negative)
	default:
		summary = fmt.Sprintf("Neutral (%d+ / %d-)", positive, negative)
	}

	return clamp10(score), summary
}

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
