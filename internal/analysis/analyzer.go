package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/models"
)

// SecondaryStats are the valuation figures pulled from a secondary source
// (the original screener scraped these off Finviz).
type SecondaryStats struct {
	PEG         *float64
	ForwardPE   *float64
	EPSThisYear *float64
	EPSNextYear *float64
}

// BalanceHighlights are the trailing balance-sheet aggregates.
type BalanceHighlights struct {
	RevenueTTM   *float64
	NetIncomeTTM *float64
	FreeCashFlow *float64
	TotalDebt    *float64
	TotalCash    *float64
}

// Interfaces for dependency injection and testing. Each section of the
// analysis has its own provider; a nil provider simply leaves that section
// empty.

type StatsProvider interface {
	SecondaryStats(ctx context.Context, symbol string) (*SecondaryStats, error)
}

type NewsProvider interface {
	News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
}

type EarningsProvider interface {
	NextEarnings(ctx context.Context, symbol string) (*models.EarningsInfo, error)
}

type BalanceProvider interface {
	BalanceHighlights(ctx context.Context, symbol string) (*BalanceHighlights, error)
}

type RelatedQuoteProvider interface {
	RelatedQuote(ctx context.Context, symbol string) (price float64, changePercent float64, err error)
}

type HistoryProvider interface {
	DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// Analyzer assembles the auxiliary StockAnalysis record consumed by the AI
// scorer. Every provider failure is logged and skipped: a partial analysis
// is always better than none, and the scorer treats each missing section as
// its neutral case.
type Analyzer struct {
	stats    StatsProvider
	news     NewsProvider
	earnings EarningsProvider
	balance  BalanceProvider
	related  RelatedQuoteProvider
	history  HistoryProvider

	maxNewsItems int
}

// NewAnalyzer creates an analyzer. Any provider may be nil.
func NewAnalyzer(stats StatsProvider, news NewsProvider, earnings EarningsProvider, balance BalanceProvider, related RelatedQuoteProvider, history HistoryProvider, maxNewsItems int) *Analyzer {
	if maxNewsItems <= 0 {
		maxNewsItems = 10
	}
	return &Analyzer{
		stats:        stats,
		news:         news,
		earnings:     earnings,
		balance:      balance,
		related:      related,
		history:      history,
		maxNewsItems: maxNewsItems,
	}
}

// Analyze builds the full analysis record for one stock.
func (a *Analyzer) Analyze(ctx context.Context, stock *models.Stock) *models.StockAnalysis {
	result := &models.StockAnalysis{
		Symbol:     stock.Symbol,
		Name:       stock.Name,
		Sector:     stock.Sector,
		Industry:   stock.Industry,
		AnalyzedAt: time.Now().UTC(),
	}

	if a.stats != nil {
		stats, err := a.stats.SecondaryStats(ctx, stock.Symbol)
		if err != nil {
			log.Debug().Err(err).Str("symbol", stock.Symbol).Msg("Secondary stats unavailable")
		} else if stats != nil {
			result.PEGSecondary = stats.PEG
			result.ForwardPE = stats.ForwardPE
			result.EPSThisYear = stats.EPSThisYear
			result.EPSNextYear = stats.EPSNextYear
		}
	}

	if a.news != nil {
		news, err := a.news.News(ctx, stock.Symbol, a.maxNewsItems)
		if err != nil {
			log.Debug().Err(err).Str("symbol", stock.Symbol).Msg("News unavailable")
		} else {
			if len(news) > a.maxNewsItems {
				news = news[:a.maxNewsItems]
			}
			result.News = news
		}
	}

	if a.earnings != nil {
		earnings, err := a.earnings.NextEarnings(ctx, stock.Symbol)
		if err != nil {
			log.Debug().Err(err).Str("symbol", stock.Symbol).Msg("Earnings calendar unavailable")
		} else {
			result.Earnings = earnings
		}
	}

	if a.balance != nil {
		balance, err := a.balance.BalanceHighlights(ctx, stock.Symbol)
		if err != nil {
			log.Debug().Err(err).Str("symbol", stock.Symbol).Msg("Balance highlights unavailable")
		} else if balance != nil {
			result.RevenueTTM = balance.RevenueTTM
			result.NetIncomeTTM = balance.NetIncomeTTM
			result.FreeCashFlow = balance.FreeCashFlow
			result.TotalDebt = balance.TotalDebt
			result.TotalCash = balance.TotalCash
		}
	}

	if a.related != nil {
		result.RelatedAssets = a.fetchRelatedAssets(ctx, stock.Sector, stock.Industry)
	}

	if a.history != nil {
		closes, err := a.history.DailyCloses(ctx, stock.Symbol, performanceHistoryDays)
		if err != nil {
			log.Debug().Err(err).Str("symbol", stock.Symbol).Msg("Price history unavailable")
		} else {
			result.Performance = PerformanceFromCloses(closes, time.Now())
		}
	}

	return result
}

// fetchRelatedAssets quotes the commodities, ETFs and indices mapped to the
// stock's sector or industry. Individual quote failures drop that asset.
func (a *Analyzer) fetchRelatedAssets(ctx context.Context, sector, industry string) []models.RelatedAsset {
	var assets []models.RelatedAsset

	for _, ref := range relatedFor(sector, industry) {
		price, change, err := a.related.RelatedQuote(ctx, ref.symbol)
		if err != nil {
			log.Debug().Err(err).Str("asset", ref.symbol).Msg("Related asset quote unavailable")
			continue
		}
		assets = append(assets, models.RelatedAsset{
			Symbol:        ref.symbol,
			Name:          assetName(ref.symbol),
			Price:         price,
			ChangePercent: change,
			Relevance:     ref.relevance,
		})
	}

	return assets
}
