package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garprun/garprun/internal/config"
	"github.com/garprun/garprun/internal/data/cache"
	"github.com/garprun/garprun/internal/filter"
	"github.com/garprun/garprun/internal/models"
)

type stubUniverse struct {
	stocks []models.Stock
	err    error
}

func (s *stubUniverse) Universe(ctx context.Context, op filter.Operability, limit int) ([]models.Stock, error) {
	return s.stocks, s.err
}

type stubFundamentals struct {
	mu      sync.Mutex
	calls   int
	metrics map[string]*models.StockMetrics
	errs    map[string]error
}

func (s *stubFundamentals) Fundamentals(ctx context.Context, symbol string) (*models.StockMetrics, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err, ok := s.errs[symbol]; ok {
		return nil, err
	}
	if m, ok := s.metrics[symbol]; ok {
		return m, nil
	}
	return &models.StockMetrics{}, nil
}

func (s *stubFundamentals) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *recordingSink) Publish(event ProgressEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingSink) stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Stage)
	}
	return out
}

// garpMetrics returns metrics passing the default GARP criteria.
func garpMetrics(peg float64) *models.StockMetrics {
	return &models.StockMetrics{
		PERatio:      models.Float(18),
		PEGRatio:     models.Float(peg),
		EPSGrowth5Y:  models.Float(0.15),
		ROE:          models.Float(0.22),
		CurrentRatio: models.Float(1.8),
		DebtToEquity: models.Float(0.4),
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Results.TopN = 25
	return cfg
}

func TestRun_FiltersScoresAndRanks(t *testing.T) {
	universe := &stubUniverse{stocks: []models.Stock{
		{Symbol: "GOOD"},
		{Symbol: "BEST"},
		{Symbol: "BAD"},
	}}
	fundamentals := &stubFundamentals{metrics: map[string]*models.StockMetrics{
		"GOOD": garpMetrics(1.2),
		"BEST": garpMetrics(0.4),
		// PEG above the 1.5 cap, fails the filter gate.
		"BAD": garpMetrics(3.0),
	}}

	s := NewScreener(testConfig(), Deps{
		Universe:     universe,
		Fundamentals: fundamentals,
		Workers:      2,
	})

	result, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.TotalScanned)
	assert.Equal(t, 2, result.TotalMatches)
	require.Len(t, result.Stocks, 2)

	// Lower PEG scores higher valuation, so BEST ranks first.
	assert.Equal(t, "BEST", result.Stocks[0].Symbol)
	assert.Equal(t, "GOOD", result.Stocks[1].Symbol)
	require.NotNil(t, result.Stocks[0].Score)
	assert.Greater(t, *result.Stocks[0].Score, *result.Stocks[1].Score)
	assert.Contains(t, result.Stocks[0].ScoreBreakdown, "valuation")
	assert.Empty(t, result.Errors)
}

func TestRun_CollectsCandidateErrors(t *testing.T) {
	universe := &stubUniverse{stocks: []models.Stock{
		{Symbol: "OK"},
		{Symbol: "BROKEN"},
	}}
	fundamentals := &stubFundamentals{
		metrics: map[string]*models.StockMetrics{"OK": garpMetrics(1.0)},
		errs:    map[string]error{"BROKEN": errors.New("upstream 500")},
	}

	s := NewScreener(testConfig(), Deps{
		Universe:     universe,
		Fundamentals: fundamentals,
		Workers:      1,
	})

	result, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalScanned)
	assert.Equal(t, 1, result.TotalMatches)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "BROKEN")
}

func TestRun_UniverseFailureYieldsEmptyRun(t *testing.T) {
	s := NewScreener(testConfig(), Deps{
		Universe:     &stubUniverse{err: errors.New("screener endpoint down")},
		Fundamentals: &stubFundamentals{},
	})

	result, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Zero(t, result.TotalScanned)
	assert.Zero(t, result.TotalMatches)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "screener endpoint down")
}

func TestRun_TruncatesToTopN(t *testing.T) {
	var stocks []models.Stock
	fundamentals := &stubFundamentals{metrics: map[string]*models.StockMetrics{}}
	for i := 0; i < 10; i++ {
		symbol := fmt.Sprintf("S%02d", i)
		stocks = append(stocks, models.Stock{Symbol: symbol})
		fundamentals.metrics[symbol] = garpMetrics(1.0)
	}

	cfg := testConfig()
	cfg.Results.TopN = 3

	s := NewScreener(cfg, Deps{
		Universe:     &stubUniverse{stocks: stocks},
		Fundamentals: fundamentals,
		Workers:      4,
	})

	result, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalScanned)
	assert.Equal(t, 3, result.TotalMatches)
	assert.Len(t, result.Stocks, 3)
}

func TestRun_LimitCapsUniverse(t *testing.T) {
	fundamentals := &stubFundamentals{metrics: map[string]*models.StockMetrics{
		"A": garpMetrics(1.0),
		"B": garpMetrics(1.0),
		"C": garpMetrics(1.0),
	}}
	s := NewScreener(testConfig(), Deps{
		Universe: &stubUniverse{stocks: []models.Stock{
			{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"},
		}},
		Fundamentals: fundamentals,
		Workers:      1,
	})

	result, err := s.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalScanned)
}

func TestRun_UsesFundamentalsCache(t *testing.T) {
	c := cache.NewTTLCache(100)
	defer c.Close()

	fundamentals := &stubFundamentals{metrics: map[string]*models.StockMetrics{
		"ACME": garpMetrics(1.0),
	}}
	cfg := testConfig()
	cfg.Cache.TTL = time.Minute

	deps := Deps{
		Universe:     &stubUniverse{stocks: []models.Stock{{Symbol: "ACME"}}},
		Fundamentals: fundamentals,
		Cache:        c,
		Workers:      1,
	}

	_, err := NewScreener(cfg, deps).Run(context.Background(), 0)
	require.NoError(t, err)
	_, err = NewScreener(cfg, deps).Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, fundamentals.callCount(), "second run should hit the cache")
}

func TestRun_PublishesProgress(t *testing.T) {
	sink := &recordingSink{}
	s := NewScreener(testConfig(), Deps{
		Universe: &stubUniverse{stocks: []models.Stock{{Symbol: "ACME"}}},
		Fundamentals: &stubFundamentals{metrics: map[string]*models.StockMetrics{
			"ACME": garpMetrics(1.0),
		}},
		Progress: sink,
		Workers:  1,
	})

	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	stages := sink.stages()
	assert.Equal(t, "universe", stages[0])
	assert.Contains(t, stages, "screening")
	assert.Equal(t, "done", stages[len(stages)-1])
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScreener(testConfig(), Deps{
		Universe: &stubUniverse{stocks: []models.Stock{{Symbol: "ACME"}}},
		Fundamentals: &stubFundamentals{metrics: map[string]*models.StockMetrics{
			"ACME": garpMetrics(1.0),
		}},
		Workers: 1,
	})

	_, err := s.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
