package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/config"
	"github.com/garprun/garprun/internal/data/cache"
	"github.com/garprun/garprun/internal/export"
	"github.com/garprun/garprun/internal/filter"
	"github.com/garprun/garprun/internal/models"
	"github.com/garprun/garprun/internal/persistence"
	"github.com/garprun/garprun/internal/scoring"
)

const defaultWorkers = 8

// UniverseProvider supplies the initial candidate universe, pre-filtered
// by the operability constraints the upstream screener supports.
type UniverseProvider interface {
	Universe(ctx context.Context, op filter.Operability, limit int) ([]models.Stock, error)
}

// FundamentalsProvider supplies the detailed metrics for one symbol.
type FundamentalsProvider interface {
	Fundamentals(ctx context.Context, symbol string) (*models.StockMetrics, error)
}

// Metrics receives screening counters. Satisfied by the HTTP layer's
// Prometheus registry.
type Metrics interface {
	ScreenStarted()
	ScreenFinished(evaluated, matched int)
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// ProgressEvent describes screening progress for live subscribers.
type ProgressEvent struct {
	RunID     string
	Stage     string
	Symbol    string
	Completed int
	Total     int
	Message   string
}

// ProgressSink receives progress events during a run.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// Deps carries the orchestrator's collaborators. Runs, Exporter, Metrics
// and Progress are optional; nil disables the corresponding side effect.
type Deps struct {
	Universe     UniverseProvider
	Fundamentals FundamentalsProvider
	Cache        cache.Cache
	Runs         persistence.RunsRepo
	Exporter     *export.Exporter
	Metrics      Metrics
	Progress     ProgressSink
	Workers      int
}

// Screener drives one full screening pass: universe, fundamentals,
// filter gate, scoring, ranking, persistence and export.
type Screener struct {
	cfg     *config.Config
	deps    Deps
	filter  *filter.Engine
	scoring *scoring.Engine
}

// NewScreener builds the orchestrator from a loaded configuration.
func NewScreener(cfg *config.Config, deps Deps) *Screener {
	if deps.Workers <= 0 {
		deps.Workers = defaultWorkers
	}

	cfg.Scoring.Weights.Validate()

	return &Screener{
		cfg:     cfg,
		deps:    deps,
		filter:  filter.NewEngine(cfg.Criteria),
		scoring: scoring.NewEngine(cfg.Scoring.Weights),
	}
}

// Run executes the screening pass. A positive limit caps the candidate
// universe, mainly for smoke runs. Candidate-level failures are collected
// into the result's Errors list instead of failing the run.
func (s *Screener) Run(ctx context.Context, limit int) (*models.ScreenerResult, error) {
	start := time.Now()
	runID := uuid.New().String()

	if s.deps.Metrics != nil {
		s.deps.Metrics.ScreenStarted()
	}

	log.Info().
		Str("run_id", runID).
		Str("config", s.cfg.Name).
		Msg("Starting screening pass")

	var (
		mu      sync.Mutex
		errors  []string
		passing []models.Stock
	)
	collectError := func(msg string) {
		mu.Lock()
		errors = append(errors, msg)
		mu.Unlock()
	}

	s.publish(ProgressEvent{RunID: runID, Stage: "universe"})

	candidates, err := s.deps.Universe.Universe(ctx, s.cfg.Criteria.Operability, limit)
	if err != nil {
		log.Error().Err(err).Msg("Universe fetch failed")
		collectError(err.Error())
		candidates = nil
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	log.Info().Int("candidates", len(candidates)).Msg("Universe materialized")

	// Fan candidates out to a bounded worker pool. Engine calls are pure
	// per stock, so scoring parallelizes without coordination.
	var (
		scanned   int
		completed int
		jobs      = make(chan int)
		wg        sync.WaitGroup
	)

	markDone := func(symbol string) {
		mu.Lock()
		completed++
		done := completed
		mu.Unlock()

		s.publish(ProgressEvent{
			RunID:     runID,
			Stage:     "screening",
			Symbol:    symbol,
			Completed: done,
			Total:     len(candidates),
		})
		if done%50 == 0 {
			log.Info().Int("completed", done).Int("total", len(candidates)).Msg("Screening progress")
		}
	}

	for w := 0; w < s.deps.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				candidate := candidates[idx]
				if candidate.Symbol == "" {
					continue
				}

				if ctx.Err() != nil {
					return
				}

				mu.Lock()
				scanned++
				mu.Unlock()

				stock, err := s.buildStock(ctx, candidate)
				if err != nil {
					log.Warn().Err(err).Str("symbol", candidate.Symbol).Msg("Failed to build stock")
					collectError(fmt.Sprintf("%s: %v", candidate.Symbol, err))
					markDone(candidate.Symbol)
					continue
				}

				if s.filter.PassesAll(stock) {
					if s.cfg.Scoring.Enabled {
						total, breakdown := s.scoring.Score(stock)
						stock.Score = &total
						stock.ScoreBreakdown = breakdown
					}
					mu.Lock()
					passing = append(passing, *stock)
					mu.Unlock()
					log.Debug().Str("symbol", stock.Symbol).Msg("Passed all filters")
				}

				markDone(candidate.Symbol)
			}
		}()
	}

dispatch:
	for idx := range candidates {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.ScreenFinished(scanned, len(passing))
		}
		return nil, fmt.Errorf("screening cancelled: %w", err)
	}

	// Rank and truncate.
	if s.cfg.Scoring.Enabled {
		sort.SliceStable(passing, func(i, j int) bool {
			return scoreOf(&passing[i]) > scoreOf(&passing[j])
		})
	}
	if topN := s.cfg.Results.TopN; topN > 0 && len(passing) > topN {
		passing = passing[:topN]
	}

	result := &models.ScreenerResult{
		RunID:            runID,
		Timestamp:        time.Now().UTC(),
		ConfigName:       s.cfg.Name,
		TotalScanned:     scanned,
		TotalMatches:     len(passing),
		Stocks:           passing,
		ExecutionSeconds: math.Round(time.Since(start).Seconds()*100) / 100,
		Errors:           errors,
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.ScreenFinished(result.TotalScanned, result.TotalMatches)
	}

	if s.deps.Runs != nil {
		if err := s.deps.Runs.SaveRun(ctx, result); err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("Failed to persist run")
			result.Errors = append(result.Errors, fmt.Sprintf("persist: %v", err))
		}
	}

	if s.deps.Exporter != nil {
		if _, err := s.deps.Exporter.Export(result, export.FormatJSON, ""); err != nil {
			log.Error().Err(err).Msg("Failed to export results")
			result.Errors = append(result.Errors, fmt.Sprintf("export: %v", err))
		}
	}

	s.publish(ProgressEvent{
		RunID:     runID,
		Stage:     "done",
		Completed: len(candidates),
		Total:     len(candidates),
		Message:   fmt.Sprintf("%d/%d matched", result.TotalMatches, result.TotalScanned),
	})

	log.Info().
		Str("run_id", runID).
		Int("matches", result.TotalMatches).
		Int("scanned", result.TotalScanned).
		Float64("seconds", result.ExecutionSeconds).
		Msg("Screening pass completed")

	return result, nil
}

// buildStock fills the candidate's metrics, consulting the cache first.
func (s *Screener) buildStock(ctx context.Context, candidate models.Stock) (*models.Stock, error) {
	stock := candidate

	metrics, err := s.cachedFundamentals(ctx, stock.Symbol)
	if err != nil {
		return nil, err
	}

	stock.Metrics = *metrics
	stock.LastUpdated = time.Now().UTC()
	if stock.DataSource == "" {
		stock.DataSource = s.cfg.DataSource
	}
	return &stock, nil
}

func (s *Screener) cachedFundamentals(ctx context.Context, symbol string) (*models.StockMetrics, error) {
	key := "fundamentals:" + symbol

	if s.deps.Cache != nil {
		if raw, ok := s.deps.Cache.Get(key); ok {
			if metrics := decodeMetrics(raw); metrics != nil {
				if s.deps.Metrics != nil {
					s.deps.Metrics.RecordCacheHit("fundamentals")
				}
				return metrics, nil
			}
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordCacheMiss("fundamentals")
		}
	}

	metrics, err := s.deps.Fundamentals.Fundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		s.deps.Cache.Set(key, metrics, s.cfg.Cache.TTL)
	}
	return metrics, nil
}

// decodeMetrics handles both in-memory cache values (stored as the
// original pointer) and Redis values (stored as raw JSON).
func decodeMetrics(value interface{}) *models.StockMetrics {
	switch v := value.(type) {
	case *models.StockMetrics:
		return v
	case json.RawMessage:
		var metrics models.StockMetrics
		if err := json.Unmarshal(v, &metrics); err != nil {
			log.Debug().Err(err).Msg("Discarding undecodable cached fundamentals")
			return nil
		}
		return &metrics
	default:
		return nil
	}
}

func (s *Screener) publish(event ProgressEvent) {
	if s.deps.Progress != nil {
		s.deps.Progress.Publish(event)
	}
}

func scoreOf(stock *models.Stock) float64 {
	if stock.Score == nil {
		return 0
	}
	return *stock.Score
}
