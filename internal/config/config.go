package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/garprun/garprun/internal/filter"
	"github.com/garprun/garprun/internal/scoring"
)

// Config is the full screener configuration: filter criteria, scoring
// weights, result shaping and the infrastructure settings for providers,
// cache, database and the API server. Profiles can extend a base profile via
// `extends`; the override file wins key by key.
type Config struct {
	Name       string `yaml:"name"`
	Extends    string `yaml:"extends"`
	DataSource string `yaml:"data_source"`

	Criteria filter.Criteria `yaml:",inline"`

	Scoring  ScoringConfig  `yaml:"scoring"`
	Results  ResultsConfig  `yaml:"results"`
	Provider ProviderConfig `yaml:"provider"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
}

// ScoringConfig controls the base ranking engine.
type ScoringConfig struct {
	Enabled bool            `yaml:"enabled"`
	Weights scoring.Weights `yaml:"weights"`
}

// ResultsConfig shapes the output of a screening run.
type ResultsConfig struct {
	TopN      int    `yaml:"top_n"`
	SortBy    string `yaml:"sort_by"`
	ExportDir string `yaml:"export_dir"`
}

// ProviderConfig configures the upstream market data client.
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	MaxNewsItems   int           `yaml:"max_news_items"`
}

// CacheConfig configures quote/fundamentals caching.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int64         `yaml:"max_entries"`
	RedisAddr  string        `yaml:"redis_addr"`
	RedisDB    int           `yaml:"redis_db"`
}

// DatabaseConfig configures result persistence. An empty DSN disables it.
type DatabaseConfig struct {
	DSN          string        `yaml:"dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is supplied: a
// conservative GARP criteria set mirroring the shipped default profile.
func Default() *Config {
	cfg := &Config{
		Name:       "default",
		DataSource: "fmp",
		Criteria: filter.Criteria{
			Valuation: map[string]filter.Bounds{
				"peg_ratio": {Max: fptr(1.5)},
				"pe_ratio":  {Min: fptr(5), Max: fptr(40)},
			},
			Growth: map[string]filter.Bounds{
				"eps_growth_5y": {Min: fptr(0.10)},
			},
			Profitability: map[string]filter.Bounds{
				"roe": {Min: fptr(0.15)},
			},
			Liquidity: map[string]filter.Bounds{
				"current_ratio": {Min: fptr(1.0)},
			},
			Solvency: map[string]filter.Bounds{
				"debt_to_equity": {Max: fptr(1.0)},
			},
		},
		Scoring: ScoringConfig{
			Enabled: true,
			Weights: scoring.DefaultWeights(),
		},
		Results: ResultsConfig{
			TopN:   25,
			SortBy: "score",
		},
		Provider: ProviderConfig{
			BaseURL:        "https://financialmodelingprep.com/api/v3",
			RequestTimeout: 30 * time.Second,
			RateLimitRPS:   4,
			RateLimitBurst: 8,
			MaxNewsItems:   10,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        15 * time.Minute,
			MaxEntries: 10000,
		},
		Database: DatabaseConfig{
			QueryTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Listen: ":8090",
		},
	}
	return cfg
}

// Load reads a YAML profile, resolving its extends chain relative to the
// file's directory. Missing path returns the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	merged, err := loadMerged(path, nil)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode merged config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Extends = ""
	applyDefaults(&cfg)

	cfg.Scoring.Weights.Validate()
	log.Info().Str("config", cfg.Name).Str("path", path).Msg("Screener config loaded")

	return &cfg, nil
}

// applyDefaults fills infrastructure fields a profile left unset. Criteria
// are never defaulted here: the loaded file defines the rule set.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.DataSource == "" {
		cfg.DataSource = def.DataSource
	}
	if cfg.Scoring.Weights == (scoring.Weights{}) {
		cfg.Scoring.Weights = def.Scoring.Weights
	}
	if cfg.Results.TopN == 0 {
		cfg.Results.TopN = def.Results.TopN
	}
	if cfg.Results.SortBy == "" {
		cfg.Results.SortBy = def.Results.SortBy
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	if cfg.Provider.RequestTimeout == 0 {
		cfg.Provider.RequestTimeout = def.Provider.RequestTimeout
	}
	if cfg.Provider.RateLimitRPS == 0 {
		cfg.Provider.RateLimitRPS = def.Provider.RateLimitRPS
	}
	if cfg.Provider.RateLimitBurst == 0 {
		cfg.Provider.RateLimitBurst = def.Provider.RateLimitBurst
	}
	if cfg.Provider.MaxNewsItems == 0 {
		cfg.Provider.MaxNewsItems = def.Provider.MaxNewsItems
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = def.Cache.TTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = def.Cache.MaxEntries
	}
	if cfg.Database.QueryTimeout == 0 {
		cfg.Database.QueryTimeout = def.Database.QueryTimeout
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = def.Server.Listen
	}
}

// loadMerged loads one profile as a raw map, recursing into its base profile
// first so the override file wins key by key.
func loadMerged(path string, seen []string) (map[string]interface{}, error) {
	for _, p := range seen {
		if p == path {
			return nil, fmt.Errorf("config extends cycle: %s", strings.Join(append(seen, path), " -> "))
		}
	}
	seen = append(seen, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}

	base, _ := raw["extends"].(string)
	if base == "" {
		return raw, nil
	}

	basePath := filepath.Join(filepath.Dir(path), base)
	if filepath.Ext(basePath) == "" {
		basePath += ".yaml"
	}

	baseRaw, err := loadMerged(basePath, seen)
	if err != nil {
		return nil, err
	}

	return mergeMaps(baseRaw, raw), nil
}

// mergeMaps deep-merges override onto base. Maps merge recursively; every
// other value type replaces wholesale.
func mergeMaps(base, override map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if k == "extends" {
			continue
		}
		if overrideMap, ok := v.(map[string]interface{}); ok {
			if baseMap, ok := result[k].(map[string]interface{}); ok {
				result[k] = mergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}

	return result
}

func fptr(v float64) *float64 {
	return &v
}
