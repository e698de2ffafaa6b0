package filter

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/models"
)

// Bounds defines one range criterion for a metric. Min/Max are optional; a
// bounds entry with neither set compiles to no rule at all. Required controls
// what happens when the metric is missing from the stock: by default missing
// data passes, with Required=true it fails.
type Bounds struct {
	Min      *float64 `yaml:"min" json:"min,omitempty"`
	Max      *float64 `yaml:"max" json:"max,omitempty"`
	Required bool     `yaml:"required" json:"required,omitempty"`
}

// Operability holds the non-metric exclusion criteria.
type Operability struct {
	ExcludeSectors    []string `yaml:"exclude_sectors" json:"exclude_sectors,omitempty"`
	ExcludeIndustries []string `yaml:"exclude_industries" json:"exclude_industries,omitempty"`

	// Universe pre-filters, applied by the data layer rather than compiled
	// into rules.
	MarketCapMin *float64 `yaml:"market_cap_min" json:"market_cap_min,omitempty"`
	PriceMin     *float64 `yaml:"price_min" json:"price_min,omitempty"`
	AvgVolumeMin *float64 `yaml:"avg_volume_min" json:"avg_volume_min,omitempty"`
	Exchange     string   `yaml:"exchange" json:"exchange,omitempty"`
}

// Criteria is the declarative filter configuration, grouped by category.
// Metric names inside each category refer to StockMetrics fields; names that
// match nothing read as missing data, which keeps old configs loadable.
type Criteria struct {
	Valuation     map[string]Bounds `yaml:"valuation" json:"valuation,omitempty"`
	Growth        map[string]Bounds `yaml:"growth" json:"growth,omitempty"`
	Profitability map[string]Bounds `yaml:"profitability" json:"profitability,omitempty"`
	Liquidity     map[string]Bounds `yaml:"liquidity" json:"liquidity,omitempty"`
	Solvency      map[string]Bounds `yaml:"solvency" json:"solvency,omitempty"`
	Operability   Operability       `yaml:"operability" json:"operability,omitempty"`
}

// rule is the compiled form of one criterion. Exactly one of the variants is
// active, selected by kind.
type rule struct {
	name string
	kind ruleKind

	// rangeRule
	metric   string
	min      *float64
	max      *float64
	required bool

	// exclusionRule
	field    exclusionField
	excluded map[string]struct{}
}

type ruleKind int

const (
	rangeRule ruleKind = iota
	exclusionRule
)

type exclusionField int

const (
	sectorField exclusionField = iota
	industryField
)

// Engine evaluates a compiled criteria set against stocks. Rules are built
// once at construction and evaluated in compiled order; evaluation is
// side-effect-free and safe to run concurrently across stocks.
type Engine struct {
	rules []rule
}

// NewEngine compiles the criteria into the rule list. Category entries with
// neither bound set are skipped. Compilation never fails: criteria naming
// unknown metrics produce rules that read missing data and therefore pass
// unless marked required.
func NewEngine(criteria Criteria) *Engine {
	e := &Engine{}

	categories := []struct {
		name   string
		bounds map[string]Bounds
	}{
		{"valuation", criteria.Valuation},
		{"growth", criteria.Growth},
		{"profitability", criteria.Profitability},
		{"liquidity", criteria.Liquidity},
		{"solvency", criteria.Solvency},
	}

	for _, cat := range categories {
		for _, metric := range sortedKeys(cat.bounds) {
			b := cat.bounds[metric]
			if b.Min == nil && b.Max == nil {
				continue
			}
			e.rules = append(e.rules, rule{
				name:     fmt.Sprintf("%s.%s", cat.name, metric),
				kind:     rangeRule,
				metric:   metric,
				min:      b.Min,
				max:      b.Max,
				required: b.Required,
			})
		}
	}

	if len(criteria.Operability.ExcludeSectors) > 0 {
		e.rules = append(e.rules, rule{
			name:     "operability.sector",
			kind:     exclusionRule,
			field:    sectorField,
			excluded: toSet(criteria.Operability.ExcludeSectors),
		})
	}
	if len(criteria.Operability.ExcludeIndustries) > 0 {
		e.rules = append(e.rules, rule{
			name:     "operability.industry",
			kind:     exclusionRule,
			field:    industryField,
			excluded: toSet(criteria.Operability.ExcludeIndustries),
		})
	}

	log.Info().Int("rules", len(e.rules)).Msg("Filter criteria compiled")

	return e
}

// RuleNames returns the compiled rule names in evaluation order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.name
	}
	return names
}

// Evaluate runs every rule independently and returns the per-rule verdicts.
func (e *Engine) Evaluate(stock *models.Stock) map[string]bool {
	results := make(map[string]bool, len(e.rules))
	for _, r := range e.rules {
		results[r.name] = e.apply(r, stock)
	}
	return results
}

// PassesAll reports whether the stock clears every rule. Short-circuits on
// the first failure; the boolean matches AND-folding Evaluate's results.
func (e *Engine) PassesAll(stock *models.Stock) bool {
	for _, r := range e.rules {
		if !e.apply(r, stock) {
			log.Debug().Str("symbol", stock.Symbol).Str("rule", r.name).Msg("Stock rejected by filter")
			return false
		}
	}
	return true
}

// FailingRules returns the names of the rules the stock fails, in compiled
// order.
func (e *Engine) FailingRules(stock *models.Stock) []string {
	var failing []string
	for _, r := range e.rules {
		if !e.apply(r, stock) {
			failing = append(failing, r.name)
		}
	}
	return failing
}

func (e *Engine) apply(r rule, stock *models.Stock) bool {
	switch r.kind {
	case rangeRule:
		value := stock.Metrics.Metric(r.metric)
		if value == nil {
			return !r.required
		}
		if r.min != nil && *value < *r.min {
			return false
		}
		if r.max != nil && *value > *r.max {
			return false
		}
		return true

	case exclusionRule:
		var member string
		switch r.field {
		case sectorField:
			member = stock.Sector
		case industryField:
			member = stock.Industry
		}
		_, excluded := r.excluded[member]
		return !excluded

	default:
		return true
	}
}

func sortedKeys(m map[string]Bounds) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
