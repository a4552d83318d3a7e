// Package rank applies the final confidence adjustments to deduplicated
// candidates, sorts them, and truncates the list to the result cap. Sort
// order is the contract with callers: descending confidence, stable for
// ties.
package rank

import (
	"sort"
	"strings"

	"github.com/mealdex/mealdex/core/food"
)

// DefaultMaxResults caps the ranked list when no explicit cap is configured.
const DefaultMaxResults = 25

// Boost magnitudes applied during ranking. Applied once each, in order:
// source boost first, then term boosts.
const (
	sourceBoost          = 0.05
	sourceBoostThreshold = 0.9
	termBoost            = 0.1
)

// TermCategory is a named group of user-preference tokens. A candidate whose
// name contains any token of a category receives the term boost at most once
// for that category.
type TermCategory struct {
	Name   string   `yaml:"name"`
	Tokens []string `yaml:"tokens"`
}

// Config controls ranking behavior.
type Config struct {
	// PreferredSource receives the source boost when candidate confidence is
	// already high.
	PreferredSource food.Source `yaml:"preferred_source"`

	// PreferenceTerms are the user's dietary-preference token categories,
	// passed in by the caller (the engine does not read profiles itself).
	PreferenceTerms []TermCategory `yaml:"preference_terms"`

	// MaxResults truncates the ranked list. Zero means DefaultMaxResults.
	MaxResults int `yaml:"max_results"`
}

// DefaultConfig returns ranking defaults: fooddata preferred, the usual
// organic/fresh preference categories, 25 results.
func DefaultConfig() Config {
	return Config{
		PreferredSource: food.SourceFoodData,
		PreferenceTerms: []TermCategory{
			{Name: "organic", Tokens: []string{"organic"}},
			{Name: "fresh", Tokens: []string{"raw", "fresh"}},
		},
		MaxResults: DefaultMaxResults,
	}
}

// Ranker finalizes candidate confidence and ordering.
type Ranker struct {
	config Config
}

// NewRanker creates a Ranker with the given configuration.
func NewRanker(config Config) *Ranker {
	if config.MaxResults <= 0 {
		config.MaxResults = DefaultMaxResults
	}
	return &Ranker{config: config}
}

// Rank boosts, sorts, and truncates the deduplicated candidates. The input
// slice is not modified. Ties in final confidence preserve the input's
// relative order.
func (r *Ranker) Rank(candidates []food.Candidate) []food.RankedResult {
	results := make([]food.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		c.Confidence = r.adjust(c)
		results = append(results, food.RankedResult{Candidate: c})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	if len(results) > r.config.MaxResults {
		results = results[:r.config.MaxResults]
	}
	return results
}

// adjust applies the boost sequence to one candidate and returns the final
// confidence, capped at 1.0.
func (r *Ranker) adjust(c food.Candidate) float64 {
	confidence := c.Confidence

	if c.Source == r.config.PreferredSource && confidence >= sourceBoostThreshold {
		confidence = capped(confidence + sourceBoost)
	}

	name := strings.ToLower(c.Name)
	for _, category := range r.config.PreferenceTerms {
		if containsAny(name, category.Tokens) {
			confidence = capped(confidence + termBoost)
		}
	}
	return confidence
}

func containsAny(name string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(name, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func capped(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
