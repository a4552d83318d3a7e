// Package food defines the normalized food data model shared by the search
// aggregation pipeline: candidates returned by upstream providers, nutrient
// vectors with explicit presence, and the ranked results handed to callers.
package food

import "strings"

// =============================================================================
// Source Enum
// =============================================================================

// Source identifies the upstream provider a candidate came from.
type Source string

const (
	// SourceFoodData is the structured nutrition database provider.
	SourceFoodData Source = "fooddata"

	// SourceOpenFoods is the community recipe/product catalog provider.
	SourceOpenFoods Source = "openfoods"

	// SourceBarcode marks candidates resolved through barcode lookup.
	SourceBarcode Source = "barcode"

	// SourceCustom marks user-created foods.
	SourceCustom Source = "custom"
)

// validSources contains all recognized sources for validation.
var validSources = map[Source]struct{}{
	SourceFoodData:  {},
	SourceOpenFoods: {},
	SourceBarcode:   {},
	SourceCustom:    {},
}

// IsValid returns true if the source is a recognized provider tag.
func (s Source) IsValid() bool {
	_, ok := validSources[s]
	return ok
}

// String returns the string representation of the source.
func (s Source) String() string {
	return string(s)
}

// =============================================================================
// Candidate
// =============================================================================

// ServingSize describes one serving of a food item.
type ServingSize struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Candidate is a single normalized hit from one upstream provider.
// ID is unique only within its Source; cross-source identity is never
// assumed and must be established by the deduplicator.
type Candidate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Source      Source      `json:"source"`
	Nutrients   Nutrients   `json:"nutrients"`
	Serving     ServingSize `json:"serving"`
	Ingredients []string    `json:"ingredients,omitempty"`
	Confidence  float64     `json:"confidence"`
}

// Key returns the source-qualified identity of the candidate.
func (c Candidate) Key() string {
	return string(c.Source) + "/" + c.ID
}

// RankedResult is a candidate with its finalized confidence after the
// ranking stage. Ordering of a []RankedResult is significant: descending
// confidence, stable for ties.
type RankedResult struct {
	Candidate
	// Degraded marks results spliced in from a similar cached query after
	// every configured provider came back empty.
	Degraded bool `json:"degraded,omitempty"`
}

// =============================================================================
// Query Normalization
// =============================================================================

// NormalizeQuery canonicalizes a raw query string for use as a cache key,
// coalescing key, or debounce key. All three key spaces must use this exact
// function or shared-state correctness breaks.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// QueryWords splits a normalized query into its word set.
func QueryWords(normalized string) []string {
	return strings.Fields(normalized)
}
