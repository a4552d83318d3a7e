// Package similarity decides whether two food candidates denote the same
// real-world food. Two signals feed the decision: a deterministic signature
// over the normalized name and core macros, and a fuzzy pair of name and
// nutrient similarity scores with tunable thresholds.
package similarity

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mealdex/mealdex/core/food"
)

// Default thresholds for the fuzzy match path. Tunable constants, not
// derived from data.
const (
	DefaultNameThreshold     = 0.85
	DefaultNutrientThreshold = 0.90
)

// stateWords are preparation-state qualifiers stripped during name
// normalization so that "Chicken Breast, Raw" and "Raw Chicken Breast"
// normalize identically.
var stateWords = map[string]struct{}{
	"raw":    {},
	"cooked": {},
	"fresh":  {},
	"frozen": {},
	"canned": {},
	"dried":  {},
}

// Config holds the fuzzy-match thresholds.
type Config struct {
	// NameThreshold is the minimum Jaccard name similarity.
	NameThreshold float64

	// NutrientThreshold is the minimum macro similarity.
	NutrientThreshold float64
}

// DefaultConfig returns the default matcher thresholds.
func DefaultConfig() Config {
	return Config{
		NameThreshold:     DefaultNameThreshold,
		NutrientThreshold: DefaultNutrientThreshold,
	}
}

// Matcher judges candidate identity. Stateless and safe for concurrent use.
type Matcher struct {
	config Config
}

// NewMatcher creates a Matcher with the given thresholds. Non-positive
// thresholds fall back to the defaults.
func NewMatcher(config Config) *Matcher {
	if config.NameThreshold <= 0 {
		config.NameThreshold = DefaultNameThreshold
	}
	if config.NutrientThreshold <= 0 {
		config.NutrientThreshold = DefaultNutrientThreshold
	}
	return &Matcher{config: config}
}

// Config returns the matcher's thresholds.
func (m *Matcher) Config() Config {
	return m.config
}

// SameFood reports whether a and b represent the same real-world food.
// True iff the deterministic signatures match exactly, or name similarity
// and nutrient similarity both clear their thresholds.
func (m *Matcher) SameFood(a, b food.Candidate) bool {
	if Signature(a) == Signature(b) {
		return true
	}
	if NameSimilarity(a.Name, b.Name) < m.config.NameThreshold {
		return false
	}
	return NutrientSimilarity(a.Nutrients, b.Nutrients) >= m.config.NutrientThreshold
}

// =============================================================================
// Name Normalization and Similarity
// =============================================================================

// NormalizeName canonicalizes a food name for comparison: lowercased,
// punctuation stripped, whitespace collapsed, preparation-state words
// removed.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation becomes a word boundary, not nothing:
			// "chicken,raw" must split into two words.
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if _, isState := stateWords[w]; !isState {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NameSimilarity computes the Jaccard index over the word sets of two
// normalized names. Identical normalized strings short-circuit to 1.0.
func NameSimilarity(a, b string) float64 {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == nb {
		return 1.0
	}

	setA := wordSet(na)
	setB := wordSet(nb)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// =============================================================================
// Nutrient Similarity
// =============================================================================

// NutrientSimilarity computes 1 - mean(|v1-v2| / max(v1,v2)) over the core
// macro fields where both sides are known and at least one is nonzero.
// When no field is comparable the similarity defaults to 1.0: two candidates
// with no usable macro data are treated as similar, leaving the decision to
// the name check.
func NutrientSimilarity(a, b food.Nutrients) float64 {
	macrosA := a.Macros()
	macrosB := b.Macros()

	var sum float64
	compared := 0
	for i := 0; i < food.MacroCount; i++ {
		va, vb := macrosA[i], macrosB[i]
		if !va.Known || !vb.Known {
			// Unknown is not zero. A field one provider simply did not
			// report must not count as evidence of difference.
			continue
		}
		if va.Amount == 0 && vb.Amount == 0 {
			continue
		}
		maxVal := va.Amount
		if vb.Amount > maxVal {
			maxVal = vb.Amount
		}
		diff := va.Amount - vb.Amount
		if diff < 0 {
			diff = -diff
		}
		sum += diff / maxVal
		compared++
	}

	if compared == 0 {
		return 1.0
	}
	return 1.0 - sum/float64(compared)
}

// =============================================================================
// Deterministic Signature
// =============================================================================

// Signature computes the deterministic identity signature of a candidate:
// the normalized name concatenated with the four core macro values rounded
// to two decimals. Unknown macros render as "?" so that an unreported value
// can never collide with a reported zero.
func Signature(c food.Candidate) string {
	var b strings.Builder
	b.WriteString(NormalizeName(c.Name))
	for _, v := range c.Nutrients.Macros() {
		b.WriteByte('|')
		if v.Known {
			fmt.Fprintf(&b, "%.2f", v.Amount)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
