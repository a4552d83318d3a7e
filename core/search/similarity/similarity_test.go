package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mealdex/mealdex/core/food"
)

// =============================================================================
// Name Normalization
// =============================================================================

func TestNormalizeName_StripsStateWords(t *testing.T) {
	assert.Equal(t, "chicken breast", NormalizeName("Chicken Breast, Raw"))
	assert.Equal(t, "chicken breast", NormalizeName("Raw Chicken Breast"))
	assert.Equal(t, "spinach", NormalizeName("Frozen Spinach"))
	assert.Equal(t, "tomatoes", NormalizeName("Canned tomatoes"))
}

func TestNormalizeName_PunctuationAndWhitespace(t *testing.T) {
	assert.Equal(t, "peanut butter smooth", NormalizeName("Peanut Butter (Smooth)"))
	assert.Equal(t, "whole milk 3 25", NormalizeName("Whole   Milk, 3.25%"))
	assert.Equal(t, "chicken broth", NormalizeName("chicken,broth"))
}

func TestNormalizeName_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeName(""))
	assert.Equal(t, "", NormalizeName("raw"))
}

// =============================================================================
// Name Similarity
// =============================================================================

func TestNameSimilarity_ExactAfterNormalization(t *testing.T) {
	sim := NameSimilarity("Chicken Breast, Raw", "Raw Chicken Breast")
	assert.Equal(t, 1.0, sim)
}

func TestNameSimilarity_PartialOverlap(t *testing.T) {
	// {chicken, breast} vs {chicken, thigh}: 1 shared of 3 total.
	sim := NameSimilarity("chicken breast", "chicken thigh")
	assert.InDelta(t, 1.0/3.0, sim, 1e-9)
}

func TestNameSimilarity_Disjoint(t *testing.T) {
	assert.Equal(t, 0.0, NameSimilarity("apple", "beef"))
}

func TestNameSimilarity_EmptyName(t *testing.T) {
	assert.Equal(t, 0.0, NameSimilarity("", "apple"))
}

// =============================================================================
// Nutrient Similarity
// =============================================================================

func nutrients(cal, protein, carbs, fat float64) food.Nutrients {
	return food.Nutrients{
		Calories: food.KnownValue(cal),
		Protein:  food.KnownValue(protein),
		Carbs:    food.KnownValue(carbs),
		Fat:      food.KnownValue(fat),
	}
}

func TestNutrientSimilarity_Identical(t *testing.T) {
	n := nutrients(120, 22, 0, 2.6)
	assert.Equal(t, 1.0, NutrientSimilarity(n, n))
}

func TestNutrientSimilarity_CloseValues(t *testing.T) {
	a := nutrients(120, 22, 0, 2.6)
	b := nutrients(121, 22, 0, 2.6)
	sim := NutrientSimilarity(a, b)
	assert.Greater(t, sim, 0.99)
}

func TestNutrientSimilarity_NoComparableFields(t *testing.T) {
	// Both sides all-unknown: default to similar, the name check decides.
	assert.Equal(t, 1.0, NutrientSimilarity(food.Nutrients{}, food.Nutrients{}))
}

func TestNutrientSimilarity_UnknownIsNotZero(t *testing.T) {
	known := nutrients(120, 22, 0, 2.6)
	unknown := food.Nutrients{}
	// No field has both sides known, so nothing is comparable.
	assert.Equal(t, 1.0, NutrientSimilarity(known, unknown))
}

func TestNutrientSimilarity_BothZeroFieldSkipped(t *testing.T) {
	a := nutrients(100, 10, 0, 0)
	b := nutrients(100, 10, 0, 0)
	assert.Equal(t, 1.0, NutrientSimilarity(a, b))
}

func TestNutrientSimilarity_LargeGap(t *testing.T) {
	a := nutrients(100, 10, 10, 10)
	b := nutrients(500, 50, 50, 50)
	sim := NutrientSimilarity(a, b)
	assert.Less(t, sim, 0.5)
}

// =============================================================================
// Signature
// =============================================================================

func TestSignature_Deterministic(t *testing.T) {
	a := food.Candidate{Name: "Chicken Breast, Raw", Nutrients: nutrients(120, 22, 0, 2.6)}
	b := food.Candidate{Name: "Raw Chicken Breast", Nutrients: nutrients(120, 22, 0, 2.6)}
	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_UnknownDistinctFromZero(t *testing.T) {
	zero := food.Candidate{Name: "mystery", Nutrients: nutrients(0, 0, 0, 0)}
	unknown := food.Candidate{Name: "mystery"}
	assert.NotEqual(t, Signature(zero), Signature(unknown))
}

func TestSignature_MacroRounding(t *testing.T) {
	a := food.Candidate{Name: "oats", Nutrients: nutrients(389.001, 16.9, 66.3, 6.9)}
	b := food.Candidate{Name: "oats", Nutrients: nutrients(389.004, 16.9, 66.3, 6.9)}
	assert.Equal(t, Signature(a), Signature(b))
}

// =============================================================================
// SameFood
// =============================================================================

func TestSameFood_SignatureMatch(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	a := food.Candidate{Name: "Chicken Breast, Raw", Nutrients: nutrients(120, 22, 0, 2.6)}
	b := food.Candidate{Name: "Raw Chicken Breast", Nutrients: nutrients(120, 22, 0, 2.6)}
	assert.True(t, m.SameFood(a, b))
}

func TestSameFood_FuzzyMatch(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	a := food.Candidate{Name: "Chicken Breast, Raw", Nutrients: nutrients(120, 22, 0, 2.6)}
	b := food.Candidate{Name: "Raw Chicken Breast", Nutrients: nutrients(121, 22, 0, 2.6)}
	assert.True(t, m.SameFood(a, b))
}

func TestSameFood_DifferentFoods(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	a := food.Candidate{Name: "Chicken Breast", Nutrients: nutrients(120, 22, 0, 2.6)}
	b := food.Candidate{Name: "Beef Steak", Nutrients: nutrients(250, 26, 0, 17)}
	assert.False(t, m.SameFood(a, b))
}

func TestSameFood_SimilarNameDifferentNutrients(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	a := food.Candidate{Name: "Chicken Breast", Nutrients: nutrients(120, 22, 0, 2.6)}
	b := food.Candidate{Name: "Chicken Breast", Nutrients: nutrients(310, 14, 12, 22)}
	assert.False(t, m.SameFood(a, b))
}

func TestNewMatcher_DefaultsOnZeroConfig(t *testing.T) {
	m := NewMatcher(Config{})
	assert.Equal(t, DefaultNameThreshold, m.Config().NameThreshold)
	assert.Equal(t, DefaultNutrientThreshold, m.Config().NutrientThreshold)
}
