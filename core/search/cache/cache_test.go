package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealdex/mealdex/core/food"
)

func results(names ...string) []food.RankedResult {
	out := make([]food.RankedResult, 0, len(names))
	for i, n := range names {
		out = append(out, food.RankedResult{
			Candidate: food.Candidate{
				ID:         fmt.Sprintf("id-%d", i),
				Name:       n,
				Source:     food.SourceFoodData,
				Confidence: 0.9,
			},
		})
	}
	return out
}

// =============================================================================
// QueryCache
// =============================================================================

func TestQueryCache_SetGet(t *testing.T) {
	c := NewQueryCache(DefaultConfig())
	stored := results("Banana")
	c.Set("banana", stored)

	got, ok := c.Get("banana")
	require.True(t, ok)
	assert.Equal(t, stored, got)
}

func TestQueryCache_MissOnUnknownKey(t *testing.T) {
	c := NewQueryCache(DefaultConfig())
	_, ok := c.Get("banana")
	assert.False(t, ok)
}

func TestQueryCache_LazyExpiry(t *testing.T) {
	c := NewQueryCache(Config{TTL: 20 * time.Millisecond, MaxSize: 10})
	c.Set("banana", results("Banana"))

	_, ok := c.Get("banana")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	// The stale entry is still held until a read evicts it.
	assert.Equal(t, 1, c.Size())
	_, ok = c.Get("banana")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_LRUEviction(t *testing.T) {
	c := NewQueryCache(Config{TTL: time.Minute, MaxSize: 2})
	c.Set("a", results("A"))
	c.Set("b", results("B"))

	// Touch "a" so "b" is the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", results("C"))

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestQueryCache_SetOverwrites(t *testing.T) {
	c := NewQueryCache(DefaultConfig())
	c.Set("banana", results("Old"))
	c.Set("banana", results("New"))

	got, ok := c.Get("banana")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Name)
	assert.Equal(t, 1, c.Size())
}

func TestQueryCache_DeleteAndClear(t *testing.T) {
	c := NewQueryCache(DefaultConfig())
	c.Set("a", results("A"))
	c.Set("b", results("B"))

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

// =============================================================================
// FallbackIndex
// =============================================================================

func TestFallbackIndex_FindSimilar(t *testing.T) {
	f := NewFallbackIndex(time.Minute, 0)
	f.Remember("chicken breast grilled", results("Grilled Chicken Breast"))

	// {chicken, breast} vs {chicken, breast, grilled}: Jaccard 2/3 >= 0.5.
	donor, got, ok := f.FindSimilar("chicken breast")
	require.True(t, ok)
	assert.Equal(t, "chicken breast grilled", donor)
	require.Len(t, got, 1)
	assert.True(t, got[0].Degraded)
}

func TestFallbackIndex_BelowThreshold(t *testing.T) {
	f := NewFallbackIndex(time.Minute, 0)
	f.Remember("grilled chicken breast sandwich", results("Sandwich"))

	// {tofu} vs {grilled, chicken, breast, sandwich}: Jaccard 0.
	_, _, ok := f.FindSimilar("tofu")
	assert.False(t, ok)
}

func TestFallbackIndex_DoesNotReturnSelf(t *testing.T) {
	f := NewFallbackIndex(time.Minute, 0)
	f.Remember("banana", results("Banana"))

	_, _, ok := f.FindSimilar("banana")
	assert.False(t, ok)
}

func TestFallbackIndex_PicksBestDonor(t *testing.T) {
	f := NewFallbackIndex(time.Minute, 0)
	f.Remember("greek yogurt plain nonfat", results("Nonfat Greek Yogurt"))
	f.Remember("greek yogurt", results("Greek Yogurt"))

	// 3/4 overlap beats 2/3 overlap.
	donor, got, ok := f.FindSimilar("greek yogurt plain")
	require.True(t, ok)
	assert.Equal(t, "greek yogurt plain nonfat", donor)
	assert.Equal(t, "Nonfat Greek Yogurt", got[0].Name)
}

func TestFallbackIndex_ExpiredEntriesIneligible(t *testing.T) {
	// Entries past their TTL must not serve as fallback donors, even though
	// a stale-but-unevicted QueryCache entry might still exist for the
	// donor's own exact query.
	f := NewFallbackIndex(20*time.Millisecond, 0)
	f.Remember("chicken breast grilled", results("Grilled Chicken Breast"))

	time.Sleep(40 * time.Millisecond)

	_, _, ok := f.FindSimilar("chicken breast")
	assert.False(t, ok)
}

func TestFallbackIndex_IgnoresEmptyResults(t *testing.T) {
	f := NewFallbackIndex(time.Minute, 0)
	f.Remember("banana", nil)
	assert.Equal(t, 0, f.Len())
}

func TestFallbackIndex_DegradedCopiesDoNotMutateOriginal(t *testing.T) {
	f := NewFallbackIndex(time.Minute, 0)
	original := results("Grilled Chicken Breast")
	f.Remember("chicken breast grilled", original)

	_, _, ok := f.FindSimilar("chicken breast")
	require.True(t, ok)
	assert.False(t, original[0].Degraded)
}
