// Package dedup groups near-duplicate candidates returned by different
// providers and elects one representative per group.
package dedup

import (
	"github.com/mealdex/mealdex/core/food"
	"github.com/mealdex/mealdex/core/search/similarity"
)

// confidenceDecisiveGap is the minimum confidence difference that may decide
// representative election. Smaller gaps are treated as noise and fall
// through to the completeness tie-break.
const confidenceDecisiveGap = 0.1

// Group is a transient cluster of candidates judged to denote the same
// real-world food. It exists only for the duration of one aggregation.
type Group struct {
	// Seed is the first-seen member; later candidates are compared against
	// the seed only.
	Seed food.Candidate

	// Members holds every candidate in the group, seed first.
	Members []food.Candidate
}

// Deduplicator merges near-duplicate candidates across sources.
type Deduplicator struct {
	matcher    *similarity.Matcher
	sourceRank map[food.Source]int
}

// NewDeduplicator creates a Deduplicator. sourceRank orders sources by
// preference for representative election; lower rank wins. Sources missing
// from the list rank last.
func NewDeduplicator(matcher *similarity.Matcher, sourceRank []food.Source) *Deduplicator {
	rank := make(map[food.Source]int, len(sourceRank))
	for i, s := range sourceRank {
		rank[s] = i
	}
	return &Deduplicator{matcher: matcher, sourceRank: rank}
}

// Deduplicate groups the candidate list and returns one representative per
// group, in group-creation order.
func (d *Deduplicator) Deduplicate(candidates []food.Candidate) []food.Candidate {
	groups := d.Groups(candidates)
	result := make([]food.Candidate, 0, len(groups))
	for _, g := range groups {
		result = append(result, d.electRepresentative(g))
	}
	return result
}

// Groups performs the single-pass grouping. Each not-yet-claimed candidate
// seeds a new group and absorbs every later unclaimed candidate similar to
// that seed. Candidates are compared against group seeds only, never against
// other members; transitive chains of near-duplicates may therefore split
// across groups. That behavior is load-bearing for result stability and must
// not be "fixed" to full transitive clustering.
func (d *Deduplicator) Groups(candidates []food.Candidate) []Group {
	groups := make([]Group, 0, len(candidates))
	claimed := make([]bool, len(candidates))

	for i, seed := range candidates {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		group := Group{Seed: seed, Members: []food.Candidate{seed}}

		for j := i + 1; j < len(candidates); j++ {
			if claimed[j] {
				continue
			}
			if d.matcher.SameFood(seed, candidates[j]) {
				claimed[j] = true
				group.Members = append(group.Members, candidates[j])
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// electRepresentative picks the best member of a group. Tie-breaks apply in
// sequence: source preference rank, then confidence when the gap exceeds
// confidenceDecisiveGap, then count of nonzero macro fields. Earlier members
// win remaining ties, keeping election independent of scan order across
// sources of equal merit.
func (d *Deduplicator) electRepresentative(g Group) food.Candidate {
	best := g.Members[0]
	for _, challenger := range g.Members[1:] {
		if d.beats(challenger, best) {
			best = challenger
		}
	}
	return best
}

// beats reports whether the challenger should replace the incumbent.
func (d *Deduplicator) beats(challenger, incumbent food.Candidate) bool {
	cRank := d.rankOf(challenger.Source)
	iRank := d.rankOf(incumbent.Source)
	if cRank != iRank {
		return cRank < iRank
	}

	gap := challenger.Confidence - incumbent.Confidence
	if gap > confidenceDecisiveGap {
		return true
	}
	if gap < -confidenceDecisiveGap {
		return false
	}

	return challenger.Nutrients.NonzeroMacroCount() > incumbent.Nutrients.NonzeroMacroCount()
}

// rankOf returns the preference rank of a source; unknown sources rank last.
func (d *Deduplicator) rankOf(s food.Source) int {
	if r, ok := d.sourceRank[s]; ok {
		return r
	}
	return len(d.sourceRank)
}
