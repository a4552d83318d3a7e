package food

// Value is a nutrient amount with explicit presence. Upstream providers
// routinely omit fields; an absent value must never be collapsed into zero
// because the nutrient-similarity calculation treats unknown and zero
// differently.
type Value struct {
	Amount float64 `json:"amount"`
	Known  bool    `json:"known"`
}

// KnownValue returns a present nutrient value.
func KnownValue(amount float64) Value {
	return Value{Amount: amount, Known: true}
}

// Unknown returns an absent nutrient value.
func Unknown() Value {
	return Value{}
}

// Or returns the amount when known, otherwise the fallback.
func (v Value) Or(fallback float64) float64 {
	if v.Known {
		return v.Amount
	}
	return fallback
}

// Nutrients is the sparse per-serving nutrient vector of a candidate.
type Nutrients struct {
	Calories Value `json:"calories"`
	Protein  Value `json:"protein_g"`
	Carbs    Value `json:"carbs_g"`
	Fat      Value `json:"fat_g"`
	Fiber    Value `json:"fiber_g"`
	Sugar    Value `json:"sugar_g"`
	Sodium   Value `json:"sodium_mg"`
}

// MacroCount is the number of core macro fields considered by similarity
// matching and completeness ranking.
const MacroCount = 4

// Macros returns the four core macro fields in canonical order:
// calories, protein, carbs, fat.
func (n Nutrients) Macros() [MacroCount]Value {
	return [MacroCount]Value{n.Calories, n.Protein, n.Carbs, n.Fat}
}

// NonzeroMacroCount returns how many core macros are known and nonzero.
// Used as the "more complete nutrition data wins" tie-break in
// representative election.
func (n Nutrients) NonzeroMacroCount() int {
	count := 0
	for _, v := range n.Macros() {
		if v.Known && v.Amount != 0 {
			count++
		}
	}
	return count
}
