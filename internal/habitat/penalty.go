package habitat

import (
	"math"
	"math/rand"
)

const (
	// Per-trait deviation tolerated before the harsh multiplier applies.
	harshPenaltyThreshold = 0.35
	harshPenaltyFactor    = 4.0
	// Keeps every roulette weight strictly positive.
	minPenalty = 1e-6
)

// TraitPenalties weighs each individual in the pool by how poorly it matches
// the ideal traits: the summed absolute deviation, amplified for any per-trait
// excess beyond the harsh threshold, floored at a small positive epsilon.
// An empty ideal vector yields a uniform weight of 1.0 for every individual
// rather than failing.
func TraitPenalties(pool []*Individual, idealTraits []float64) []float64 {
	if len(pool) == 0 {
		return nil
	}
	if len(idealTraits) == 0 {
		penalties := make([]float64, len(pool))
		for i := range penalties {
			penalties[i] = 1.0
		}
		return penalties
	}

	penalties := make([]float64, 0, len(pool))
	for _, genome := range pool {
		delta := 0.0
		harshExcess := 0.0
		for i, gene := range genome.Traits {
			if i >= len(idealTraits) {
				break
			}
			diff := math.Abs(gene - idealTraits[i])
			delta += diff
			if diff > harshPenaltyThreshold {
				harshExcess += diff - harshPenaltyThreshold
			}
		}
		penalty := delta * (1.0 + harshPenaltyFactor*harshExcess)
		if penalty < minPenalty {
			penalty = minPenalty
		}
		penalties = append(penalties, penalty)
	}
	return penalties
}

// AveragePenalty returns the mean trait penalty across the pool, or 0 for an
// empty pool.
func AveragePenalty(pool []*Individual, idealTraits []float64) float64 {
	penalties := TraitPenalties(pool, idealTraits)
	if len(penalties) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range penalties {
		total += p
	}
	return total / float64(len(penalties))
}

// ApplyWeightedDeaths removes up to killCount individuals from the pool via a
// penalty-weighted roulette: higher penalty means more likely removed. The
// weights are recomputed over the current survivors before every removal so
// relative removal probabilities stay consistent as the pool shrinks. A
// degenerate (zero-total) weight vector falls back to a uniform draw.
func ApplyWeightedDeaths(rng *rand.Rand, pool []*Individual, idealTraits []float64, killCount int) []*Individual {
	if killCount <= 0 || len(pool) == 0 {
		return pool
	}

	survivors := append([]*Individual(nil), pool...)
	removals := killCount
	if removals > len(survivors) {
		removals = len(survivors)
	}
	for i := 0; i < removals; i++ {
		weights := TraitPenalties(survivors, idealTraits)
		total := 0.0
		for _, w := range weights {
			total += w
		}
		var index int
		if total <= 0 {
			index = rng.Intn(len(survivors))
		} else {
			threshold := rng.Float64() * total
			running := 0.0
			index = len(survivors) - 1
			for j, w := range weights {
				running += w
				if threshold <= running {
					index = j
					break
				}
			}
		}
		survivors = append(survivors[:index], survivors[index+1:]...)
	}
	return survivors
}
