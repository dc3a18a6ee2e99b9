package habitat

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Individual is a single genome in a trophic-level population: a fixed-length
// ordered vector of trait values in [0, 1]. The fitness cache avoids
// re-scoring individuals that were untouched by crossover or mutation.
type Individual struct {
	Traits []float64

	fitness      float64
	fitnessValid bool

	// Set while the individual participates in breeding as an elite parent.
	elite bool
}

// NewRandomIndividual creates an individual with traitCount independent
// uniform [0, 1) trait values drawn from rng.
func NewRandomIndividual(rng *rand.Rand, traitCount int) *Individual {
	traits := make([]float64, traitCount)
	for i := range traits {
		traits[i] = rng.Float64()
	}
	return &Individual{Traits: traits}
}

// Clone returns a deep copy of the individual. The fitness cache is carried
// over; the elite flag is not.
func (ind *Individual) Clone() *Individual {
	traits := make([]float64, len(ind.Traits))
	copy(traits, ind.Traits)
	return &Individual{
		Traits:       traits,
		fitness:      ind.fitness,
		fitnessValid: ind.fitnessValid,
	}
}

// Fitness returns the cached fitness value and whether it is valid.
func (ind *Individual) Fitness() (float64, bool) {
	return ind.fitness, ind.fitnessValid
}

// SetFitness stores a fitness value and marks the cache valid.
func (ind *Individual) SetFitness(value float64) {
	ind.fitness = value
	ind.fitnessValid = true
}

// InvalidateFitness clears the fitness cache. Called after any operator that
// changes trait values.
func (ind *Individual) InvalidateFitness() {
	ind.fitness = 0
	ind.fitnessValid = false
}

// ClampTraits keeps all trait values inside [0, 1].
func (ind *Individual) ClampTraits() {
	for i, v := range ind.Traits {
		ind.Traits[i] = clampFloat(v, 0, 1)
	}
}

// AverageGenome returns the mean value for each trait position across the
// pool, rounded to 4 decimals. An empty pool yields an empty slice.
func AverageGenome(pool []*Individual) []float64 {
	if len(pool) == 0 {
		return []float64{}
	}

	width := 0
	for _, ind := range pool {
		if len(ind.Traits) > width {
			width = len(ind.Traits)
		}
	}

	averages := make([]float64, width)
	column := make([]float64, 0, len(pool))
	for pos := 0; pos < width; pos++ {
		column = column[:0]
		for _, ind := range pool {
			if pos < len(ind.Traits) {
				column = append(column, ind.Traits[pos])
			}
		}
		if len(column) == 0 {
			continue
		}
		averages[pos] = math.Round(stat.Mean(column, nil)*1e4) / 1e4
	}
	return averages
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
