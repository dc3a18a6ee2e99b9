package habitat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const (
	// Per-trait deviation allowed before the harsh penalty kicks in.
	fitnessEpsilon = 1e-9

	defaultBlendAlpha    = 0.5
	defaultMutationSigma = 0.25
	defaultMutationIndpb = 0.6
)

// EvolutionOptions are the tunable knobs for a trophic level's genetic
// algorithm. Zero values are replaced by DefaultEvolutionOptions.
type EvolutionOptions struct {
	MinPopulationSize    int     `json:"min_population_size" yaml:"min_population_size"`
	MaxPopulationSize    int     `json:"max_population_size" yaml:"max_population_size"`
	ImmigrationRate      float64 `json:"immigration_rate" yaml:"immigration_rate"`
	ImmigrationChance    float64 `json:"immigration_chance" yaml:"immigration_chance"`
	ImmigrationVariation float64 `json:"immigration_variation" yaml:"immigration_variation"`
	Fecundity            float64 `json:"fecundity" yaml:"fecundity"`
	FecundityVariation   float64 `json:"fecundity_variation" yaml:"fecundity_variation"`
	CrossoverProbability float64 `json:"crossover_probability" yaml:"crossover_probability"`
	MutationProbability  float64 `json:"mutation_probability" yaml:"mutation_probability"`
	EliteCount           int     `json:"elite_count" yaml:"elite_count"`
}

// DefaultEvolutionOptions returns the canonical knob values.
func DefaultEvolutionOptions() EvolutionOptions {
	return EvolutionOptions{
		MinPopulationSize:    10,
		MaxPopulationSize:    200,
		ImmigrationRate:      0.1,
		ImmigrationChance:    0.35,
		ImmigrationVariation: 0.25,
		Fecundity:            1.0,
		FecundityVariation:   0.15,
		CrossoverProbability: 0.7,
		MutationProbability:  0.3,
		EliteCount:           2,
	}
}

// EvolutionContext bundles everything needed to advance a trophic level's
// population. It is created once per level at simulation start and only
// mutated by swapping TargetTraitsOverride; it is never rebuilt mid-run
// except on a full simulation reset.
type EvolutionContext struct {
	TargetTraits         []float64
	TargetTraitsOverride []float64

	MinPopulationSize    int
	MaxPopulationSize    int
	ImmigrationRate      float64
	ImmigrationChance    float64
	ImmigrationVariation float64
	Fecundity            float64
	FecundityVariation   float64
	CrossoverProbability float64
	MutationProbability  float64
	EliteCount           int

	// PerfectMatchScore is the fitness of an exact target match: the trait
	// count, since each trait contributes at most 1.0 of distance.
	PerfectMatchScore        int
	TargetPopulationBaseline int

	BlendAlpha    float64
	MutationSigma float64
	MutationIndpb float64
}

// EffectiveTargets resolves the trait target used for scoring: the override
// when present, the level default otherwise.
func (c *EvolutionContext) EffectiveTargets() []float64 {
	if len(c.TargetTraitsOverride) > 0 {
		return c.TargetTraitsOverride
	}
	return c.TargetTraits
}

// Evaluate scores an individual by similarity to the effective targets.
// A perfect match returns PerfectMatchScore; larger means fitter.
func (c *EvolutionContext) Evaluate(ind *Individual) float64 {
	targets := c.EffectiveTargets()
	difference := 0.0
	for i, gene := range ind.Traits {
		if i >= len(targets) {
			break
		}
		difference += math.Abs(gene - targets[i])
	}
	return float64(c.PerfectMatchScore) - difference
}

// PrepareEvolution seeds an initial population of uniformly random
// individuals and builds a reusable context for generational updates.
// Fails on malformed fecundity configuration; these errors are fatal to the
// setup, never retried.
func PrepareEvolution(rng *rand.Rand, populationSize int, targetTraits []float64, opts EvolutionOptions) ([]*Individual, *EvolutionContext, error) {
	if opts.Fecundity <= 0 {
		return nil, nil, fmt.Errorf("fecundity must be greater than zero, got %v", opts.Fecundity)
	}
	if opts.FecundityVariation < 0 {
		return nil, nil, fmt.Errorf("fecundity_variation cannot be negative, got %v", opts.FecundityVariation)
	}

	traitCount := len(targetTraits)
	basePopulation := clampInt(populationSize, opts.MinPopulationSize, opts.MaxPopulationSize)
	baseline := clampInt(
		int(math.Round(float64(basePopulation)*opts.Fecundity)),
		opts.MinPopulationSize,
		opts.MaxPopulationSize,
	)

	ctx := &EvolutionContext{
		TargetTraits:             copyFloats(targetTraits),
		MinPopulationSize:        opts.MinPopulationSize,
		MaxPopulationSize:        opts.MaxPopulationSize,
		ImmigrationRate:          opts.ImmigrationRate,
		ImmigrationChance:        opts.ImmigrationChance,
		ImmigrationVariation:     opts.ImmigrationVariation,
		Fecundity:                opts.Fecundity,
		FecundityVariation:       opts.FecundityVariation,
		CrossoverProbability:     opts.CrossoverProbability,
		MutationProbability:      opts.MutationProbability,
		EliteCount:               opts.EliteCount,
		PerfectMatchScore:        traitCount,
		TargetPopulationBaseline: baseline,
		BlendAlpha:               defaultBlendAlpha,
		MutationSigma:            defaultMutationSigma,
		MutationIndpb:            defaultMutationIndpb,
	}

	population := make([]*Individual, basePopulation)
	for i := range population {
		population[i] = NewRandomIndividual(rng, traitCount)
	}
	return population, ctx, nil
}

// scaledFitness shifts raw fitness scores so every roulette weight is
// strictly positive: by (-min + eps) when the minimum is negative, by eps
// otherwise.
func scaledFitness(population []*Individual) []float64 {
	if len(population) == 0 {
		return nil
	}
	minimum := math.Inf(1)
	raw := make([]float64, len(population))
	for i, ind := range population {
		score, _ := ind.Fitness()
		raw[i] = score
		if score < minimum {
			minimum = score
		}
	}
	offset := fitnessEpsilon
	if minimum < 0 {
		offset = -minimum + fitnessEpsilon
	}
	for i := range raw {
		raw[i] += offset
	}
	return raw
}

// selectRouletteScaled draws count individuals (with replacement) using
// scaled-fitness weights, falling back to uniform sampling when the total
// weight is degenerate.
func selectRouletteScaled(rng *rand.Rand, population []*Individual, count int) []*Individual {
	if count <= 0 || len(population) == 0 {
		return nil
	}
	weights := scaledFitness(population)
	total := 0.0
	for _, w := range weights {
		total += w
	}

	selected := make([]*Individual, 0, count)
	for len(selected) < count {
		if total <= 0 {
			selected = append(selected, population[rng.Intn(len(population))])
			continue
		}
		threshold := rng.Float64() * total
		running := 0.0
		picked := len(population) - 1
		for i, w := range weights {
			running += w
			if threshold <= running {
				picked = i
				break
			}
		}
		selected = append(selected, population[picked])
	}
	return selected
}

// selectBest returns the count fittest individuals. The sort is stable so
// ties resolve by current population order, keeping runs reproducible.
func selectBest(population []*Individual, count int) []*Individual {
	if count <= 0 || len(population) == 0 {
		return nil
	}
	sorted := make([]*Individual, len(population))
	copy(sorted, population)
	sort.SliceStable(sorted, func(i, j int) bool {
		fi, _ := sorted[i].Fitness()
		fj, _ := sorted[j].Fitness()
		return fi > fj
	})
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// rollImmigrationQuota draws the number of fresh random individuals to inject
// this generation. Zero unless the chance threshold succeeds; the drawn count
// is capped by the remaining headroom to the maximum population size.
func rollImmigrationQuota(rng *rand.Rand, currentSize int, ctx *EvolutionContext) int {
	if currentSize == 0 || rng.Float64() > ctx.ImmigrationChance {
		return 0
	}
	baseCount := int(math.Round(float64(currentSize) * ctx.ImmigrationRate))
	if baseCount < 1 {
		baseCount = 1
	}
	variance := int(math.Round(float64(baseCount) * ctx.ImmigrationVariation))
	if variance < 1 {
		variance = 1
	}
	lower := baseCount - variance
	if lower < 1 {
		lower = 1
	}
	upper := baseCount + variance
	candidate := lower + rng.Intn(upper-lower+1)
	headroom := ctx.MaxPopulationSize - currentSize
	if headroom < 0 {
		headroom = 0
	}
	if candidate > headroom {
		candidate = headroom
	}
	if candidate < 0 {
		candidate = 0
	}
	return candidate
}

// blendCrossover applies a blended crossover to both parents in place: each
// trait position becomes a weighted mix of the two parents' values, with a
// per-position blend factor drawn around alpha.
func blendCrossover(rng *rand.Rand, a, b *Individual, alpha float64) {
	n := len(a.Traits)
	if len(b.Traits) < n {
		n = len(b.Traits)
	}
	for i := 0; i < n; i++ {
		gamma := (1+2*alpha)*rng.Float64() - alpha
		x, y := a.Traits[i], b.Traits[i]
		a.Traits[i] = (1-gamma)*x + gamma*y
		b.Traits[i] = gamma*x + (1-gamma)*y
	}
}

// gaussianMutate perturbs each trait with probability indpb by zero-mean
// Gaussian noise of the given sigma.
func gaussianMutate(rng *rand.Rand, ind *Individual, sigma, indpb float64) {
	for i := range ind.Traits {
		if rng.Float64() < indpb {
			ind.Traits[i] += rng.NormFloat64() * sigma
		}
	}
}

// AdvancePopulation advances a population by one or more generations and
// returns the resulting population. Steps per generation: evaluate cache
// misses, clone elites, fill the remaining parent slots by scaled roulette,
// pair elites first, blend-crossover and Gaussian-mutate, inject immigrants,
// then resize to a randomized target around the population baseline.
func AdvancePopulation(rng *rand.Rand, population []*Individual, ctx *EvolutionContext, generations int) []*Individual {
	if generations <= 0 || len(population) == 0 {
		return population
	}

	for gen := 0; gen < generations; gen++ {
		evaluateInvalid(population, ctx)

		currentSize := len(population)
		immigrationQuota := rollImmigrationQuota(rng, currentSize, ctx)
		eliteToKeep := ctx.EliteCount
		if eliteToKeep > currentSize {
			eliteToKeep = currentSize
		}

		variationSpan := int(math.Round(float64(ctx.TargetPopulationBaseline) * ctx.FecundityVariation))
		if variationSpan < 1 {
			variationSpan = 1
		}
		lowerBound := ctx.TargetPopulationBaseline - variationSpan
		if lowerBound < ctx.MinPopulationSize {
			lowerBound = ctx.MinPopulationSize
		}
		upperBound := ctx.TargetPopulationBaseline + variationSpan
		if upperBound > ctx.MaxPopulationSize {
			upperBound = ctx.MaxPopulationSize
		}
		if upperBound < lowerBound {
			upperBound = lowerBound
		}
		targetPopulation := lowerBound + rng.Intn(upperBound-lowerBound+1)

		eliteParents := make([]*Individual, 0, eliteToKeep)
		for _, elite := range selectBest(population, eliteToKeep) {
			clone := elite.Clone()
			clone.elite = true
			eliteParents = append(eliteParents, clone)
		}

		rouletteSlots := currentSize - eliteToKeep
		var otherParents []*Individual
		for _, picked := range selectRouletteScaled(rng, population, rouletteSlots) {
			otherParents = append(otherParents, picked.Clone())
		}
		rng.Shuffle(len(otherParents), func(i, j int) {
			otherParents[i], otherParents[j] = otherParents[j], otherParents[i]
		})

		// Pair each elite with a non-elite partner first (or another elite
		// if none remain), then pair remaining non-elites two at a time.
		// Unpaired individuals carry over unmatched.
		type pair struct{ first, second *Individual }
		var breedingPairs []pair
		remainingElites := append([]*Individual(nil), eliteParents...)
		for len(remainingElites) > 0 {
			elite := remainingElites[0]
			remainingElites = remainingElites[1:]
			var partner *Individual
			if len(otherParents) > 0 {
				partner = otherParents[0]
				otherParents = otherParents[1:]
			} else if len(remainingElites) > 0 {
				partner = remainingElites[0]
				remainingElites = remainingElites[1:]
			}
			if partner != nil {
				breedingPairs = append(breedingPairs, pair{elite, partner})
			}
		}
		for len(otherParents) >= 2 {
			breedingPairs = append(breedingPairs, pair{otherParents[0], otherParents[1]})
			otherParents = otherParents[2:]
		}

		var offspring []*Individual
		for _, p := range breedingPairs {
			eliteInPair := p.first.elite || p.second.elite
			if eliteInPair || rng.Float64() < ctx.CrossoverProbability {
				blendCrossover(rng, p.first, p.second, ctx.BlendAlpha)
				p.first.ClampTraits()
				p.second.ClampTraits()
				p.first.InvalidateFitness()
				p.second.InvalidateFitness()
			}
			if rng.Float64() < ctx.MutationProbability {
				gaussianMutate(rng, p.first, ctx.MutationSigma, ctx.MutationIndpb)
				p.first.ClampTraits()
				p.first.InvalidateFitness()
			}
			if rng.Float64() < ctx.MutationProbability {
				gaussianMutate(rng, p.second, ctx.MutationSigma, ctx.MutationIndpb)
				p.second.ClampTraits()
				p.second.InvalidateFitness()
			}
			offspring = append(offspring, p.first, p.second)
		}

		traitCount := len(ctx.TargetTraits)
		immigrants := make([]*Individual, immigrationQuota)
		for i := range immigrants {
			immigrants[i] = NewRandomIndividual(rng, traitCount)
		}

		eliteCopies := make([]*Individual, 0, len(eliteParents))
		for _, elite := range eliteParents {
			eliteCopies = append(eliteCopies, elite.Clone())
		}

		newGeneration := make([]*Individual, 0, len(offspring)+len(immigrants)+len(eliteCopies))
		newGeneration = append(newGeneration, offspring...)
		newGeneration = append(newGeneration, immigrants...)
		newGeneration = append(newGeneration, eliteCopies...)

		if len(newGeneration) < targetPopulation {
			deficit := targetPopulation - len(newGeneration)
			for i := 0; i < deficit; i++ {
				newGeneration = append(newGeneration, NewRandomIndividual(rng, traitCount))
			}
		}

		if len(newGeneration) > targetPopulation {
			evaluateInvalid(newGeneration, ctx)
			keepElites := ctx.EliteCount
			if keepElites > targetPopulation {
				keepElites = targetPopulation
			}
			elites := selectBest(newGeneration, keepElites)
			eliteSet := make(map[*Individual]struct{}, len(elites))
			for _, ind := range elites {
				eliteSet[ind] = struct{}{}
			}
			remainingSlots := targetPopulation - len(elites)
			if remainingSlots > 0 {
				var others []*Individual
				for _, ind := range newGeneration {
					if _, isElite := eliteSet[ind]; !isElite {
						others = append(others, ind)
					}
				}
				sampled := sampleWithoutReplacement(rng, others, remainingSlots)
				newGeneration = append(append([]*Individual(nil), elites...), sampled...)
			} else {
				newGeneration = append([]*Individual(nil), elites...)
			}
		}

		for _, ind := range newGeneration {
			ind.elite = false
		}
		population = newGeneration
		evaluateInvalid(population, ctx)
	}

	return population
}

func evaluateInvalid(population []*Individual, ctx *EvolutionContext) {
	for _, ind := range population {
		if _, valid := ind.Fitness(); !valid {
			ind.SetFitness(ctx.Evaluate(ind))
		}
	}
}

// sampleWithoutReplacement draws up to count distinct elements from pool by
// uniform sampling, not replacement-biased.
func sampleWithoutReplacement(rng *rand.Rand, pool []*Individual, count int) []*Individual {
	if count >= len(pool) {
		return append([]*Individual(nil), pool...)
	}
	perm := rng.Perm(len(pool))
	out := make([]*Individual, count)
	for i := 0; i < count; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}
