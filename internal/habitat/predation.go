package habitat

import (
	"math"
	"math/rand"
)

// Starvation cull rates per captures-made bracket, applied only to organisms
// that have a prey relationship at all.
const (
	starvationRateNone   = 0.6
	starvationRateOne    = 0.1
	starvationRateFed    = 0.05
	starvationRateThrive = 0.01
)

// starvationRate maps this cycle's capture count to a weighted-cull rate:
// harsh for a failed hunt, a small reward bracket for sustained success,
// tiny attrition otherwise.
func starvationRate(catchesMade int) float64 {
	switch {
	case catchesMade <= 0:
		return starvationRateNone
	case catchesMade == 1:
		return starvationRateOne
	case catchesMade >= 5:
		return starvationRateThrive
	default:
		return starvationRateFed
	}
}

// predationRate maps this cycle's times-caught count to a cull rate for
// capture exposure. The curve is gentle below five captures and steep above.
func predationRate(timesCaught int) float64 {
	if timesCaught <= 0 {
		return 0
	}
	if timesCaught < 5 {
		return math.Min(0.02*float64(timesCaught), 0.08)
	}
	return math.Min(0.08+0.06*float64(timesCaught-4), 0.6)
}

// resolvePredation applies end-of-cycle mortality to every organism using
// that cycle's capture counters: a starvation pass for hunters, then a
// predation-exposure pass on the already-reduced pool. Both passes cull by
// trait-penalty-weighted roulette against the organism's effective ideal
// traits. An organism is never removed from the simulation entirely; its
// population may reach zero and persists for reporting.
func (s *Simulation) resolvePredation(rng *rand.Rand) {
	for _, id := range s.order {
		organism := s.organisms[id]
		genes := organism.Genes()
		populationSize := len(genes)
		if populationSize == 0 {
			continue
		}

		idealTraits := organism.EffectiveIdealTraits()
		relations := s.relations[s.levelByOrganism[organism.ID]]
		preyIDs := s.behaviors[organism.ID].PreyIDs

		if len(relations.Prey) > 0 || len(preyIDs) > 0 {
			rate := starvationRate(organism.CaughtPreyCount())
			losses := int(math.Round(float64(populationSize) * rate))
			genes = ApplyWeightedDeaths(rng, genes, idealTraits, losses)
			populationSize = len(genes)
		}

		if rate := predationRate(organism.TimesCaught()); rate > 0 && populationSize > 0 {
			losses := int(math.Round(float64(populationSize) * rate))
			genes = ApplyWeightedDeaths(rng, genes, idealTraits, losses)
		}

		organism.SetGenes(genes)
	}
}
