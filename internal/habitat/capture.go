package habitat

import "math/rand"

const (
	minCaptureChance = 0.01
	maxCaptureChance = 0.95

	// Quality assigned to an organism whose population has collapsed to
	// zero: it can still be caught, but barely hunts.
	emptyPoolQuality = 0.1

	captureEdgeEpsilon = 1e-9
)

// CaptureQuality translates an organism's average trait penalty into a
// catch/escape skill score in [0.01, 0.99]: 1/(1+averagePenalty) against the
// effective ideal traits.
func CaptureQuality(organism *Organism) float64 {
	if organism.Size() == 0 {
		return emptyPoolQuality
	}
	penalty := AveragePenalty(organism.Genes(), organism.EffectiveIdealTraits())
	return clampFloat(1.0/(1.0+penalty), 0.01, 0.99)
}

// CaptureChance is the probability that a predator of the given quality
// captures prey of the given quality when they share a cell: the predator's
// relative edge multiplied by its own quality, clamped to [0.01, 0.95].
func CaptureChance(predatorQuality, preyQuality float64) float64 {
	relativeEdge := predatorQuality / (predatorQuality + preyQuality + captureEdgeEpsilon)
	return clampFloat(relativeEdge*predatorQuality, minCaptureChance, maxCaptureChance)
}

// resolveCaptures buckets organisms by cell and resolves hunting attempts in
// every cell with two or more occupants. An organism that has already caught
// prey this cycle does not hunt again; a successful draw increments the
// predator's caught-prey counter and the prey's times-caught counter.
// Iteration follows the simulation's organism order so runs with a fixed
// seed are reproducible.
func (s *Simulation) resolveCaptures(rng *rand.Rand) {
	cells := make(map[Position][]*Organism)
	var cellOrder []Position
	for _, id := range s.order {
		organism := s.organisms[id]
		pos := organism.Pos()
		if _, seen := cells[pos]; !seen {
			cellOrder = append(cellOrder, pos)
		}
		cells[pos] = append(cells[pos], organism)
	}

	qualityCache := make(map[OrganismID]float64)
	qualityFor := func(organism *Organism) float64 {
		if cached, ok := qualityCache[organism.ID]; ok {
			return cached
		}
		quality := CaptureQuality(organism)
		qualityCache[organism.ID] = quality
		return quality
	}

	for _, pos := range cellOrder {
		occupants := cells[pos]
		if len(occupants) < 2 {
			continue
		}
		for _, organism := range occupants {
			if organism.HasCaughtPrey() {
				continue
			}
			relations := s.relations[s.levelByOrganism[organism.ID]]
			preyLevels := relations.Prey
			preyIDs := s.behaviors[organism.ID].PreyIDs
			if len(preyLevels) == 0 && len(preyIDs) == 0 {
				continue
			}

			var targets []*Organism
			for _, other := range occupants {
				if other.ID == organism.ID {
					continue
				}
				if s.isPreyOf(organism, other, preyLevels, preyIDs) {
					targets = append(targets, other)
				}
			}
			if len(targets) == 0 {
				continue
			}

			predatorQuality := qualityFor(organism)
			for _, prey := range targets {
				chance := CaptureChance(predatorQuality, qualityFor(prey))
				if rng.Float64() < chance {
					organism.IncrementCaughtPrey()
					prey.IncrementTimesCaught()
				}
			}
		}
	}
}

// isPreyOf reports whether other is a valid prey target for organism, either
// through its level relations or through an explicit prey id override.
func (s *Simulation) isPreyOf(organism, other *Organism, preyLevels []LevelID, preyIDs []OrganismID) bool {
	otherLevel := s.levelByOrganism[other.ID]
	for _, level := range preyLevels {
		if level == otherLevel {
			return true
		}
	}
	for _, id := range preyIDs {
		if id == other.ID {
			return true
		}
	}
	return false
}
