package habitat

import "math/rand"

// Probability of adding random jitter to each movement axis.
const randomDirectionChance = 0.5

// clampStep normalizes a delta to -1, 0, or 1 so movement stays grid-aligned.
func clampStep(value int) int {
	if value > 0 {
		return 1
	}
	if value < 0 {
		return -1
	}
	return 0
}

// manhattan is the grid distance between two organisms.
func manhattan(a, b *Organism) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// directionTowards returns the single-step direction vector from source to
// target.
func directionTowards(source, target *Organism) (int, int) {
	return clampStep(target.Row - source.Row), clampStep(target.Col - source.Col)
}

// directionFromLevels picks the direction toward (or away from) the nearest
// organism belonging to one of the supplied trophic levels. The first
// zero-distance match short-circuits the search.
func (s *Simulation) directionFromLevels(origin *Organism, levelIDs []LevelID, toward bool) (int, int) {
	if len(levelIDs) == 0 {
		return 0, 0
	}

	levelSet := make(map[LevelID]struct{}, len(levelIDs))
	for _, id := range levelIDs {
		levelSet[id] = struct{}{}
	}

	closestRow, closestCol := 0, 0
	closestDistance := -1

	for _, id := range s.order {
		candidate := s.organisms[id]
		if candidate.ID == origin.ID {
			continue
		}
		if _, ok := levelSet[s.levelByOrganism[candidate.ID]]; !ok {
			continue
		}

		dr, dc := directionTowards(origin, candidate)
		if dr == 0 && dc == 0 {
			closestRow, closestCol = 0, 0
			closestDistance = 0
			break
		}

		distance := manhattan(origin, candidate)
		if closestDistance < 0 || distance < closestDistance {
			closestRow, closestCol = dr, dc
			closestDistance = distance
		}
	}

	if closestDistance < 0 {
		return 0, 0
	}
	if toward {
		return closestRow, closestCol
	}
	return -closestRow, -closestCol
}

// directionFromTargets picks the direction toward (or away from) the nearest
// of the explicitly listed organism ids.
func (s *Simulation) directionFromTargets(origin *Organism, targetIDs []OrganismID, toward bool) (int, int) {
	if len(targetIDs) == 0 {
		return 0, 0
	}

	closestRow, closestCol := 0, 0
	closestDistance := -1

	for _, targetID := range targetIDs {
		candidate, ok := s.organisms[targetID]
		if !ok || candidate.ID == origin.ID {
			continue
		}

		dr, dc := directionTowards(origin, candidate)
		if dr == 0 && dc == 0 {
			closestRow, closestCol = 0, 0
			closestDistance = 0
			break
		}

		distance := manhattan(origin, candidate)
		if closestDistance < 0 || distance < closestDistance {
			closestRow, closestCol = dr, dc
			closestDistance = distance
		}
	}

	if closestDistance < 0 {
		return 0, 0
	}
	if toward {
		return closestRow, closestCol
	}
	return -closestRow, -closestCol
}

// calculateMoveDelta blends prey pursuit, predator avoidance, and randomness
// into one movement vector, scaled to the organism's per-level speed.
func (s *Simulation) calculateMoveDelta(rng *rand.Rand, organism *Organism, relations RelationConfig, currentStep, speed int) (int, int) {
	preyLevels := relations.Prey
	predatorLevels := relations.Predators

	behavior := s.behaviors[organism.ID]
	specificPreyIDs := behavior.PreyIDs
	specificPredatorIDs := behavior.PredatorIDs

	preyRow, preyCol := s.directionFromTargets(organism, specificPreyIDs, true)
	if preyRow == 0 && preyCol == 0 {
		preyRow, preyCol = s.directionFromLevels(organism, preyLevels, true)
	}

	predRow, predCol := s.directionFromTargets(organism, specificPredatorIDs, false)
	if predRow == 0 && predCol == 0 {
		predRow, predCol = s.directionFromLevels(organism, predatorLevels, false)
	}

	hasPreyRelation := len(preyLevels) > 0 || len(specificPreyIDs) > 0

	preyWeight := 1
	if hasPreyRelation {
		preyWeight = 2
		if speed > preyWeight {
			preyWeight = speed
		}
	}
	if len(specificPreyIDs) > 0 && speed+1 > preyWeight {
		preyWeight = speed + 1
	}

	var baseRow, baseCol int
	if hasPreyRelation && !organism.HasCaughtPrey() && currentStep >= s.cycleLength-1 {
		// Last-chance hunt: an organism about to end the cycle hungry
		// ignores predators and moves straight at its prey.
		baseRow, baseCol = preyRow, preyCol
	} else {
		baseRow = preyRow*preyWeight + predRow
		baseCol = preyCol*preyWeight + predCol
	}

	if rng.Float64() < randomDirectionChance {
		baseRow += rng.Intn(3) - 1
	}
	if rng.Float64() < randomDirectionChance {
		baseCol += rng.Intn(3) - 1
	}

	rowStep := clampStep(baseRow)
	colStep := clampStep(baseCol)

	// A fully stationary step is redrawn so organisms never stall in place.
	if rowStep == 0 && colStep == 0 {
		rowStep = rng.Intn(3) - 1
		colStep = rng.Intn(3) - 1
		if rowStep == 0 && colStep == 0 {
			rowStep = 2*rng.Intn(2) - 1
		}
	}

	rowDelta := clampInt(rowStep*speed, -speed, speed)
	colDelta := clampInt(colStep*speed, -speed, speed)
	return rowDelta, colDelta
}
