package habitat

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid biome: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "biome validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateBiomeConfig performs comprehensive validation of a BiomeConfig
func ValidateBiomeConfig(cfg *BiomeConfig) error {
	err := &ValidationError{}

	if cfg.ID == "" {
		err.Add("biome id is required")
	}
	if cfg.Map.Rows < 1 || cfg.Map.Cols < 1 {
		err.Add(fmt.Sprintf("map must be at least 1x1, got %dx%d", cfg.Map.Rows, cfg.Map.Cols))
	}
	if cfg.CycleLength < 0 {
		err.Add("cycle_length must not be negative")
	}
	if len(cfg.TrophicLevels) == 0 {
		err.Add("at least one trophic level is required")
	}

	// Build lookup maps for cross-reference checks
	levelIDs := make(map[LevelID]bool)
	organismIDs := make(map[OrganismID]bool)

	for i, level := range cfg.TrophicLevels {
		levelPrefix := "level at index " + fmt.Sprintf("%d", i)
		if level.ID != "" {
			levelPrefix = "level '" + string(level.ID) + "'"
		}

		if level.ID == "" {
			err.Add(levelPrefix + ": level id is required")
		} else if levelIDs[level.ID] {
			err.Add("duplicate level id: " + string(level.ID))
		} else {
			levelIDs[level.ID] = true
		}

		validateLevelSimulation(level, levelPrefix, err)

		if len(level.Organisms) == 0 {
			err.Add(levelPrefix + ": at least one species is required")
		}
		shareTotal := 0.0
		for j, sp := range level.Organisms {
			speciesPrefix := levelPrefix + " species at index " + fmt.Sprintf("%d", j)
			if sp.ID != "" {
				speciesPrefix = levelPrefix + " species '" + sp.ID + "'"
			}

			if sp.ID == "" {
				err.Add(speciesPrefix + ": species id is required")
			} else if organismIDs[OrganismID(sp.ID)] {
				err.Add("duplicate species id: " + sp.ID)
			} else {
				organismIDs[OrganismID(sp.ID)] = true
			}
			if sp.Name == "" {
				err.Add(speciesPrefix + ": species name is required")
			}
			if sp.Share < 0 {
				err.Add(speciesPrefix + ": share must not be negative")
			}
			shareTotal += sp.Share
			if sp.Row < 1 || sp.Row > cfg.Map.Rows || sp.Col < 1 || sp.Col > cfg.Map.Cols {
				err.Add(speciesPrefix + fmt.Sprintf(": position (%d,%d) is outside the %dx%d map", sp.Row, sp.Col, cfg.Map.Rows, cfg.Map.Cols))
			}
			traitCount := len(level.Simulation.TargetTraits)
			if len(sp.UserIdealTraits) > 0 && len(sp.UserIdealTraits) != traitCount {
				err.Add(speciesPrefix + fmt.Sprintf(": user_ideal_traits has %d values, level has %d traits", len(sp.UserIdealTraits), traitCount))
			}
			for _, v := range sp.UserIdealTraits {
				if v < 0 || v > 1 {
					err.Add(speciesPrefix + fmt.Sprintf(": user ideal trait %g is outside [0, 1]", v))
					break
				}
			}
		}
		if len(level.Organisms) > 0 && shareTotal <= 0 {
			err.Add(levelPrefix + ": species shares must sum to a positive value")
		}
	}

	// Relations must point at declared levels
	for id, relation := range cfg.Relations {
		relationPrefix := "relations for level '" + string(id) + "'"
		if !levelIDs[id] {
			err.Add(relationPrefix + ": level does not exist")
		}
		for _, prey := range relation.Prey {
			if !levelIDs[prey] {
				err.Add(relationPrefix + ": prey level '" + string(prey) + "' does not exist")
			}
		}
		for _, predator := range relation.Predators {
			if !levelIDs[predator] {
				err.Add(relationPrefix + ": predator level '" + string(predator) + "' does not exist")
			}
		}
	}

	for id, speed := range cfg.SpeedByLevel {
		if !levelIDs[id] {
			err.Add("speed entry for unknown level '" + string(id) + "'")
		}
		if speed < 1 {
			err.Add("speed for level '" + string(id) + "' must be at least 1")
		}
	}

	// Behavior overrides must reference declared organisms
	for id, behavior := range cfg.Behaviors {
		behaviorPrefix := "behavior for organism '" + string(id) + "'"
		if !organismIDs[id] {
			err.Add(behaviorPrefix + ": organism does not exist")
		}
		for _, prey := range behavior.PreyIDs {
			if !organismIDs[prey] {
				err.Add(behaviorPrefix + ": prey organism '" + string(prey) + "' does not exist")
			}
		}
		for _, predator := range behavior.PredatorIDs {
			if !organismIDs[predator] {
				err.Add(behaviorPrefix + ": predator organism '" + string(predator) + "' does not exist")
			}
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

// validateLevelSimulation checks the GA settings of one level
func validateLevelSimulation(level LevelConfig, prefix string, err *ValidationError) {
	sim := level.Simulation

	if sim.PopulationSize < 1 {
		err.Add(prefix + ": population_size must be at least 1")
	}
	if len(sim.TargetTraits) == 0 {
		err.Add(prefix + ": target_traits is required")
	}
	for _, v := range sim.TargetTraits {
		if v < 0 || v > 1 {
			err.Add(prefix + fmt.Sprintf(": target trait %g is outside [0, 1]", v))
			break
		}
	}
	if sim.Generations < 0 {
		err.Add(prefix + ": generations must not be negative")
	}
	if sim.GenerationsPerCycle < 0 {
		err.Add(prefix + ": generations_per_cycle must not be negative")
	}
	if sim.MinPopulationSize < 0 || sim.MaxPopulationSize < 0 {
		err.Add(prefix + ": population bounds must not be negative")
	}
	if sim.MinPopulationSize > 0 && sim.MaxPopulationSize > 0 && sim.MinPopulationSize > sim.MaxPopulationSize {
		err.Add(prefix + fmt.Sprintf(": min_population_size %d exceeds max_population_size %d", sim.MinPopulationSize, sim.MaxPopulationSize))
	}
	if sim.ImmigrationRate < 0 || sim.ImmigrationChance < 0 || sim.ImmigrationChance > 1 {
		err.Add(prefix + ": immigration settings are out of range")
	}
	if sim.Fecundity < 0 {
		err.Add(prefix + ": fecundity must not be negative")
	}
	if sim.FecundityVariation < 0 {
		err.Add(prefix + ": fecundity_variation must not be negative")
	}
	if len(level.TraitNames) > 0 && len(level.TraitNames) != len(sim.TargetTraits) {
		err.Add(prefix + fmt.Sprintf(": trait_names has %d entries, target_traits has %d", len(level.TraitNames), len(sim.TargetTraits)))
	}
}
