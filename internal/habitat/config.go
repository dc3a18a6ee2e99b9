package habitat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LevelID identifies a trophic level (a tier in the food chain).
type LevelID string

// GridConfig describes the habitat map. Coordinates are 1-indexed inclusive.
type GridConfig struct {
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`
}

// SimulationParams are the per-level genetic algorithm settings.
// Seed drives the level's initial population burn-in; 0 means use the
// simulation's shared generator.
type SimulationParams struct {
	Seed                int64     `json:"seed,omitempty" yaml:"seed,omitempty"`
	PopulationSize      int       `json:"population_size" yaml:"population_size"`
	TargetTraits        []float64 `json:"target_traits" yaml:"target_traits"`
	Generations         int       `json:"generations" yaml:"generations"`
	GenerationsPerCycle int       `json:"generations_per_cycle,omitempty" yaml:"generations_per_cycle,omitempty"`

	MinPopulationSize    int     `json:"min_population_size" yaml:"min_population_size"`
	MaxPopulationSize    int     `json:"max_population_size" yaml:"max_population_size"`
	ImmigrationRate      float64 `json:"immigration_rate" yaml:"immigration_rate"`
	ImmigrationChance    float64 `json:"immigration_chance" yaml:"immigration_chance"`
	ImmigrationVariation float64 `json:"immigration_variation" yaml:"immigration_variation"`
	Fecundity            float64 `json:"fecundity" yaml:"fecundity"`
	FecundityVariation   float64 `json:"fecundity_variation" yaml:"fecundity_variation"`
}

// Options converts the params into evolution knobs, keeping the canonical
// defaults for the operator probabilities the config does not expose.
func (p SimulationParams) Options() EvolutionOptions {
	opts := DefaultEvolutionOptions()
	opts.MinPopulationSize = p.MinPopulationSize
	opts.MaxPopulationSize = p.MaxPopulationSize
	opts.ImmigrationRate = p.ImmigrationRate
	opts.ImmigrationChance = p.ImmigrationChance
	opts.ImmigrationVariation = p.ImmigrationVariation
	opts.Fecundity = p.Fecundity
	opts.FecundityVariation = p.FecundityVariation
	return opts
}

// SpeciesConfig describes one species entry in a trophic level's roster.
type SpeciesConfig struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Row   int    `json:"row" yaml:"row"`
	Col   int    `json:"col" yaml:"col"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
	// Share is this species' proportional claim on the level population.
	Share float64 `json:"share" yaml:"share"`
	// Moves defaults to true when omitted.
	Moves           *bool     `json:"moves,omitempty" yaml:"moves,omitempty"`
	TraitNames      []string  `json:"trait_names,omitempty" yaml:"trait_names,omitempty"`
	UserIdealTraits []float64 `json:"user_ideal_traits,omitempty" yaml:"user_ideal_traits,omitempty"`
}

// CanMove resolves the optional mobility flag.
func (s SpeciesConfig) CanMove() bool {
	if s.Moves == nil {
		return true
	}
	return *s.Moves
}

// LevelConfig is a fully resolved trophic level: identity, trait labels,
// GA settings, and the species roster.
type LevelConfig struct {
	ID         LevelID          `json:"id" yaml:"id"`
	Name       string           `json:"name" yaml:"name"`
	TraitNames []string         `json:"trait_names" yaml:"trait_names"`
	Simulation SimulationParams `json:"simulation" yaml:"simulation"`
	Organisms  []SpeciesConfig  `json:"organisms" yaml:"organisms"`
}

// RelationConfig lists the prey and predator levels for one trophic level.
type RelationConfig struct {
	Prey      []LevelID `json:"prey" yaml:"prey"`
	Predators []LevelID `json:"predators" yaml:"predators"`
}

// BehaviorConfig holds explicit per-organism prey/predator id overrides that
// take precedence over level-based relations during target lookup.
type BehaviorConfig struct {
	PreyIDs     []OrganismID `json:"prey_ids,omitempty" yaml:"prey_ids,omitempty"`
	PredatorIDs []OrganismID `json:"predator_ids,omitempty" yaml:"predator_ids,omitempty"`
}

// BiomeConfig is the complete, validated input the engine consumes when a
// biome is selected.
type BiomeConfig struct {
	ID            string                        `json:"id" yaml:"id"`
	Name          string                        `json:"name" yaml:"name"`
	Map           GridConfig                    `json:"map" yaml:"map"`
	TraitNames    []string                      `json:"trait_names,omitempty" yaml:"trait_names,omitempty"`
	TrophicLevels []LevelConfig                 `json:"trophic_levels" yaml:"trophic_levels"`
	Relations     map[LevelID]RelationConfig    `json:"relations" yaml:"relations"`
	SpeedByLevel  map[LevelID]int               `json:"speed_by_level" yaml:"speed_by_level"`
	Behaviors     map[OrganismID]BehaviorConfig `json:"behaviors,omitempty" yaml:"behaviors,omitempty"`
	// CycleLength is the number of ticks per cycle; defaults to
	// DefaultCycleLength when zero.
	CycleLength int `json:"cycle_length,omitempty" yaml:"cycle_length,omitempty"`
}

// LoadBiomeConfig reads and validates a biome configuration from a YAML file.
func LoadBiomeConfig(path string) (*BiomeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading biome config: %w", err)
	}
	var cfg BiomeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing biome config: %w", err)
	}
	if err := ValidateBiomeConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteYAML saves the biome configuration to a YAML file.
func (c *BiomeConfig) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding biome config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Level returns the trophic level with the given id, or nil.
func (c *BiomeConfig) Level(id LevelID) *LevelConfig {
	for i := range c.TrophicLevels {
		if c.TrophicLevels[i].ID == id {
			return &c.TrophicLevels[i]
		}
	}
	return nil
}
