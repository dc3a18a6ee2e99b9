package habitat

// DefaultBiomeID is the preset selected when no biome is requested.
const DefaultBiomeID = "ocean"

// DefaultTraitNames label gene positions when a level or species supplies none.
var DefaultTraitNames = []string{"Camouflage", "Metabolism", "Defense", "Senses"}

// baseLevelSettings are the GA settings shared by every biome, keyed by level.
// Each biome preset contributes only its species rosters on top of these.
var baseLevelSettings = map[LevelID]LevelConfig{
	LevelProducers: {
		ID:   LevelProducers,
		Name: "Primary Producers",
		Simulation: SimulationParams{
			Seed:                 1024,
			PopulationSize:       160,
			TargetTraits:         []float64{0.05, 0.5, 0.4, 0.9},
			Generations:          30,
			MinPopulationSize:    120,
			MaxPopulationSize:    240,
			ImmigrationRate:      0.25,
			ImmigrationChance:    0.55,
			ImmigrationVariation: 0.35,
			Fecundity:            1.25,
			FecundityVariation:   0.20,
		},
	},
	LevelPrimaryConsumers: {
		ID:   LevelPrimaryConsumers,
		Name: "Primary Consumers",
		Simulation: SimulationParams{
			Seed:                 2048,
			PopulationSize:       110,
			TargetTraits:         []float64{0.35, 0.55, 0.15, 0.8},
			Generations:          28,
			MinPopulationSize:    80,
			MaxPopulationSize:    170,
			ImmigrationRate:      0.22,
			ImmigrationChance:    0.5,
			ImmigrationVariation: 0.3,
			Fecundity:            1.15,
			FecundityVariation:   0.18,
		},
	},
	LevelSecondaryConsumers: {
		ID:   LevelSecondaryConsumers,
		Name: "Secondary Consumers",
		Simulation: SimulationParams{
			Seed:                 4096,
			PopulationSize:       75,
			TargetTraits:         []float64{0.45, 0.6, 0.25, 0.75},
			Generations:          26,
			MinPopulationSize:    55,
			MaxPopulationSize:    120,
			ImmigrationRate:      0.18,
			ImmigrationChance:    0.45,
			ImmigrationVariation: 0.25,
			Fecundity:            1.05,
			FecundityVariation:   0.15,
		},
	},
	LevelTertiaryConsumers: {
		ID:   LevelTertiaryConsumers,
		Name: "Tertiary Consumers",
		Simulation: SimulationParams{
			Seed:                 8192,
			PopulationSize:       45,
			TargetTraits:         []float64{0.01, 0.7, 0.6, 0.75},
			Generations:          24,
			MinPopulationSize:    30,
			MaxPopulationSize:    80,
			ImmigrationRate:      0.14,
			ImmigrationChance:    0.4,
			ImmigrationVariation: 0.22,
			Fecundity:            0.95,
			FecundityVariation:   0.12,
		},
	},
	LevelApex: {
		ID:   LevelApex,
		Name: "Apex Predator",
		Simulation: SimulationParams{
			Seed:                 16384,
			PopulationSize:       25,
			TargetTraits:         []float64{0.7, 0.85, 0.45, 0.3},
			Generations:          22,
			MinPopulationSize:    15,
			MaxPopulationSize:    45,
			ImmigrationRate:      0.08,
			ImmigrationChance:    0.35,
			ImmigrationVariation: 0.18,
			Fecundity:            0.85,
			FecundityVariation:   0.1,
		},
	},
}

// DefaultTrophicRelations is the standard five-level food web.
var DefaultTrophicRelations = map[LevelID]RelationConfig{
	LevelProducers:          {Prey: nil, Predators: []LevelID{LevelPrimaryConsumers}},
	LevelPrimaryConsumers:   {Prey: []LevelID{LevelProducers}, Predators: []LevelID{LevelSecondaryConsumers}},
	LevelSecondaryConsumers: {Prey: []LevelID{LevelPrimaryConsumers, LevelProducers}, Predators: []LevelID{LevelTertiaryConsumers, LevelApex}},
	LevelTertiaryConsumers:  {Prey: []LevelID{LevelSecondaryConsumers, LevelPrimaryConsumers}, Predators: []LevelID{LevelApex}},
	LevelApex:               {Prey: []LevelID{LevelTertiaryConsumers, LevelSecondaryConsumers}, Predators: nil},
}

// DefaultSpeedByLevel gives predators a pace advantage over their prey.
var DefaultSpeedByLevel = map[LevelID]int{
	LevelApex:               3,
	LevelTertiaryConsumers:  2,
	LevelSecondaryConsumers: 2,
	LevelPrimaryConsumers:   2,
	LevelProducers:          2,
}

var oceanBehaviors = map[OrganismID]BehaviorConfig{
	"consumer-1": {PreyIDs: []OrganismID{"producer-2", "producer-1"}},
	"consumer-2": {PreyIDs: []OrganismID{"producer-2", "producer-1"}},
	"predator-2": {PreyIDs: []OrganismID{"consumer-1", "consumer-2"}},
	"predator-3": {PreyIDs: []OrganismID{"predator-1"}},
	"predator-4": {PreyIDs: []OrganismID{"predator-2"}},
	"apex-1":     {PreyIDs: []OrganismID{"predator-3", "predator-4"}},
}

var rainforestBehaviors = map[OrganismID]BehaviorConfig{
	"rf-consumer-1": {PreyIDs: []OrganismID{"rf-producer-1", "rf-producer-2"}},
	"rf-consumer-2": {PreyIDs: []OrganismID{"rf-producer-1", "rf-producer-2"}},
	"rf-predator-1": {PreyIDs: []OrganismID{"rf-consumer-1", "rf-consumer-2"}},
	"rf-predator-2": {PreyIDs: []OrganismID{"rf-consumer-2"}},
	"rf-predator-3": {PreyIDs: []OrganismID{"rf-predator-1", "rf-predator-2"}},
	"rf-predator-4": {PreyIDs: []OrganismID{"rf-predator-1", "rf-predator-2", "rf-consumer-1"}},
	"rf-apex-1":     {PreyIDs: []OrganismID{"rf-predator-3", "rf-predator-4"}},
}

// biomeRoster lists one preset's species per level plus its display metadata.
type biomeRoster struct {
	id         string
	name       string
	traitNames []string
	organisms  map[LevelID][]SpeciesConfig
	behaviors  map[OrganismID]BehaviorConfig
}

func noMove() *bool {
	v := false
	return &v
}

var biomeRosters = map[string]biomeRoster{
	"ocean": {
		id:         "ocean",
		name:       "Ocean Biome",
		traitNames: []string{"Buoyancy", "Filter Efficiency", "Armor", "Echo Sensing"},
		organisms: map[LevelID][]SpeciesConfig{
			LevelProducers: {
				{ID: "producer-1", Name: "Kelp Forest", Row: 1, Col: 4, Image: "images/sprites/ocean/alage.png", Share: 0.35, Moves: noMove(), TraitNames: []string{"Frond Growth", "Sunlight Capture", "Holdfast Strength", "Wave Tolerance"}},
				{ID: "producer-2", Name: "Plankton Bloom", Row: 3, Col: 8, Image: "images/sprites/ocean/plankton.png", Share: 0.65, TraitNames: []string{"Drift Control", "Reproduction Rate", "Nutrient Uptake", "Light Sensitivity"}},
			},
			LevelPrimaryConsumers: {
				{ID: "consumer-1", Name: "Shrimp Swarm", Row: 4, Col: 8, Image: "images/sprites/ocean/shrimp.png", Share: 0.55, TraitNames: []string{"Shell Thickness", "Filter Appendages", "Burrow Speed", "Predator Awareness"}},
				{ID: "consumer-2", Name: "Krill Cloud", Row: 7, Col: 5, Image: "images/sprites/ocean/krill.png", Share: 0.45, TraitNames: []string{"Schooling Cohesion", "Molting Rate", "Filter Efficiency", "Light Response"}},
			},
			LevelSecondaryConsumers: {
				{ID: "predator-1", Name: "Lobster Patrol", Row: 6, Col: 11, Image: "images/sprites/ocean/lobster.png", Share: 0.4, TraitNames: []string{"Claw Strength", "Carapace Armor", "Scuttle Speed", "Chemoreception"}},
				{ID: "predator-2", Name: "Jellyfish Bloom", Row: 10, Col: 2, Image: "images/sprites/ocean/jellyfish.png", Share: 0.6, TraitNames: []string{"Tentacle Length", "Nematocyst Potency", "Bell Pulsing", "Current Riding"}},
			},
			LevelTertiaryConsumers: {
				{ID: "predator-3", Name: "Seal Pod", Row: 11, Col: 12, Image: "images/sprites/ocean/seal.png", Share: 0.6, TraitNames: []string{"Blubber Thickness", "Dive Depth", "Flipper Power", "Echolocation"}},
				{ID: "predator-4", Name: "Whale Shark Pair", Row: 6, Col: 5, Image: "images/sprites/ocean/whale-shark.png", Share: 0.4, TraitNames: []string{"Gill Filtering", "Mouth Gape", "Cruise Endurance", "Thermoregulation"}},
			},
			LevelApex: {
				{ID: "apex-1", Name: "Orca Pod", Row: 8, Col: 12, Image: "images/sprites/ocean/orca.png", Share: 1.0, TraitNames: []string{"Sonar Precision", "Pack Coordination", "Burst Speed", "Bite Force"}},
			},
		},
		behaviors: oceanBehaviors,
	},
	"rainforest": {
		id:         "rainforest",
		name:       "Rainforest Biome",
		traitNames: []string{"Canopy Camouflage", "Metabolism", "Defense/Venom", "Senses"},
		organisms: map[LevelID][]SpeciesConfig{
			LevelProducers: {
				{ID: "rf-producer-1", Name: "Bamboo Grove", Row: 2, Col: 3, Image: "images/sprites/rainforest/bamboo.png", Share: 0.55, Moves: noMove(), TraitNames: []string{"Culm Growth", "Canopy Reach", "Root Spread", "Water Storage"}},
				{ID: "rf-producer-2", Name: "Coconut Cluster", Row: 5, Col: 10, Image: "images/sprites/rainforest/coconut.png", Share: 0.45, Moves: noMove(), TraitNames: []string{"Light Capture", "Fruit Yield", "Salt Tolerance", "Wind Resilience"}},
			},
			LevelPrimaryConsumers: {
				{ID: "rf-consumer-1", Name: "Aphid Swarm", Row: 4, Col: 6, Image: "images/sprites/rainforest/aphid.png", Share: 0.5, TraitNames: []string{"Sap Intake", "Reproduction Rate", "Wing Development", "Ant Signaling"}},
				{ID: "rf-consumer-2", Name: "Spider Mite Cluster", Row: 7, Col: 9, Image: "images/sprites/rainforest/spidermite.png", Share: 0.5, TraitNames: []string{"Web Density", "Leaf Hiding", "Egg Survival", "Dispersal Speed"}},
			},
			LevelSecondaryConsumers: {
				{ID: "rf-predator-1", Name: "Poison Dart Frog", Row: 6, Col: 5, Image: "images/sprites/rainforest/poisondartfrog.png", Share: 0.55, TraitNames: []string{"Skin Toxin", "Tongue Snap", "Moisture Retention", "Camouflage"}},
				{ID: "rf-predator-2", Name: "Tarantula Ambush", Row: 9, Col: 4, Image: "images/sprites/rainforest/tarantula.png", Share: 0.45, TraitNames: []string{"Venom Potency", "Silk Strength", "Pounce Speed", "Vibration Sense"}},
			},
			LevelTertiaryConsumers: {
				{ID: "rf-predator-3", Name: "Ocelot Patrol", Row: 10, Col: 13, Image: "images/sprites/rainforest/ocelot.png", Share: 0.5, TraitNames: []string{"Stealth Stalk", "Climbing Grip", "Night Vision", "Leap Power"}},
				{ID: "rf-predator-4", Name: "Canopy Anaconda", Row: 5, Col: 14, Image: "images/sprites/rainforest/anaconda.png", Share: 0.5, TraitNames: []string{"Constriction Force", "Heat Sensing", "Branch Balance", "Ambush Patience"}},
			},
			LevelApex: {
				{ID: "rf-apex-1", Name: "Jaguar Stalk", Row: 8, Col: 12, Image: "images/sprites/rainforest/jaguar.png", Share: 1.0, TraitNames: []string{"Bite Force", "Swim Ability", "Camouflage", "Sprint Speed"}},
			},
		},
		behaviors: rainforestBehaviors,
	},
}

// BiomePresetIDs returns the available preset ids in level-independent order.
func BiomePresetIDs() []string {
	return []string{"ocean", "rainforest"}
}

// BiomePreset composes a full, validated biome config for the given id.
// Unknown ids fall back to the default biome. The returned config is a fresh
// copy; callers may mutate it freely.
func BiomePreset(id string) *BiomeConfig {
	roster, ok := biomeRosters[id]
	if !ok {
		roster = biomeRosters[DefaultBiomeID]
	}
	return composeBiome(roster)
}

// composeBiome merges a roster with the shared level settings, relations, and
// speed table into a complete BiomeConfig.
func composeBiome(roster biomeRoster) *BiomeConfig {
	cfg := &BiomeConfig{
		ID:           roster.id,
		Name:         roster.name,
		Map:          GridConfig{Rows: 12, Cols: 16},
		TraitNames:   append([]string(nil), roster.traitNames...),
		Relations:    DefaultTrophicRelations,
		SpeedByLevel: DefaultSpeedByLevel,
		Behaviors:    roster.behaviors,
		CycleLength:  DefaultCycleLength,
	}

	for _, levelID := range LevelOrder {
		base, ok := baseLevelSettings[levelID]
		if !ok {
			continue
		}
		level := base.clone()
		if len(roster.traitNames) > 0 {
			level.TraitNames = append([]string(nil), roster.traitNames...)
		} else {
			level.TraitNames = append([]string(nil), DefaultTraitNames...)
		}
		level.Organisms = make([]SpeciesConfig, len(roster.organisms[levelID]))
		for i, sp := range roster.organisms[levelID] {
			level.Organisms[i] = sp.clone()
		}
		cfg.TrophicLevels = append(cfg.TrophicLevels, level)
	}

	// Clone so shared preset tables never alias a live simulation's config.
	return cfg.Clone()
}
