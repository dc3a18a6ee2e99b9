package habitat

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// DefaultCycleLength is the number of ticks in one cycle when the biome
// config does not override it.
const DefaultCycleLength = 30

// levelEvolution is the per-trophic-level GA state: the flat population
// shared by all of the level's species, the reusable context, and how many
// generations to run at each cycle boundary.
type levelEvolution struct {
	population          []*Individual
	context             *EvolutionContext
	generationsPerCycle int
}

// Simulation owns the full shared habitat state. Every public operation
// serializes on one mutex; a tick is an atomic unit of work and no caller
// can observe a half-resolved cycle. Randomness comes from a single shared
// generator, so runs with a fixed seed are reproducible.
type Simulation struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger Logger

	config      *BiomeConfig
	cycleLength int

	organisms       map[OrganismID]*Organism
	order           []OrganismID
	levelByOrganism map[OrganismID]LevelID
	levelOrder      []LevelID
	homePositions   map[OrganismID]Position
	grid            GridConfig
	cycle           int

	evolution    map[LevelID]*levelEvolution
	relations    map[LevelID]RelationConfig
	speedByLevel map[LevelID]int
	behaviors    map[OrganismID]BehaviorConfig
}

// OrganismUpdate is the per-organism slice of a tick's result.
type OrganismUpdate struct {
	ID              OrganismID `json:"id"`
	Row             int        `json:"row"`
	Col             int        `json:"col"`
	CaughtPrey      bool       `json:"caughtPrey"`
	CaughtPreyCount int        `json:"caughtPreyCount"`
	WasCaught       bool       `json:"wasCaught"`
	TimesCaught     int        `json:"timesCaught"`
	CycleStep       int        `json:"cycleStep"`
	CanMove         bool       `json:"canMove"`
	Population      int        `json:"population"`
	AverageGenome   []float64  `json:"averageGenome"`
	TraitNames      []string   `json:"traitNames"`
}

// CycleSummaryEntry captures one organism's hunting outcome at the moment a
// cycle completes, before counters are reset.
type CycleSummaryEntry struct {
	ID              OrganismID `json:"id"`
	CaughtPrey      bool       `json:"caughtPrey"`
	CaughtPreyCount int        `json:"caughtPreyCount"`
	WasCaught       bool       `json:"wasCaught"`
	TimesCaught     int        `json:"timesCaught"`
}

// TickResult is the full report for one tick. CycleIndex is the cycle in
// effect during the tick; CycleSummary is empty unless the cycle completed.
type TickResult struct {
	Organisms     []OrganismUpdate    `json:"organisms"`
	CycleComplete bool                `json:"cycleComplete"`
	CycleSummary  []CycleSummaryEntry `json:"cycleSummary"`
	CycleIndex    int                 `json:"cycleIndex"`
}

// NewSimulation validates the biome config and initializes the whole
// simulation state: it runs each trophic level's initial GA burn-in,
// partitions the evolved populations across the level's species by share,
// and records home positions.
func NewSimulation(cfg *BiomeConfig, logger Logger) (*Simulation, error) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	if err := ValidateBiomeConfig(cfg); err != nil {
		return nil, err
	}

	s := &Simulation{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
		config: cfg.Clone(),
	}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// initialize (re)builds all live state from the stored biome config.
// Callers must hold the lock, except during construction.
func (s *Simulation) initialize() error {
	cfg := s.config

	s.cycleLength = cfg.CycleLength
	if s.cycleLength <= 0 {
		s.cycleLength = DefaultCycleLength
	}
	s.grid = cfg.Map
	s.cycle = 0
	s.organisms = make(map[OrganismID]*Organism)
	s.order = nil
	s.levelByOrganism = make(map[OrganismID]LevelID)
	s.levelOrder = nil
	s.homePositions = make(map[OrganismID]Position)
	s.evolution = make(map[LevelID]*levelEvolution)
	s.relations = make(map[LevelID]RelationConfig)
	s.speedByLevel = make(map[LevelID]int)
	s.behaviors = make(map[OrganismID]BehaviorConfig)

	for id, relation := range cfg.Relations {
		s.relations[id] = relation
	}
	for id, speed := range cfg.SpeedByLevel {
		s.speedByLevel[id] = speed
	}
	for id, behavior := range cfg.Behaviors {
		s.behaviors[id] = behavior
	}

	for i := range cfg.TrophicLevels {
		level := &cfg.TrophicLevels[i]
		population, evo, err := s.buildLevel(level)
		if err != nil {
			return fmt.Errorf("building level %s: %w", level.ID, err)
		}
		s.levelOrder = append(s.levelOrder, level.ID)
		s.evolution[level.ID] = evo

		organisms := s.seedLevelOrganisms(level, population)
		for _, organism := range organisms {
			organism.ResetCycle()
			s.organisms[organism.ID] = organism
			s.order = append(s.order, organism.ID)
			s.levelByOrganism[organism.ID] = level.ID
			s.homePositions[organism.ID] = organism.Pos()
		}
		s.logger.Infof("level initialized: level=%s organisms=%d population=%d",
			level.ID, len(organisms), len(evo.population))
	}
	return nil
}

// buildLevel runs the level's GA burn-in and returns the evolved population
// plus the reusable evolution state. A non-zero per-level seed gets its own
// generator so biome startup is reproducible regardless of what the shared
// generator was used for before.
func (s *Simulation) buildLevel(level *LevelConfig) ([]*Individual, *levelEvolution, error) {
	params := level.Simulation
	rng := s.rng
	if params.Seed != 0 {
		rng = rand.New(rand.NewSource(params.Seed))
	}

	population, ctx, err := PrepareEvolution(rng, params.PopulationSize, params.TargetTraits, params.Options())
	if err != nil {
		return nil, nil, err
	}
	if params.Generations > 0 {
		population = AdvancePopulation(rng, population, ctx, params.Generations)
	}

	generationsPerCycle := params.GenerationsPerCycle
	if generationsPerCycle <= 0 {
		generationsPerCycle = 1
	}
	return population, &levelEvolution{
		population:          population,
		context:             ctx,
		generationsPerCycle: generationsPerCycle,
	}, nil
}

// seedLevelOrganisms creates the level's organisms and hands each its share
// of the evolved population. Shares are rounded with every organism getting
// at least one individual; rounding drift is reconciled round-robin and any
// unassigned leftovers go to the first organism in the roster.
func (s *Simulation) seedLevelOrganisms(level *LevelConfig, population []*Individual) []*Organism {
	configs := level.Organisms
	organisms := make([]*Organism, 0, len(configs))
	makeOrganism := func(cfg SpeciesConfig) *Organism {
		organism := NewOrganism(OrganismID(cfg.ID), cfg.Name, cfg.Row, cfg.Col)
		organism.ImagePath = cfg.Image
		organism.Fecundity = level.Simulation.Fecundity
		organism.Moves = cfg.CanMove()
		organism.SetIdealTraits(level.Simulation.TargetTraits)
		organism.SetUserIdealTraits(cfg.UserIdealTraits)
		if len(cfg.TraitNames) > 0 {
			organism.SetTraitNames(cfg.TraitNames)
		} else {
			organism.SetTraitNames(level.TraitNames)
		}
		return organism
	}

	total := len(population)
	if total <= 0 {
		for _, cfg := range configs {
			organisms = append(organisms, makeOrganism(cfg))
		}
		return organisms
	}

	shares := make([]float64, len(configs))
	shareTotal := 0.0
	for i, cfg := range configs {
		shares[i] = cfg.Share
		shareTotal += cfg.Share
	}
	if shareTotal == 0 {
		shareTotal = float64(len(configs))
		if shareTotal == 0 {
			shareTotal = 1
		}
	}

	counts := make([]int, len(configs))
	for i, share := range shares {
		estimated := int(math.Round(float64(total) * share / shareTotal))
		if estimated < 1 {
			estimated = 1
		}
		counts[i] = estimated
	}
	reconcileCounts(counts, total, 1)

	index := 0
	for i, cfg := range configs {
		take := counts[i]
		if take > total-index {
			take = total - index
		}
		var assigned []*Individual
		if take > 0 {
			assigned = append([]*Individual(nil), population[index:index+take]...)
			index += take
		}
		organism := makeOrganism(cfg)
		organism.SetGenes(assigned)
		organisms = append(organisms, organism)
	}

	if index < total && len(organisms) > 0 {
		first := organisms[0]
		first.SetGenes(append(first.Genes(), population[index:]...))
	}
	return organisms
}

// reconcileCounts nudges the rounded per-member counts round-robin until
// they sum to total, never dropping a member below floor. The walk is
// bounded so a degenerate allocation cannot loop forever; any residue is
// handled by the caller's leftover rule.
func reconcileCounts(counts []int, total, floor int) {
	if len(counts) == 0 {
		return
	}
	allocated := 0
	for _, c := range counts {
		allocated += c
	}
	idx := 0
	for allocated != total {
		slot := idx % len(counts)
		if allocated < total {
			counts[slot]++
			allocated++
		} else if counts[slot] > floor {
			counts[slot]--
			allocated--
		}
		idx++
		if idx > len(counts)*8 {
			break
		}
	}
}

// Step advances the simulation one tick: plan and apply moves, resolve
// co-located captures, and, when every organism has exhausted its step
// budget, run the full cycle resolution (predation, evolution,
// repositioning, counter reset) before returning.
func (s *Simulation) Step() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.organisms) == 0 {
		return TickResult{Organisms: []OrganismUpdate{}, CycleSummary: []CycleSummaryEntry{}}
	}

	type plannedMove struct {
		id       OrganismID
		row, col int
	}
	var planned []plannedMove

	for _, id := range s.order {
		organism := s.organisms[id]
		currentStep := organism.CycleSteps()
		if currentStep >= s.cycleLength {
			continue
		}

		levelID := s.levelByOrganism[organism.ID]
		relations := s.relations[levelID]
		speed := s.speedByLevel[levelID]
		if speed <= 0 {
			speed = 1
		}

		rowDelta, colDelta := 0, 0
		if organism.Moves {
			rowDelta, colDelta = s.calculateMoveDelta(s.rng, organism, relations, currentStep, speed)
		}

		if rowDelta != 0 || colDelta != 0 {
			newRow := clampInt(organism.Row+rowDelta, 1, s.grid.Rows)
			newCol := clampInt(organism.Col+colDelta, 1, s.grid.Cols)
			if newRow != organism.Row || newCol != organism.Col {
				planned = append(planned, plannedMove{organism.ID, newRow, newCol})
			}
		}
		organism.AdvanceCycle()
	}

	// Commit all moves together so every organism planned against the same
	// snapshot of positions.
	for _, move := range planned {
		organism := s.organisms[move.id]
		organism.Row = move.row
		organism.Col = move.col
	}

	s.resolveCaptures(s.rng)

	cycleComplete := true
	for _, id := range s.order {
		if s.organisms[id].CycleSteps() < s.cycleLength {
			cycleComplete = false
			break
		}
	}

	cycleSummary := []CycleSummaryEntry{}
	cycleIndex := s.cycle

	if cycleComplete {
		for _, id := range s.order {
			organism := s.organisms[id]
			cycleSummary = append(cycleSummary, CycleSummaryEntry{
				ID:              organism.ID,
				CaughtPrey:      organism.HasCaughtPrey(),
				CaughtPreyCount: organism.CaughtPreyCount(),
				WasCaught:       organism.WasCaught(),
				TimesCaught:     organism.TimesCaught(),
			})
		}

		s.resolvePredation(s.rng)
		s.advanceEvolutionCycle()

		for _, id := range s.order {
			organism := s.organisms[id]
			if home, ok := s.homePositions[organism.ID]; ok {
				organism.SetPos(home)
			}
		}
	}

	updates := s.organismUpdates()

	if cycleComplete {
		for _, id := range s.order {
			s.organisms[id].ResetCycle()
		}
		s.cycle = cycleIndex + 1
		s.logger.Debugf("cycle complete: index=%d", cycleIndex)
	}

	return TickResult{
		Organisms:     updates,
		CycleComplete: cycleComplete,
		CycleSummary:  cycleSummary,
		CycleIndex:    cycleIndex,
	}
}

// advanceEvolutionCycle syncs each level's flat population with its members'
// post-predation gene pools, advances the GA, and redistributes the evolved
// population back across the members proportionally to their pre-advance
// share. Redistribution conserves the total exactly: rounding drift is
// reconciled round-robin and leftover individuals go to the richest member.
func (s *Simulation) advanceEvolutionCycle() {
	for _, levelID := range s.levelOrder {
		evo := s.evolution[levelID]

		var members []*Organism
		for _, id := range s.order {
			if s.levelByOrganism[id] == levelID {
				members = append(members, s.organisms[id])
			}
		}
		if len(members) == 0 {
			evo.population = nil
			continue
		}

		shareValues := make([]int, len(members))
		var aggregated []*Individual
		for i, member := range members {
			shareValues[i] = member.Size()
			aggregated = append(aggregated, member.Genes()...)
		}
		evo.population = aggregated

		var overrideTargets []float64
		for _, member := range members {
			if effective := member.EffectiveIdealTraits(); len(effective) > 0 {
				overrideTargets = copyFloats(effective)
				break
			}
		}
		evo.context.TargetTraitsOverride = overrideTargets

		if len(evo.population) == 0 {
			for _, member := range members {
				member.SetGenes(nil)
			}
			continue
		}

		if evo.generationsPerCycle > 0 {
			evo.population = AdvancePopulation(s.rng, evo.population, evo.context, evo.generationsPerCycle)
		}

		total := len(evo.population)
		if total == 0 {
			for _, member := range members {
				member.SetGenes(nil)
			}
			continue
		}

		totalShares := 0
		for _, share := range shareValues {
			totalShares += share
		}
		if totalShares <= 0 {
			for i := range shareValues {
				shareValues[i] = 1
			}
			totalShares = len(shareValues)
		}

		counts := make([]int, len(members))
		for i, share := range shareValues {
			counts[i] = int(math.Round(float64(total) * float64(share) / float64(totalShares)))
		}
		reconcileCounts(counts, total, 0)

		index := 0
		for i, member := range members {
			take := counts[i]
			if take > total-index {
				take = total - index
			}
			var assigned []*Individual
			if take > 0 {
				assigned = append([]*Individual(nil), evo.population[index:index+take]...)
				index += take
			}
			member.SetGenes(assigned)
		}

		if index < total {
			richest := members[0]
			for _, member := range members[1:] {
				if member.Size() > richest.Size() {
					richest = member
				}
			}
			richest.SetGenes(append(richest.Genes(), evo.population[index:]...))
		}
	}
}

// organismUpdates builds the per-organism report rows in insertion order.
// Callers must hold the lock.
func (s *Simulation) organismUpdates() []OrganismUpdate {
	updates := make([]OrganismUpdate, 0, len(s.order))
	for _, id := range s.order {
		organism := s.organisms[id]
		genes := organism.Genes()
		updates = append(updates, OrganismUpdate{
			ID:              organism.ID,
			Row:             organism.Row,
			Col:             organism.Col,
			CaughtPrey:      organism.HasCaughtPrey(),
			CaughtPreyCount: organism.CaughtPreyCount(),
			WasCaught:       organism.WasCaught(),
			TimesCaught:     organism.TimesCaught(),
			CycleStep:       organism.CycleSteps(),
			CanMove:         organism.Moves,
			Population:      len(genes),
			AverageGenome:   AverageGenome(genes),
			TraitNames:      organism.TraitNames(),
		})
	}
	return updates
}

// Snapshot returns the current per-organism state without advancing the
// simulation.
func (s *Simulation) Snapshot() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TickResult{
		Organisms:    s.organismUpdates(),
		CycleSummary: []CycleSummaryEntry{},
		CycleIndex:   s.cycle,
	}
}

// SpeciesReplacement describes a species swap for ReplaceFirstSpecies.
// Optional fields are only applied when set.
type SpeciesReplacement struct {
	Name            string    `json:"name"`
	ImagePath       string    `json:"image,omitempty"`
	Moves           *bool     `json:"moves,omitempty"`
	UserIdealTraits []float64 `json:"user_ideal_traits,omitempty"`
}

// ReplaceFirstSpecies swaps the first species entry of the given trophic
// level for a new one and propagates the change to the live organism. The
// level id is normalized through the alias map, falling back to an exact
// match against the biome's level ids. Returns false (without modifying
// anything) when the id is unrecognized, the roster is empty, or the name
// is blank.
func (s *Simulation) ReplaceFirstSpecies(levelRaw string, repl SpeciesReplacement) bool {
	if levelRaw == "" || repl.Name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	levelID, ok := NormalizeLevelID(levelRaw)
	if !ok {
		levelID = LevelID(levelRaw)
	}
	level := s.config.Level(levelID)
	if level == nil || len(level.Organisms) == 0 {
		return false
	}

	primary := &level.Organisms[0]
	primary.Name = repl.Name
	if repl.ImagePath != "" {
		primary.Image = repl.ImagePath
	}
	if repl.Moves != nil {
		moves := *repl.Moves
		primary.Moves = &moves
	}
	if repl.UserIdealTraits != nil {
		primary.UserIdealTraits = copyFloats(repl.UserIdealTraits)
	}

	if organism, exists := s.organisms[OrganismID(primary.ID)]; exists {
		organism.Name = repl.Name
		if repl.ImagePath != "" {
			organism.ImagePath = repl.ImagePath
		}
		if repl.Moves != nil {
			organism.Moves = *repl.Moves
		}
		if repl.UserIdealTraits != nil {
			organism.SetUserIdealTraits(repl.UserIdealTraits)
		}
	}
	s.logger.Infof("species replaced: level=%s id=%s name=%q", levelID, primary.ID, repl.Name)
	return true
}

// Reset rebuilds the whole simulation state from the stored biome config,
// keeping any species replacements applied since startup. The cycle index
// returns to zero.
func (s *Simulation) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialize()
}

// Reseed replaces the shared random generator. The lock guarantees it never
// interleaves with a tick in progress.
func (s *Simulation) Reseed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// Cycle returns the current cycle index.
func (s *Simulation) Cycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle
}

// CycleLength returns the configured number of ticks per cycle.
func (s *Simulation) CycleLength() int {
	return s.cycleLength
}

// Grid returns the habitat map dimensions.
func (s *Simulation) Grid() GridConfig {
	return s.grid
}

// BiomeID returns the id of the biome the simulation was built from.
func (s *Simulation) BiomeID() string {
	return s.config.ID
}
