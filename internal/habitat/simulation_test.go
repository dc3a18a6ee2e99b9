package habitat

import (
	"encoding/json"
	"testing"
)

// testBiome builds a small two-level biome used across the engine tests.
// Short cycles keep the tests fast.
func testBiome() *BiomeConfig {
	return &BiomeConfig{
		ID:          "test-biome",
		Name:        "Test Biome",
		Map:         GridConfig{Rows: 8, Cols: 8},
		CycleLength: 3,
		TrophicLevels: []LevelConfig{
			{
				ID:         LevelProducers,
				Name:       "Producers",
				TraitNames: []string{"Growth", "Resilience"},
				Simulation: SimulationParams{
					Seed:                 101,
					PopulationSize:       30,
					TargetTraits:         []float64{0.5, 0.5},
					Generations:          2,
					MinPopulationSize:    10,
					MaxPopulationSize:    60,
					ImmigrationRate:      0.1,
					ImmigrationChance:    0.3,
					ImmigrationVariation: 0.2,
					Fecundity:            1.0,
					FecundityVariation:   0.1,
				},
				Organisms: []SpeciesConfig{
					{ID: "plant-a", Name: "Plant A", Row: 2, Col: 2, Share: 0.6, Moves: noMove()},
					{ID: "plant-b", Name: "Plant B", Row: 6, Col: 6, Share: 0.4},
				},
			},
			{
				ID:         LevelPrimaryConsumers,
				Name:       "Grazers",
				TraitNames: []string{"Speed", "Senses"},
				Simulation: SimulationParams{
					Seed:                 202,
					PopulationSize:       20,
					TargetTraits:         []float64{0.4, 0.6},
					Generations:          2,
					MinPopulationSize:    5,
					MaxPopulationSize:    40,
					ImmigrationRate:      0.1,
					ImmigrationChance:    0.3,
					ImmigrationVariation: 0.2,
					Fecundity:            1.0,
					FecundityVariation:   0.1,
				},
				Organisms: []SpeciesConfig{
					{ID: "grazer", Name: "Grazer", Row: 4, Col: 4, Share: 1.0},
				},
			},
		},
		Relations: map[LevelID]RelationConfig{
			LevelProducers:        {Predators: []LevelID{LevelPrimaryConsumers}},
			LevelPrimaryConsumers: {Prey: []LevelID{LevelProducers}},
		},
		SpeedByLevel: map[LevelID]int{
			LevelProducers:        1,
			LevelPrimaryConsumers: 2,
		},
	}
}

func newTestSimulation(t *testing.T) *Simulation {
	t.Helper()
	sim, err := NewSimulation(testBiome(), nil)
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}
	return sim
}

func TestNewSimulationSeeding(t *testing.T) {
	sim := newTestSimulation(t)

	if sim.Cycle() != 0 {
		t.Errorf("Expected cycle 0 at start, got %d", sim.Cycle())
	}
	if sim.CycleLength() != 3 {
		t.Errorf("Expected cycle length 3, got %d", sim.CycleLength())
	}
	if sim.BiomeID() != "test-biome" {
		t.Errorf("Expected biome id 'test-biome', got %q", sim.BiomeID())
	}
	if len(sim.order) != 3 {
		t.Fatalf("Expected 3 organisms, got %d", len(sim.order))
	}

	// Each level's evolved population is partitioned exactly across its
	// species, and every species holds at least one individual.
	for _, levelID := range sim.levelOrder {
		evo := sim.evolution[levelID]
		total := 0
		for _, id := range sim.order {
			if sim.levelByOrganism[id] != levelID {
				continue
			}
			size := sim.organisms[id].Size()
			if size < 1 {
				t.Errorf("Organism %s seeded with empty population", id)
			}
			total += size
		}
		if total != len(evo.population) {
			t.Errorf("Level %s: distributed %d individuals, population has %d",
				levelID, total, len(evo.population))
		}
	}

	if sim.organisms["plant-a"].Size() <= sim.organisms["plant-b"].Size() {
		t.Errorf("Expected plant-a (share 0.6) to outnumber plant-b (share 0.4): %d vs %d",
			sim.organisms["plant-a"].Size(), sim.organisms["plant-b"].Size())
	}

	if home := sim.homePositions["grazer"]; home.Row != 4 || home.Col != 4 {
		t.Errorf("Expected grazer home (4,4), got (%d,%d)", home.Row, home.Col)
	}
}

func TestNewSimulationRejectsInvalidConfig(t *testing.T) {
	cfg := testBiome()
	cfg.Map.Rows = 0
	if _, err := NewSimulation(cfg, nil); err == nil {
		t.Error("Expected error for invalid map")
	}

	cfg = testBiome()
	cfg.TrophicLevels[0].Simulation.Fecundity = -1
	if _, err := NewSimulation(cfg, nil); err == nil {
		t.Error("Expected error for negative fecundity")
	}
}

func TestNewSimulationDoesNotAliasConfig(t *testing.T) {
	cfg := testBiome()
	sim, err := NewSimulation(cfg, nil)
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}

	cfg.TrophicLevels[0].Organisms[0].Name = "Mutated"
	if sim.config.TrophicLevels[0].Organisms[0].Name != "Plant A" {
		t.Error("Simulation config aliases the caller's config")
	}
}

func TestStepCycleCompletion(t *testing.T) {
	sim := newTestSimulation(t)

	for step := 0; step < sim.CycleLength()-1; step++ {
		result := sim.Step()
		if result.CycleComplete {
			t.Fatalf("Cycle completed early at step %d", step)
		}
		if len(result.CycleSummary) != 0 {
			t.Fatalf("Expected empty summary before completion, got %d entries", len(result.CycleSummary))
		}
		if result.CycleIndex != 0 {
			t.Fatalf("Expected cycle index 0 during first cycle, got %d", result.CycleIndex)
		}
	}

	final := sim.Step()
	if !final.CycleComplete {
		t.Fatal("Expected cycle to complete on the last step")
	}
	if len(final.CycleSummary) != len(sim.order) {
		t.Errorf("Expected summary for all %d organisms, got %d", len(sim.order), len(final.CycleSummary))
	}
	if final.CycleIndex != 0 {
		t.Errorf("Expected completing tick to report cycle index 0, got %d", final.CycleIndex)
	}
	if sim.Cycle() != 1 {
		t.Errorf("Expected cycle counter 1 after completion, got %d", sim.Cycle())
	}

	for _, id := range sim.order {
		organism := sim.organisms[id]
		if organism.CycleSteps() != 0 {
			t.Errorf("Organism %s step counter not reset: %d", id, organism.CycleSteps())
		}
		if organism.CaughtPreyCount() != 0 || organism.TimesCaught() != 0 {
			t.Errorf("Organism %s capture counters not reset", id)
		}
		if home := sim.homePositions[id]; organism.Pos() != home {
			t.Errorf("Organism %s not at home after cycle: %+v vs %+v", id, organism.Pos(), home)
		}
	}
}

func TestStepCompletesEachCycleExactlyOnce(t *testing.T) {
	sim := newTestSimulation(t)

	completions := 0
	for i := 0; i < sim.CycleLength()*4; i++ {
		if sim.Step().CycleComplete {
			completions++
		}
	}
	if completions != 4 {
		t.Errorf("Expected exactly 4 cycle completions, got %d", completions)
	}
	if sim.Cycle() != 4 {
		t.Errorf("Expected cycle counter 4, got %d", sim.Cycle())
	}
}

func TestStepKeepsOrganismsOnGrid(t *testing.T) {
	sim := newTestSimulation(t)
	grid := sim.Grid()

	for i := 0; i < sim.CycleLength()*3; i++ {
		result := sim.Step()
		for _, update := range result.Organisms {
			if update.Row < 1 || update.Row > grid.Rows || update.Col < 1 || update.Col > grid.Cols {
				t.Fatalf("Organism %s off-grid at (%d,%d)", update.ID, update.Row, update.Col)
			}
		}
	}
}

func TestStepImmobileOrganismStaysPut(t *testing.T) {
	sim := newTestSimulation(t)
	home := sim.homePositions["plant-a"]

	for i := 0; i < sim.CycleLength()*2; i++ {
		sim.Step()
		if pos := sim.organisms["plant-a"].Pos(); pos != home {
			t.Fatalf("Immobile organism moved to %+v", pos)
		}
	}
}

func TestStepReproducibleAfterReseed(t *testing.T) {
	run := func() []byte {
		sim := newTestSimulation(t)
		sim.Reseed(999)
		var results []TickResult
		for i := 0; i < sim.CycleLength()*2; i++ {
			results = append(results, sim.Step())
		}
		data, err := json.Marshal(results)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		return data
	}

	first := run()
	second := run()
	if string(first) != string(second) {
		t.Error("Expected identical tick results for identical seeds")
	}
}

func TestSnapshotDoesNotAdvance(t *testing.T) {
	sim := newTestSimulation(t)

	snap := sim.Snapshot()
	if len(snap.Organisms) != len(sim.order) {
		t.Errorf("Expected %d organisms in snapshot, got %d", len(sim.order), len(snap.Organisms))
	}
	if snap.CycleComplete {
		t.Error("Snapshot must never report a completed cycle")
	}
	for _, update := range snap.Organisms {
		if update.CycleStep != 0 {
			t.Errorf("Snapshot advanced organism %s to step %d", update.ID, update.CycleStep)
		}
	}
}

func TestReplaceFirstSpecies(t *testing.T) {
	sim := newTestSimulation(t)

	moves := true
	ok := sim.ReplaceFirstSpecies("producer", SpeciesReplacement{
		Name:            "Algae Mat",
		ImagePath:       "images/algae.png",
		Moves:           &moves,
		UserIdealTraits: []float64{0.9, 0.1},
	})
	if !ok {
		t.Fatal("Expected replacement to succeed via level alias")
	}

	level := sim.config.Level(LevelProducers)
	primary := level.Organisms[0]
	if primary.Name != "Algae Mat" || primary.Image != "images/algae.png" {
		t.Errorf("Config not patched: %+v", primary)
	}
	if primary.Moves == nil || !*primary.Moves {
		t.Error("Config moves flag not patched")
	}

	organism := sim.organisms["plant-a"]
	if organism.Name != "Algae Mat" {
		t.Errorf("Live organism name not patched: %q", organism.Name)
	}
	if !organism.Moves {
		t.Error("Live organism moves flag not patched")
	}
	effective := organism.EffectiveIdealTraits()
	if len(effective) != 2 || effective[0] != 0.9 {
		t.Errorf("User ideal traits not applied: %v", effective)
	}
}

func TestReplaceFirstSpeciesRejections(t *testing.T) {
	sim := newTestSimulation(t)

	if sim.ReplaceFirstSpecies("", SpeciesReplacement{Name: "X"}) {
		t.Error("Expected failure for empty level")
	}
	if sim.ReplaceFirstSpecies("producers", SpeciesReplacement{}) {
		t.Error("Expected failure for empty name")
	}
	if sim.ReplaceFirstSpecies("decomposers", SpeciesReplacement{Name: "X"}) {
		t.Error("Expected failure for unknown level")
	}

	if sim.organisms["plant-a"].Name != "Plant A" {
		t.Error("Failed replacement modified the organism")
	}
}

func TestReplaceFirstSpeciesSurvivesReset(t *testing.T) {
	sim := newTestSimulation(t)

	if !sim.ReplaceFirstSpecies("producers", SpeciesReplacement{Name: "Moss Carpet"}) {
		t.Fatal("Replacement failed")
	}
	if err := sim.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if sim.organisms["plant-a"].Name != "Moss Carpet" {
		t.Errorf("Expected replacement to survive reset, got %q", sim.organisms["plant-a"].Name)
	}
}

func TestReset(t *testing.T) {
	sim := newTestSimulation(t)

	for i := 0; i < sim.CycleLength()+1; i++ {
		sim.Step()
	}
	if sim.Cycle() != 1 {
		t.Fatalf("Expected cycle 1 before reset, got %d", sim.Cycle())
	}

	if err := sim.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if sim.Cycle() != 0 {
		t.Errorf("Expected cycle 0 after reset, got %d", sim.Cycle())
	}
	for _, id := range sim.order {
		organism := sim.organisms[id]
		if organism.CycleSteps() != 0 {
			t.Errorf("Organism %s steps not reset", id)
		}
		if organism.Pos() != sim.homePositions[id] {
			t.Errorf("Organism %s not at home after reset", id)
		}
	}
}

func TestReconcileCounts(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		total  int
		floor  int
	}{
		{"deficit", []int{3, 3}, 10, 1},
		{"surplus", []int{7, 7}, 10, 1},
		{"exact", []int{5, 5}, 10, 1},
		{"single", []int{2}, 9, 0},
		{"floor zero", []int{4, 4, 4}, 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := append([]int(nil), tt.counts...)
			reconcileCounts(counts, tt.total, tt.floor)

			sum := 0
			for i, c := range counts {
				if c < tt.floor {
					t.Errorf("Count %d below floor: %d < %d", i, c, tt.floor)
				}
				sum += c
			}
			if sum != tt.total {
				t.Errorf("Expected sum %d, got %d (%v)", tt.total, sum, counts)
			}
		})
	}
}

func TestReconcileCountsBoundedWalk(t *testing.T) {
	// With every slot pinned at the floor the walk cannot reach the total;
	// it must terminate and leave the residue to the caller's leftover rule.
	counts := []int{1, 1}
	reconcileCounts(counts, 0, 1)
	if counts[0] != 1 || counts[1] != 1 {
		t.Errorf("Expected counts pinned at floor, got %v", counts)
	}
}

func TestStepResultJSONShape(t *testing.T) {
	sim := newTestSimulation(t)
	result := sim.Step()

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"organisms", "cycleComplete", "cycleSummary", "cycleIndex"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Missing top-level key %q", key)
		}
	}

	organisms, ok := decoded["organisms"].([]any)
	if !ok || len(organisms) == 0 {
		t.Fatal("Expected organism rows")
	}
	row := organisms[0].(map[string]any)
	for _, key := range []string{"id", "row", "col", "caughtPrey", "caughtPreyCount", "wasCaught",
		"timesCaught", "cycleStep", "canMove", "population", "averageGenome", "traitNames"} {
		if _, ok := row[key]; !ok {
			t.Errorf("Missing organism key %q", key)
		}
	}
}
