package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/phylogen/habitat/internal/habitat"
)

func main() {
	var (
		biomeID   = flag.String("biome", habitat.DefaultBiomeID, "biome preset to simulate (ocean, rainforest)")
		biomeFile = flag.String("biome-file", "", "path to a YAML biome config file; overrides -biome")
		cycles    = flag.Int("cycles", 10, "number of full cycles to run")
		seed      = flag.Int64("seed", 0, "random seed; 0 leaves the run non-deterministic")
		csvOut    = flag.String("csv", "", "path to export the cycle history as CSV (optional)")
	)
	flag.Parse()

	if *cycles < 1 {
		fmt.Fprintf(os.Stderr, "error: -cycles must be at least 1\n")
		os.Exit(1)
	}

	cfg, err := loadBiome(*biomeFile, *biomeID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading biome: %v\n", err)
		os.Exit(1)
	}

	sim, err := habitat.NewSimulation(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building simulation: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		sim.Reseed(*seed)
	}

	store := habitat.NewMemoryHistoryStore()
	runCycles(sim, store, *cycles)

	printSummary(cfg, sim, store)

	if *csvOut != "" {
		if err := habitat.ExportHistoryCSV(store, *csvOut); err != nil {
			fmt.Fprintf(os.Stderr, "error exporting csv: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("history exported to %s\n", *csvOut)
	}
}

func loadBiome(path, presetID string) (*habitat.BiomeConfig, error) {
	if path != "" {
		return habitat.LoadBiomeConfig(path)
	}
	return habitat.BiomePreset(presetID), nil
}

// runCycles steps the simulation until the requested number of cycles has
// completed, recording each completed cycle in the store.
func runCycles(sim *habitat.Simulation, store habitat.HistoryStore, cycles int) {
	completed := 0
	for completed < cycles {
		result := sim.Step()
		if !result.CycleComplete {
			continue
		}
		entry := habitat.HistoryEntry{
			Cycle:     result.CycleIndex,
			Summary:   result.CycleSummary,
			Organisms: result.Organisms,
		}
		if err := store.Append(entry); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot record cycle %d: %v\n", result.CycleIndex, err)
		}
		completed++
	}
}

func printSummary(cfg *habitat.BiomeConfig, sim *habitat.Simulation, store habitat.HistoryStore) {
	entries, err := store.Entries()
	if err != nil || len(entries) == 0 {
		fmt.Println("no cycles recorded")
		return
	}
	last := entries[len(entries)-1]

	fmt.Printf("biome: %s (%s)\n", cfg.Name, cfg.ID)
	fmt.Printf("cycles completed: %d (cycle length %d)\n", len(entries), sim.CycleLength())
	fmt.Println("final populations:")
	for _, org := range last.Organisms {
		fmt.Printf("  %-14s pop=%-4d caught=%-3d lost=%-3d avg_genome=%v\n",
			org.ID, org.Population, org.CaughtPreyCount, org.TimesCaught, org.AverageGenome)
	}
}
