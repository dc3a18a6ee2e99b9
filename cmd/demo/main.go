// Demo drives a running habitat-server with a custom-built biome: a small
// tide pool food chain assembled through the client's fluent builder. Start
// the server first, then run this to watch a few cycles resolve.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/phylogen/habitat/pkg/client"
)

func tidePoolBiome() *client.BiomeBuilder {
	return client.NewBiome("tide-pool", "Tide Pool").
		Grid(8, 10).
		CycleLength(10).
		TraitNames("Camouflage", "Metabolism", "Defense").
		Level(client.NewLevel("producers", "Algae").
			Targets(0.1, 0.6, 0.4).
			Population(80).
			Generations(10).
			Bounds(50, 140).
			Immigration(0.2, 0.5, 0.3).
			Fecundity(1.2, 0.15).
			Seed(2024).
			Species(client.NewSpecies("algae-mat", "Algae Mat").
				At(2, 3).
				Share(0.6).
				Immobile()).
			Species(client.NewSpecies("sea-lettuce", "Sea Lettuce").
				At(6, 7).
				Share(0.4).
				Immobile()),
		).
		Level(client.NewLevel("primary-consumers", "Grazers").
			Targets(0.4, 0.5, 0.2).
			Population(40).
			Generations(8).
			Bounds(20, 80).
			Immigration(0.15, 0.4, 0.25).
			Fecundity(1.1, 0.1).
			Seed(2025).
			Species(client.NewSpecies("periwinkle", "Periwinkle Cluster").
				At(4, 5)),
		).
		Level(client.NewLevel("secondary-consumers", "Hunters").
			Targets(0.6, 0.5, 0.5).
			Population(20).
			Generations(6).
			Bounds(8, 40).
			Immigration(0.1, 0.35, 0.2).
			Fecundity(1.0, 0.1).
			Seed(2026).
			Species(client.NewSpecies("green-crab", "Green Crab").
				At(7, 8).
				IdealTraits(0.8, 0.5, 0.7)),
		).
		Relation("producers", nil, []string{"primary-consumers"}).
		Relation("primary-consumers", []string{"producers"}, []string{"secondary-consumers"}).
		Relation("secondary-consumers", []string{"primary-consumers"}, nil).
		Speed("producers", 1).
		Speed("primary-consumers", 2).
		Speed("secondary-consumers", 2).
		PreferredPrey("green-crab", "periwinkle")
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "habitat-server base URL")
	cycles := flag.Int("cycles", 3, "number of cycles to run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c := client.New(*serverURL)

	if err := c.ApplyBiome(ctx, tidePoolBiome()); err != nil {
		fmt.Fprintf(os.Stderr, "error applying biome: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("tide pool biome loaded")

	completed := 0
	for completed < *cycles {
		result, err := c.Step(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error stepping: %v\n", err)
			os.Exit(1)
		}
		if !result.CycleComplete {
			continue
		}
		completed++

		fmt.Printf("cycle %d complete:\n", result.CycleIndex)
		for _, entry := range result.CycleSummary {
			fmt.Printf("  %-14s caught=%-3d lost=%d\n", entry.ID, entry.CaughtPreyCount, entry.TimesCaught)
		}
	}

	history, err := c.History(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading history: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("server recorded %d cycles\n", len(history))
}
