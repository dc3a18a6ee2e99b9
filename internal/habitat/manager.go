package habitat

import (
	"fmt"
	"sync"
)

// SimulationManager manages multiple simulations, each isolated from others.
// The server uses it to host one simulation per biome.
type SimulationManager struct {
	mu          sync.RWMutex
	simulations map[string]*Simulation
}

// NewSimulationManager creates a new simulation manager
func NewSimulationManager() *SimulationManager {
	return &SimulationManager{
		simulations: make(map[string]*Simulation),
	}
}

// CreateSimulation creates a new simulation with the given key and biome config.
// Returns an error if a simulation with that key already exists.
func (sm *SimulationManager) CreateSimulation(key string, cfg *BiomeConfig, logger Logger) (*Simulation, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.simulations[key]; exists {
		return nil, fmt.Errorf("simulation with key %s already exists", key)
	}

	sim, err := NewSimulation(cfg, logger)
	if err != nil {
		return nil, err
	}
	sm.simulations[key] = sim
	return sim, nil
}

// ReplaceSimulation creates a fresh simulation under the given key, discarding
// any existing one. Used when a biome is re-selected.
func (sm *SimulationManager) ReplaceSimulation(key string, cfg *BiomeConfig, logger Logger) (*Simulation, error) {
	sim, err := NewSimulation(cfg, logger)
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	sm.simulations[key] = sim
	sm.mu.Unlock()
	return sim, nil
}

// GetSimulation retrieves a simulation by key.
// Returns the simulation and a boolean indicating if it was found.
func (sm *SimulationManager) GetSimulation(key string) (*Simulation, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sim, exists := sm.simulations[key]
	return sim, exists
}

// DeleteSimulation removes a simulation by key.
// Returns an error if the simulation doesn't exist.
func (sm *SimulationManager) DeleteSimulation(key string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.simulations[key]; !exists {
		return fmt.Errorf("simulation with key %s does not exist", key)
	}

	delete(sm.simulations, key)
	return nil
}

// ListSimulations returns a list of all simulation keys
func (sm *SimulationManager) ListSimulations() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := make([]string, 0, len(sm.simulations))
	for key := range sm.simulations {
		keys = append(keys, key)
	}
	return keys
}
