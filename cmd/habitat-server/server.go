package main

import (
	"fmt"

	"github.com/phylogen/habitat/internal/habitat"
	habitatnotifiers "github.com/phylogen/habitat/internal/habitat/notifiers"
)

// simulationKey is the key the single hosted simulation lives under in the
// manager. The manager supports more, but the HTTP API exposes one shared
// habitat that every client observes.
const simulationKey = "main"

// Server represents the HTTP server hosting the shared habitat simulation
type Server struct {
	manager     *habitat.SimulationManager
	notifierMgr *habitat.NotificationManager
	history     habitat.HistoryStore
	wsNotifier  *habitatnotifiers.WebSocketNotifier
	logger      *Logger
}

// NewServer creates a new server instance. The websocket broadcaster is
// registered up front so cycle events always have a live outlet.
func NewServer(logger *Logger, history habitat.HistoryStore) *Server {
	notifierMgr := habitat.NewNotificationManager()
	ws := habitatnotifiers.NewWebSocketNotifier("ws-broadcast")
	if err := notifierMgr.RegisterNotifier(ws); err != nil {
		logger.Errorf("Failed to register websocket notifier: %v", err)
	}

	return &Server{
		manager:     habitat.NewSimulationManager(),
		notifierMgr: notifierMgr,
		history:     history,
		wsNotifier:  ws,
		logger:      logger,
	}
}

// SelectBiome replaces the hosted simulation with a fresh one built from the
// given biome config and clears the recorded history.
func (s *Server) SelectBiome(cfg *habitat.BiomeConfig) error {
	if _, err := s.manager.ReplaceSimulation(simulationKey, cfg, s.logger); err != nil {
		return err
	}
	if err := s.history.Clear(); err != nil {
		s.logger.Warnf("Failed to clear history on biome select: %v", err)
	}
	s.logger.Infof("Biome selected: id=%s", cfg.ID)
	return nil
}

// simulation returns the hosted simulation, or an error when no biome has
// been selected yet.
func (s *Server) simulation() (*habitat.Simulation, error) {
	sim, exists := s.manager.GetSimulation(simulationKey)
	if !exists {
		return nil, fmt.Errorf("no biome selected")
	}
	return sim, nil
}

// Close shuts down the notification pipeline.
func (s *Server) Close() error {
	return s.notifierMgr.Close()
}
