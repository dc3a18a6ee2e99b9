package main

import (
	"net/http"
	"os"
	"path/filepath"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	if cfg.HistoryFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o755); err != nil {
			logger.Fatalf("Cannot create history directory: %v", err)
		}
	}

	srv := NewServer(logger, newHistoryStore(cfg.HistoryFile))
	defer srv.Close()

	biome, err := resolveStartupBiome(cfg)
	if err != nil {
		logger.Fatalf("Cannot load startup biome: %v", err)
	}
	if err := srv.SelectBiome(biome); err != nil {
		logger.Fatalf("Cannot build startup simulation: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/biomes", srv.handleListBiomes)
	mux.HandleFunc("/api/simulation/", srv.handleSimulationRoutes)
	mux.HandleFunc("/notifiers", srv.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", srv.handleNotifiersRoutes)
	mux.HandleFunc("/ws", srv.handleWebSocket)

	logger.Infof("habitat-server listening on %s (biome=%s)", cfg.Addr, biome.ID)
	logger.Fatalf("%v", http.ListenAndServe(cfg.Addr, mux))
}
