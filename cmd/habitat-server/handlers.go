package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/phylogen/habitat/internal/habitat"
	habitatnotifiers "github.com/phylogen/habitat/internal/habitat/notifiers"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GET /api/biomes
// List the available biome presets
func (s *Server) handleListBiomes(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"biomes":  habitat.BiomePresetIDs(),
		"default": habitat.DefaultBiomeID,
	}
	writeJSON(w, s.logger, response)
}

// POST /api/simulation/biome
// Body: { "id": "ocean" } to load a preset, or { "config": { ... } } for a
// full inline biome config. Replaces the running simulation and clears
// recorded history.
type selectBiomeRequest struct {
	ID     string               `json:"id"`
	Config *habitat.BiomeConfig `json:"config,omitempty"`
}

func (s *Server) handleSelectBiome(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req selectBiomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	var cfg *habitat.BiomeConfig
	switch {
	case req.Config != nil:
		if err := habitat.ValidateBiomeConfig(req.Config); err != nil {
			http.Error(w, "invalid biome config: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg = req.Config
	case req.ID != "":
		cfg = habitat.BiomePreset(req.ID)
	default:
		http.Error(w, "biome id or config is required", http.StatusBadRequest)
		return
	}

	if err := s.SelectBiome(cfg); err != nil {
		s.logger.Errorf("Failed to select biome: id=%s error=%v", cfg.ID, err)
		http.Error(w, "cannot build simulation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.logger, map[string]string{"status": "ok", "biome": cfg.ID})
}

// POST /api/simulation/step
// Advance the simulation one tick. When the tick completes a cycle, the
// result is recorded in the history store and broadcast to all notifiers.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sim, err := s.simulation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := sim.Step()

	if result.CycleComplete {
		entry := habitat.HistoryEntry{
			Cycle:     result.CycleIndex,
			Summary:   result.CycleSummary,
			Organisms: result.Organisms,
		}
		if err := s.history.Append(entry); err != nil {
			s.logger.Errorf("Failed to record cycle history: cycle=%d error=%v", result.CycleIndex, err)
		}

		event := habitat.NewCycleEvent(sim.BiomeID(), result)
		s.notifierMgr.Enqueue(event, s.notifierMgr.ListNotifiers())
		s.logger.Debugf("Cycle event enqueued: cycle=%d", result.CycleIndex)
	}

	writeJSON(w, s.logger, result)
}

// GET /api/simulation/state
// Current per-organism state without advancing the simulation
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sim, err := s.simulation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, s.logger, sim.Snapshot())
}

// POST /api/simulation/save
// Records the current snapshot in the history store under the current cycle
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sim, err := s.simulation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot := sim.Snapshot()
	entry := habitat.HistoryEntry{
		Cycle:     snapshot.CycleIndex,
		Summary:   snapshot.CycleSummary,
		Organisms: snapshot.Organisms,
	}
	if err := s.history.Append(entry); err != nil {
		s.logger.Errorf("Failed to save history: cycle=%d error=%v", entry.Cycle, err)
		http.Error(w, "failed to save: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Infof("Simulation state saved: cycle=%d", entry.Cycle)
	writeJSON(w, s.logger, map[string]any{"status": "ok", "cycle": entry.Cycle})
}

// POST /api/simulation/reset
// Rebuilds the simulation from its biome config and clears history
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sim, err := s.simulation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := sim.Reset(); err != nil {
		s.logger.Errorf("Failed to reset simulation: %v", err)
		http.Error(w, "failed to reset: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.history.Clear(); err != nil {
		s.logger.Warnf("Failed to clear history on reset: %v", err)
	}

	s.logger.Infof("Simulation reset: biome=%s", sim.BiomeID())
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// POST /api/simulation/species
// Body: { "level": "producers", "name": "...", "image": "...",
//         "moves": true, "user_ideal_traits": [...] }
// Swaps the first species of the given trophic level.
type replaceSpeciesRequest struct {
	Level string `json:"level"`
	habitat.SpeciesReplacement
}

func (s *Server) handleReplaceSpecies(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	sim, err := s.simulation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req replaceSpeciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !sim.ReplaceFirstSpecies(req.Level, req.SpeciesReplacement) {
		http.Error(w, "unknown trophic level or missing species name", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GET /api/simulation/history
// All recorded cycles in ascending order
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Entries()
	if err != nil {
		s.logger.Errorf("Failed to read history: %v", err)
		http.Error(w, "failed to read history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []habitat.HistoryEntry{}
	}
	writeJSON(w, s.logger, map[string]any{"history": entries})
}

// GET /api/simulation/export
// Streams the recorded history as CSV
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Entries()
	if err != nil {
		http.Error(w, "failed to read history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(entries) == 0 {
		http.Error(w, habitat.ErrNoHistory.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="history.csv"`)

	writer := habitat.NewHistoryWriter(w)
	for _, entry := range entries {
		if err := writer.WriteEntry(entry); err != nil {
			s.logger.Errorf("Failed to stream history csv: %v", err)
			return
		}
	}
}

// GET /ws
// Upgrades the connection and subscribes it to cycle event broadcasts
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.wsNotifier.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	s.wsNotifier.RegisterClient(conn)
	s.logger.Debugf("WebSocket client connected: remote=%s", r.RemoteAddr)
}

// handleSimulationRoutes routes /api/simulation/... requests
func (s *Server) handleSimulationRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/simulation")

	switch {
	case path == "/biome" && r.Method == http.MethodPost:
		s.handleSelectBiome(w, r)
	case path == "/step" && r.Method == http.MethodPost:
		s.handleStep(w, r)
	case path == "/state" && r.Method == http.MethodGet:
		s.handleState(w, r)
	case path == "/save" && r.Method == http.MethodPost:
		s.handleSave(w, r)
	case path == "/reset" && r.Method == http.MethodPost:
		s.handleReset(w, r)
	case path == "/species" && r.Method == http.MethodPost:
		s.handleReplaceSpecies(w, r)
	case path == "/history" && r.Method == http.MethodGet:
		s.handleHistory(w, r)
	case path == "/export" && r.Method == http.MethodGet:
		s.handleExport(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
// List all registered notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.notifierMgr.ListNotifiers()

	notifiers := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.notifierMgr.GetNotifier(id)
		if exists {
			notifiers = append(notifiers, map[string]string{
				"id":   id,
				"type": notifier.Type(),
			})
		}
	}

	writeJSON(w, s.logger, map[string]any{"notifiers": notifiers})
}

// POST /notifiers
// Register a new webhook notifier
// Body: { "id": "my-webhook", "url": "http://...", "headers": { ... } }
type registerNotifierRequest struct {
	ID      string            `json:"id"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.URL == "" {
		http.Error(w, "notifier id and url are required", http.StatusBadRequest)
		return
	}

	notifier := habitatnotifiers.NewWebhookNotifier(req.ID, req.URL)
	for key, value := range req.Headers {
		notifier.SetHeader(key, value)
	}

	if err := s.notifierMgr.RegisterNotifier(notifier); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	// Verify the endpoint is reachable before confirming registration
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	probe := habitat.NewCycleEvent("probe", habitat.TickResult{})
	if err := notifier.Notify(ctx, probe); err != nil {
		s.logger.Warnf("Webhook probe failed: id=%s error=%v", req.ID, err)
	}

	s.logger.Infof("Notifier registered: id=%s url=%s", req.ID, req.URL)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
// Unregister a notifier
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	if err := s.notifierMgr.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

func writeJSON(w http.ResponseWriter, logger *Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; all we can do is log it
		logger.Errorf("Failed to encode response: %v", err)
	}
}
