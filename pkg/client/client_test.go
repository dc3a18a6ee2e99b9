package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phylogen/habitat/internal/habitat"
)

func TestBiomeBuilder(t *testing.T) {
	biome := NewBiome("reef", "Coral Reef").
		Grid(10, 14).
		CycleLength(20).
		TraitNames("Camouflage", "Metabolism").
		Level(NewLevel("producers", "Corals").
			Targets(0.2, 0.8).
			Population(60).
			Generations(5).
			Bounds(30, 120).
			Immigration(0.2, 0.5, 0.3).
			Fecundity(1.2, 0.1).
			Seed(42).
			Species(NewSpecies("coral", "Staghorn Coral").
				At(3, 4).
				Share(1.0).
				Image("images/coral.png").
				Immobile()),
		).
		Level(NewLevel("primary-consumers", "Grazers").
			Targets(0.4, 0.6).
			Population(30).
			Species(NewSpecies("parrotfish", "Parrotfish School").
				At(6, 8).
				IdealTraits(0.9, 0.1)),
		).
		Relation("producers", nil, []string{"primary-consumers"}).
		Relation("primary-consumers", []string{"producers"}, nil).
		Speed("producers", 1).
		Speed("primary-consumers", 2).
		PreferredPrey("parrotfish", "coral")

	cfg := biome.Build()

	if cfg.ID != "reef" || cfg.Name != "Coral Reef" {
		t.Errorf("Identity lost: %s/%s", cfg.ID, cfg.Name)
	}
	if cfg.Map.Rows != 10 || cfg.Map.Cols != 14 {
		t.Errorf("Grid lost: %+v", cfg.Map)
	}
	if cfg.CycleLength != 20 {
		t.Errorf("Cycle length lost: %d", cfg.CycleLength)
	}
	if len(cfg.TrophicLevels) != 2 {
		t.Fatalf("Expected 2 levels, got %d", len(cfg.TrophicLevels))
	}

	producers := cfg.TrophicLevels[0]
	if producers.ID != "producers" {
		t.Errorf("Level id lost: %s", producers.ID)
	}
	if producers.Simulation.Seed != 42 || producers.Simulation.PopulationSize != 60 {
		t.Errorf("Level params lost: %+v", producers.Simulation)
	}
	if producers.Simulation.MinPopulationSize != 30 || producers.Simulation.MaxPopulationSize != 120 {
		t.Errorf("Bounds lost: %+v", producers.Simulation)
	}

	coral := producers.Organisms[0]
	if coral.CanMove() {
		t.Error("Immobile flag lost")
	}
	if coral.Row != 3 || coral.Col != 4 {
		t.Errorf("Position lost: (%d,%d)", coral.Row, coral.Col)
	}

	parrotfish := cfg.TrophicLevels[1].Organisms[0]
	if len(parrotfish.UserIdealTraits) != 2 || parrotfish.UserIdealTraits[0] != 0.9 {
		t.Errorf("Ideal traits lost: %v", parrotfish.UserIdealTraits)
	}

	if len(cfg.Relations["producers"].Predators) != 1 {
		t.Errorf("Relations lost: %+v", cfg.Relations)
	}
	if cfg.SpeedByLevel["primary-consumers"] != 2 {
		t.Errorf("Speeds lost: %+v", cfg.SpeedByLevel)
	}
	if prey := cfg.Behaviors["parrotfish"].PreyIDs; len(prey) != 1 || prey[0] != "coral" {
		t.Errorf("Behavior lost: %+v", cfg.Behaviors)
	}

	// The built config passes engine validation
	if err := habitat.ValidateBiomeConfig(cfg); err != nil {
		t.Errorf("Built biome failed validation: %v", err)
	}
}

func TestSpeciesBuilderDefaults(t *testing.T) {
	sp := NewSpecies("x", "X").At(1, 1).Build()
	if !sp.CanMove() {
		t.Error("Expected species to default to mobile")
	}
	if sp.Share != 1.0 {
		t.Errorf("Expected default share 1.0, got %v", sp.Share)
	}
}

// newTestPair spins up a fake server that records the last request and
// returns the canned response.
func newTestPair(t *testing.T, status int, response any) (*Client, *http.Request, *[]byte) {
	t.Helper()
	var lastReq http.Request
	var lastBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastReq = *r
		if r.Body != nil {
			lastBody, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(status)
		if response != nil {
			_ = json.NewEncoder(w).Encode(response)
		}
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL), &lastReq, &lastBody
}

func TestClientStep(t *testing.T) {
	canned := habitat.TickResult{
		Organisms:     []habitat.OrganismUpdate{{ID: "coral", Row: 3, Col: 4, Population: 12}},
		CycleComplete: true,
		CycleIndex:    2,
	}
	c, lastReq, _ := newTestPair(t, http.StatusOK, canned)

	result, err := c.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if lastReq.Method != http.MethodPost || lastReq.URL.Path != "/api/simulation/step" {
		t.Errorf("Unexpected request: %s %s", lastReq.Method, lastReq.URL.Path)
	}
	if !result.CycleComplete || result.CycleIndex != 2 {
		t.Errorf("Result lost in transit: %+v", result)
	}
	if len(result.Organisms) != 1 || result.Organisms[0].ID != "coral" {
		t.Errorf("Organisms lost in transit: %+v", result.Organisms)
	}
}

func TestClientState(t *testing.T) {
	c, lastReq, _ := newTestPair(t, http.StatusOK, habitat.TickResult{})

	if _, err := c.State(context.Background()); err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if lastReq.Method != http.MethodGet || lastReq.URL.Path != "/api/simulation/state" {
		t.Errorf("Unexpected request: %s %s", lastReq.Method, lastReq.URL.Path)
	}
}

func TestClientSelectBiome(t *testing.T) {
	c, lastReq, lastBody := newTestPair(t, http.StatusOK, map[string]string{"status": "ok"})

	if err := c.SelectBiome(context.Background(), "rainforest"); err != nil {
		t.Fatalf("SelectBiome failed: %v", err)
	}
	if lastReq.URL.Path != "/api/simulation/biome" {
		t.Errorf("Unexpected path: %s", lastReq.URL.Path)
	}

	var payload map[string]string
	if err := json.Unmarshal(*lastBody, &payload); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}
	if payload["id"] != "rainforest" {
		t.Errorf("Expected biome id in body, got %v", payload)
	}
}

func TestClientApplyBiome(t *testing.T) {
	c, lastReq, lastBody := newTestPair(t, http.StatusOK, map[string]string{"status": "ok"})

	biome := NewBiome("custom", "Custom").
		Level(NewLevel("producers", "Plants").
			Targets(0.5).
			Species(NewSpecies("plant", "Plant").At(1, 1)))

	if err := c.ApplyBiome(context.Background(), biome); err != nil {
		t.Fatalf("ApplyBiome failed: %v", err)
	}
	if lastReq.URL.Path != "/api/simulation/biome" {
		t.Errorf("Unexpected path: %s", lastReq.URL.Path)
	}

	var payload struct {
		Config *habitat.BiomeConfig `json:"config"`
	}
	if err := json.Unmarshal(*lastBody, &payload); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}
	if payload.Config == nil || payload.Config.ID != "custom" {
		t.Errorf("Expected inline config in body, got %+v", payload.Config)
	}
}

func TestClientSave(t *testing.T) {
	c, _, _ := newTestPair(t, http.StatusOK, map[string]any{"status": "ok", "cycle": 7})

	cycle, err := c.Save(context.Background())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if cycle != 7 {
		t.Errorf("Expected cycle 7, got %d", cycle)
	}
}

func TestClientReplaceSpecies(t *testing.T) {
	c, lastReq, lastBody := newTestPair(t, http.StatusOK, map[string]string{"status": "ok"})

	err := c.ReplaceSpecies(context.Background(), "producers", habitat.SpeciesReplacement{
		Name:            "Moss Carpet",
		UserIdealTraits: []float64{0.9, 0.1},
	})
	if err != nil {
		t.Fatalf("ReplaceSpecies failed: %v", err)
	}
	if lastReq.URL.Path != "/api/simulation/species" {
		t.Errorf("Unexpected path: %s", lastReq.URL.Path)
	}

	var payload map[string]any
	if err := json.Unmarshal(*lastBody, &payload); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}
	if payload["level"] != "producers" || payload["name"] != "Moss Carpet" {
		t.Errorf("Request body lost fields: %v", payload)
	}
}

func TestClientHistory(t *testing.T) {
	canned := map[string]any{
		"history": []habitat.HistoryEntry{{Cycle: 0}, {Cycle: 1}},
	}
	c, _, _ := newTestPair(t, http.StatusOK, canned)

	entries, err := c.History(context.Background())
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 2 || entries[1].Cycle != 1 {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestClientBiomes(t *testing.T) {
	canned := map[string]any{"biomes": []string{"ocean", "rainforest"}, "default": "ocean"}
	c, _, _ := newTestPair(t, http.StatusOK, canned)

	biomes, def, err := c.Biomes(context.Background())
	if err != nil {
		t.Fatalf("Biomes failed: %v", err)
	}
	if len(biomes) != 2 || def != "ocean" {
		t.Errorf("Unexpected response: %v / %s", biomes, def)
	}
}

func TestClientNotifiers(t *testing.T) {
	c, lastReq, _ := newTestPair(t, http.StatusOK, map[string]any{
		"notifiers": []NotifierInfo{{ID: "ws-broadcast", Type: "websocket"}},
	})

	notifiers, err := c.ListNotifiers(context.Background())
	if err != nil {
		t.Fatalf("ListNotifiers failed: %v", err)
	}
	if len(notifiers) != 1 || notifiers[0].Type != "websocket" {
		t.Errorf("Unexpected notifiers: %+v", notifiers)
	}

	if err := c.RegisterWebhook(context.Background(), "hook", "http://example.com/hook", nil); err != nil {
		t.Fatalf("RegisterWebhook failed: %v", err)
	}
	if lastReq.URL.Path != "/notifiers" || lastReq.Method != http.MethodPost {
		t.Errorf("Unexpected request: %s %s", lastReq.Method, lastReq.URL.Path)
	}

	if err := c.UnregisterNotifier(context.Background(), "hook"); err != nil {
		t.Fatalf("UnregisterNotifier failed: %v", err)
	}
	if lastReq.Method != http.MethodDelete || lastReq.URL.Path != "/notifiers/hook" {
		t.Errorf("Unexpected request: %s %s", lastReq.Method, lastReq.URL.Path)
	}
}

func TestClientErrorStatus(t *testing.T) {
	c, _, _ := newTestPair(t, http.StatusBadRequest, map[string]string{"error": "nope"})

	if _, err := c.Step(context.Background()); err == nil {
		t.Error("Expected error for non-200 status")
	}
	if err := c.Reset(context.Background()); err == nil {
		t.Error("Expected error for non-200 status")
	}
}
