// Package client provides a Go client for the habitat-server HTTP API,
// plus a fluent builder for assembling custom biome configurations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/phylogen/habitat/internal/habitat"
)

// Client talks to a habitat-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// SetHTTPClient replaces the underlying HTTP client, for custom timeouts
// or transports.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// Biomes returns the available biome preset ids and the server default.
func (c *Client) Biomes(ctx context.Context) ([]string, string, error) {
	var response struct {
		Biomes  []string `json:"biomes"`
		Default string   `json:"default"`
	}
	if err := c.getJSON(ctx, "/api/biomes", &response); err != nil {
		return nil, "", err
	}
	return response.Biomes, response.Default, nil
}

// SelectBiome loads a biome preset by id, replacing the running simulation.
func (c *Client) SelectBiome(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/api/simulation/biome", map[string]string{"id": id}, nil)
}

// ApplyBiome sends a full biome configuration to the server, replacing the
// running simulation. Accepts a *BiomeBuilder or a ready config.
func (c *Client) ApplyBiome(ctx context.Context, biome *BiomeBuilder) error {
	return c.ApplyBiomeConfig(ctx, biome.Build())
}

// ApplyBiomeConfig sends an already-built biome configuration to the server.
func (c *Client) ApplyBiomeConfig(ctx context.Context, cfg *habitat.BiomeConfig) error {
	return c.postJSON(ctx, "/api/simulation/biome", map[string]any{"config": cfg}, nil)
}

// Step advances the simulation one tick and returns the tick result.
func (c *Client) Step(ctx context.Context) (habitat.TickResult, error) {
	var result habitat.TickResult
	err := c.postJSON(ctx, "/api/simulation/step", nil, &result)
	return result, err
}

// State returns the current per-organism state without advancing time.
func (c *Client) State(ctx context.Context) (habitat.TickResult, error) {
	var result habitat.TickResult
	err := c.getJSON(ctx, "/api/simulation/state", &result)
	return result, err
}

// Save records the current snapshot in the server's history store and
// returns the cycle index it was stored under.
func (c *Client) Save(ctx context.Context) (int, error) {
	var response struct {
		Cycle int `json:"cycle"`
	}
	err := c.postJSON(ctx, "/api/simulation/save", nil, &response)
	return response.Cycle, err
}

// Reset rebuilds the simulation from its biome config and clears history.
func (c *Client) Reset(ctx context.Context) error {
	return c.postJSON(ctx, "/api/simulation/reset", nil, nil)
}

// ReplaceSpecies swaps the first species of the given trophic level.
func (c *Client) ReplaceSpecies(ctx context.Context, level string, repl habitat.SpeciesReplacement) error {
	payload := struct {
		Level string `json:"level"`
		habitat.SpeciesReplacement
	}{Level: level, SpeciesReplacement: repl}
	return c.postJSON(ctx, "/api/simulation/species", payload, nil)
}

// History returns all recorded cycles in ascending order.
func (c *Client) History(ctx context.Context) ([]habitat.HistoryEntry, error) {
	var response struct {
		History []habitat.HistoryEntry `json:"history"`
	}
	if err := c.getJSON(ctx, "/api/simulation/history", &response); err != nil {
		return nil, err
	}
	return response.History, nil
}

// ExportCSV fetches the recorded history as raw CSV bytes.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/simulation/export", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// NotifierInfo describes one registered notifier.
type NotifierInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ListNotifiers returns the notifiers registered on the server.
func (c *Client) ListNotifiers(ctx context.Context) ([]NotifierInfo, error) {
	var response struct {
		Notifiers []NotifierInfo `json:"notifiers"`
	}
	if err := c.getJSON(ctx, "/notifiers", &response); err != nil {
		return nil, err
	}
	return response.Notifiers, nil
}

// RegisterWebhook registers a webhook notifier that receives cycle events.
func (c *Client) RegisterWebhook(ctx context.Context, id, webhookURL string, headers map[string]string) error {
	payload := map[string]any{"id": id, "url": webhookURL}
	if len(headers) > 0 {
		payload["headers"] = headers
	}
	return c.postJSON(ctx, "/notifiers", payload, nil)
}

// UnregisterNotifier removes a notifier by id.
func (c *Client) UnregisterNotifier(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/notifiers/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// BiomeBuilder provides a fluent API for assembling biome configurations.
// Use it to define trophic levels, species rosters, relations, and movement
// speeds before applying the biome to a server.
type BiomeBuilder struct {
	id          string
	name        string
	rows, cols  int
	cycleLength int
	traitNames  []string
	levels      []*LevelBuilder
	relations   map[habitat.LevelID]habitat.RelationConfig
	speeds      map[habitat.LevelID]int
	behaviors   map[habitat.OrganismID]habitat.BehaviorConfig
}

// NewBiome creates a new biome builder with the given id and display name.
func NewBiome(id, name string) *BiomeBuilder {
	return &BiomeBuilder{
		id:        id,
		name:      name,
		rows:      12,
		cols:      16,
		relations: make(map[habitat.LevelID]habitat.RelationConfig),
		speeds:    make(map[habitat.LevelID]int),
		behaviors: make(map[habitat.OrganismID]habitat.BehaviorConfig),
	}
}

// Grid sets the habitat map dimensions. Defaults to 12x16.
func (bb *BiomeBuilder) Grid(rows, cols int) *BiomeBuilder {
	bb.rows = rows
	bb.cols = cols
	return bb
}

// CycleLength sets the number of ticks per cycle. Zero uses the engine default.
func (bb *BiomeBuilder) CycleLength(ticks int) *BiomeBuilder {
	bb.cycleLength = ticks
	return bb
}

// TraitNames sets the biome-wide gene position labels.
func (bb *BiomeBuilder) TraitNames(names ...string) *BiomeBuilder {
	bb.traitNames = names
	return bb
}

// Level adds a trophic level to the biome.
func (bb *BiomeBuilder) Level(lb *LevelBuilder) *BiomeBuilder {
	bb.levels = append(bb.levels, lb)
	return bb
}

// Relation declares which levels a level eats and is eaten by.
func (bb *BiomeBuilder) Relation(level string, prey, predators []string) *BiomeBuilder {
	bb.relations[habitat.LevelID(level)] = habitat.RelationConfig{
		Prey:      toLevelIDs(prey),
		Predators: toLevelIDs(predators),
	}
	return bb
}

// Speed sets the per-tick movement speed for a level.
func (bb *BiomeBuilder) Speed(level string, speed int) *BiomeBuilder {
	bb.speeds[habitat.LevelID(level)] = speed
	return bb
}

// PreferredPrey records an explicit prey preference for one organism,
// overriding its level relations during target selection.
func (bb *BiomeBuilder) PreferredPrey(organismID string, preyIDs ...string) *BiomeBuilder {
	behavior := bb.behaviors[habitat.OrganismID(organismID)]
	for _, id := range preyIDs {
		behavior.PreyIDs = append(behavior.PreyIDs, habitat.OrganismID(id))
	}
	bb.behaviors[habitat.OrganismID(organismID)] = behavior
	return bb
}

// Build converts the builder to a BiomeConfig that can be used with
// ApplyBiome or the engine directly.
func (bb *BiomeBuilder) Build() *habitat.BiomeConfig {
	levels := make([]habitat.LevelConfig, 0, len(bb.levels))
	for _, lb := range bb.levels {
		levels = append(levels, lb.Build())
	}

	cfg := &habitat.BiomeConfig{
		ID:            bb.id,
		Name:          bb.name,
		Map:           habitat.GridConfig{Rows: bb.rows, Cols: bb.cols},
		TraitNames:    bb.traitNames,
		TrophicLevels: levels,
		CycleLength:   bb.cycleLength,
	}
	if len(bb.relations) > 0 {
		cfg.Relations = bb.relations
	}
	if len(bb.speeds) > 0 {
		cfg.SpeedByLevel = bb.speeds
	}
	if len(bb.behaviors) > 0 {
		cfg.Behaviors = bb.behaviors
	}
	return cfg
}

func toLevelIDs(names []string) []habitat.LevelID {
	if len(names) == 0 {
		return nil
	}
	ids := make([]habitat.LevelID, len(names))
	for i, name := range names {
		ids[i] = habitat.LevelID(name)
	}
	return ids
}

// LevelBuilder provides a fluent API for building one trophic level:
// its GA settings and the species that share its population.
type LevelBuilder struct {
	id         string
	name       string
	traitNames []string
	params     habitat.SimulationParams
	species    []*SpeciesBuilder
}

// NewLevel creates a new level builder with the given id and display name.
func NewLevel(id, name string) *LevelBuilder {
	return &LevelBuilder{
		id:   id,
		name: name,
		params: habitat.SimulationParams{
			PopulationSize: 50,
			Fecundity:      1.0,
		},
	}
}

// Targets sets the ideal trait values the level's population evolves toward.
// Values must be in [0, 1].
func (lb *LevelBuilder) Targets(values ...float64) *LevelBuilder {
	lb.params.TargetTraits = values
	return lb
}

// Population sets the level's starting population size.
func (lb *LevelBuilder) Population(size int) *LevelBuilder {
	lb.params.PopulationSize = size
	return lb
}

// Generations sets the number of burn-in generations run at startup.
func (lb *LevelBuilder) Generations(n int) *LevelBuilder {
	lb.params.Generations = n
	return lb
}

// Bounds sets the minimum and maximum population the level can reach.
func (lb *LevelBuilder) Bounds(minSize, maxSize int) *LevelBuilder {
	lb.params.MinPopulationSize = minSize
	lb.params.MaxPopulationSize = maxSize
	return lb
}

// Immigration configures the per-generation immigration settings.
func (lb *LevelBuilder) Immigration(rate, chance, variation float64) *LevelBuilder {
	lb.params.ImmigrationRate = rate
	lb.params.ImmigrationChance = chance
	lb.params.ImmigrationVariation = variation
	return lb
}

// Fecundity sets the reproduction multiplier and its random variation.
func (lb *LevelBuilder) Fecundity(base, variation float64) *LevelBuilder {
	lb.params.Fecundity = base
	lb.params.FecundityVariation = variation
	return lb
}

// Seed fixes the level's burn-in random seed for reproducible startups.
func (lb *LevelBuilder) Seed(seed int64) *LevelBuilder {
	lb.params.Seed = seed
	return lb
}

// TraitNames sets the level's gene position labels.
func (lb *LevelBuilder) TraitNames(names ...string) *LevelBuilder {
	lb.traitNames = names
	return lb
}

// Species adds a species to the level's roster.
func (lb *LevelBuilder) Species(sb *SpeciesBuilder) *LevelBuilder {
	lb.species = append(lb.species, sb)
	return lb
}

// Build converts the builder to a LevelConfig.
func (lb *LevelBuilder) Build() habitat.LevelConfig {
	species := make([]habitat.SpeciesConfig, 0, len(lb.species))
	for _, sb := range lb.species {
		species = append(species, sb.Build())
	}
	return habitat.LevelConfig{
		ID:         habitat.LevelID(lb.id),
		Name:       lb.name,
		TraitNames: lb.traitNames,
		Simulation: lb.params,
		Organisms:  species,
	}
}

// SpeciesBuilder provides a fluent API for building one species entry.
type SpeciesBuilder struct {
	cfg habitat.SpeciesConfig
}

// NewSpecies creates a new species builder with the given id and name.
// The species defaults to mobile with an equal share of the level population.
func NewSpecies(id, name string) *SpeciesBuilder {
	return &SpeciesBuilder{
		cfg: habitat.SpeciesConfig{ID: id, Name: name, Share: 1.0},
	}
}

// At sets the species' home cell (1-indexed).
func (sb *SpeciesBuilder) At(row, col int) *SpeciesBuilder {
	sb.cfg.Row = row
	sb.cfg.Col = col
	return sb
}

// Share sets the species' proportional claim on the level population.
func (sb *SpeciesBuilder) Share(share float64) *SpeciesBuilder {
	sb.cfg.Share = share
	return sb
}

// Image sets the sprite path used by UIs.
func (sb *SpeciesBuilder) Image(path string) *SpeciesBuilder {
	sb.cfg.Image = path
	return sb
}

// Immobile marks the species as stationary (plants, corals).
func (sb *SpeciesBuilder) Immobile() *SpeciesBuilder {
	moves := false
	sb.cfg.Moves = &moves
	return sb
}

// IdealTraits overrides the level targets for this species.
func (sb *SpeciesBuilder) IdealTraits(values ...float64) *SpeciesBuilder {
	sb.cfg.UserIdealTraits = values
	return sb
}

// TraitNames sets per-species gene position labels.
func (sb *SpeciesBuilder) TraitNames(names ...string) *SpeciesBuilder {
	sb.cfg.TraitNames = names
	return sb
}

// Build converts the builder to a SpeciesConfig.
func (sb *SpeciesBuilder) Build() habitat.SpeciesConfig {
	return sb.cfg
}
