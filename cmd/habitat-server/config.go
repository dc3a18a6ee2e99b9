package main

import (
	"flag"
	"os"

	"github.com/phylogen/habitat/internal/habitat"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr        string
	Biome       string
	BiomeFile   string
	HistoryFile string
	LogLevel    string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Uses a resolver pattern to make it easy to add new configuration options.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	// Define all configuration resolvers
	// To add a new option, just add a new resolver here
	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "HABITAT_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "biome",
			envVarName:  "HABITAT_BIOME",
			defaultVal:  habitat.DefaultBiomeID,
			description: "biome preset to load at startup (ocean, rainforest)",
			setter:      func(c *ServerConfig, v string) { c.Biome = v },
		},
		{
			flagName:    "biome-file",
			envVarName:  "HABITAT_BIOME_FILE",
			defaultVal:  "",
			description: "optional path to a YAML biome config file; overrides -biome",
			setter:      func(c *ServerConfig, v string) { c.BiomeFile = v },
		},
		{
			flagName:    "history-file",
			envVarName:  "HABITAT_HISTORY_FILE",
			defaultVal:  "./data/history.json",
			description: "path where completed cycle history is stored; empty keeps history in memory",
			setter:      func(c *ServerConfig, v string) { c.HistoryFile = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "HABITAT_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	// Register string flags first
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	// Parse flags once
	flag.Parse()

	// Resolve values for each resolver
	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}

// resolveStartupBiome picks the biome the server boots with: an explicit YAML
// file wins over a preset id, and unknown preset ids fall back to the default.
func resolveStartupBiome(cfg ServerConfig) (*habitat.BiomeConfig, error) {
	if cfg.BiomeFile != "" {
		return habitat.LoadBiomeConfig(cfg.BiomeFile)
	}
	return habitat.BiomePreset(cfg.Biome), nil
}

// newHistoryStore builds the configured history backend. An empty path keeps
// the history in memory only.
func newHistoryStore(path string) habitat.HistoryStore {
	if path == "" {
		return habitat.NewMemoryHistoryStore()
	}
	return habitat.NewFileHistoryStore(path)
}
