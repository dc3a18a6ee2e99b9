package habitat

import "strings"

// LevelOrder is the canonical bottom-up ordering of trophic levels used by
// the built-in presets.
var LevelOrder = []LevelID{
	LevelProducers,
	LevelPrimaryConsumers,
	LevelSecondaryConsumers,
	LevelTertiaryConsumers,
	LevelApex,
}

const (
	LevelProducers          LevelID = "producers"
	LevelPrimaryConsumers   LevelID = "primary-consumers"
	LevelSecondaryConsumers LevelID = "secondary-consumers"
	LevelTertiaryConsumers  LevelID = "tertiary-consumers"
	LevelApex               LevelID = "apex"
)

// levelAliases maps accepted spelling variants (singular/plural, hyphen,
// space, underscore) onto canonical level ids.
var levelAliases = map[string]LevelID{
	"producer":            LevelProducers,
	"producers":           LevelProducers,
	"primary-consumer":    LevelPrimaryConsumers,
	"primary-consumers":   LevelPrimaryConsumers,
	"secondary-consumer":  LevelSecondaryConsumers,
	"secondary-consumers": LevelSecondaryConsumers,
	"tertiary-consumer":   LevelTertiaryConsumers,
	"tertiary-consumers":  LevelTertiaryConsumers,
	"apex":                LevelApex,
	"apex-predator":       LevelApex,
	"apex-predators":      LevelApex,
}

// NormalizeLevelID resolves a user-supplied trophic level identifier to its
// canonical form. Spaces and underscores are treated as hyphens and matching
// is case-insensitive. Returns false when the identifier is unrecognized.
func NormalizeLevelID(raw string) (LevelID, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "-")
	key = strings.ReplaceAll(key, "_", "-")
	if id, ok := levelAliases[key]; ok {
		return id, true
	}
	return "", false
}
