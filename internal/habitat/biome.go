package habitat

// Clone returns a deep copy of the biome configuration so mutations on a
// running simulation never leak back into shared presets.
func (c *BiomeConfig) Clone() *BiomeConfig {
	if c == nil {
		return nil
	}
	out := &BiomeConfig{
		ID:          c.ID,
		Name:        c.Name,
		Map:         c.Map,
		TraitNames:  append([]string(nil), c.TraitNames...),
		CycleLength: c.CycleLength,
	}

	out.TrophicLevels = make([]LevelConfig, len(c.TrophicLevels))
	for i, level := range c.TrophicLevels {
		out.TrophicLevels[i] = level.clone()
	}

	if c.Relations != nil {
		out.Relations = make(map[LevelID]RelationConfig, len(c.Relations))
		for id, relation := range c.Relations {
			out.Relations[id] = RelationConfig{
				Prey:      append([]LevelID(nil), relation.Prey...),
				Predators: append([]LevelID(nil), relation.Predators...),
			}
		}
	}
	if c.SpeedByLevel != nil {
		out.SpeedByLevel = make(map[LevelID]int, len(c.SpeedByLevel))
		for id, speed := range c.SpeedByLevel {
			out.SpeedByLevel[id] = speed
		}
	}
	if c.Behaviors != nil {
		out.Behaviors = make(map[OrganismID]BehaviorConfig, len(c.Behaviors))
		for id, behavior := range c.Behaviors {
			out.Behaviors[id] = BehaviorConfig{
				PreyIDs:     append([]OrganismID(nil), behavior.PreyIDs...),
				PredatorIDs: append([]OrganismID(nil), behavior.PredatorIDs...),
			}
		}
	}
	return out
}

func (l LevelConfig) clone() LevelConfig {
	out := l
	out.TraitNames = append([]string(nil), l.TraitNames...)
	out.Simulation.TargetTraits = copyFloats(l.Simulation.TargetTraits)
	out.Organisms = make([]SpeciesConfig, len(l.Organisms))
	for i, sp := range l.Organisms {
		out.Organisms[i] = sp.clone()
	}
	return out
}

func (s SpeciesConfig) clone() SpeciesConfig {
	out := s
	if s.Moves != nil {
		moves := *s.Moves
		out.Moves = &moves
	}
	out.TraitNames = append([]string(nil), s.TraitNames...)
	out.UserIdealTraits = copyFloats(s.UserIdealTraits)
	return out
}
