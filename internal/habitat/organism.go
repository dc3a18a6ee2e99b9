package habitat

// OrganismID is a unique identifier for a species entity on the grid.
type OrganismID string

// Position is a 1-indexed grid coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Organism represents a named species occupying one grid cell, backed by a
// variable-size population of trait-vector individuals. One instance exists
// per species-in-a-trophic-level and persists for the whole simulation run,
// even when its population reaches zero.
type Organism struct {
	ID        OrganismID
	Name      string
	Row       int
	Col       int
	ImagePath string
	Fecundity float64
	Moves     bool

	// genes is the organism's share of its level's population. Invariant:
	// Size() == len(genes) after every mutation.
	genes []*Individual

	idealTraits     []float64
	userIdealTraits []float64
	traitNames      []string

	// Per-cycle counters, reset together at cycle start.
	cycleSteps      int
	caughtPreyCount int
	timesCaught     int
}

// NewOrganism creates an organism with an empty gene pool.
func NewOrganism(id OrganismID, name string, row, col int) *Organism {
	return &Organism{
		ID:        id,
		Name:      name,
		Row:       row,
		Col:       col,
		Fecundity: 1.0,
		Moves:     true,
		genes:     []*Individual{},
	}
}

// Size returns the current population size of this organism's species.
func (o *Organism) Size() int {
	return len(o.genes)
}

// Genes returns the organism's gene pool. Callers must not mutate the
// returned slice; use SetGenes.
func (o *Organism) Genes() []*Individual {
	return o.genes
}

// SetGenes replaces the organism's gene pool.
func (o *Organism) SetGenes(genes []*Individual) {
	if genes == nil {
		genes = []*Individual{}
	}
	o.genes = genes
}

// Pos returns the organism's current grid position.
func (o *Organism) Pos() Position {
	return Position{Row: o.Row, Col: o.Col}
}

// SetPos moves the organism to the given grid position.
func (o *Organism) SetPos(pos Position) {
	o.Row = pos.Row
	o.Col = pos.Col
}

// IdealTraits returns the environment's default trait target for the species.
func (o *Organism) IdealTraits() []float64 {
	return o.idealTraits
}

// SetIdealTraits replaces the default trait target.
func (o *Organism) SetIdealTraits(traits []float64) {
	o.idealTraits = copyFloats(traits)
}

// UserIdealTraits returns the user-supplied trait target override, or nil.
func (o *Organism) UserIdealTraits() []float64 {
	return o.userIdealTraits
}

// SetUserIdealTraits installs a user trait target override. Passing nil
// clears the override.
func (o *Organism) SetUserIdealTraits(traits []float64) {
	if traits == nil {
		o.userIdealTraits = nil
		return
	}
	o.userIdealTraits = copyFloats(traits)
}

// EffectiveIdealTraits is the single resolution point for the trait target
// actually used in fitness and penalty computations: the user override when
// present, the environment default otherwise.
func (o *Organism) EffectiveIdealTraits() []float64 {
	if len(o.userIdealTraits) > 0 {
		return o.userIdealTraits
	}
	return o.idealTraits
}

// TraitNames returns the display labels for the organism's traits.
func (o *Organism) TraitNames() []string {
	return o.traitNames
}

// SetTraitNames replaces the trait display labels.
func (o *Organism) SetTraitNames(names []string) {
	o.traitNames = append([]string(nil), names...)
}

// CycleSteps returns the number of steps taken this cycle.
func (o *Organism) CycleSteps() int {
	return o.cycleSteps
}

// AdvanceCycle increments the step counter and returns the new value.
func (o *Organism) AdvanceCycle() int {
	o.cycleSteps++
	return o.cycleSteps
}

// ResetCycle zeroes all per-cycle counters. Called exactly once per organism
// at every cycle boundary.
func (o *Organism) ResetCycle() {
	o.cycleSteps = 0
	o.caughtPreyCount = 0
	o.timesCaught = 0
}

// CaughtPreyCount returns how many prey this organism captured this cycle.
func (o *Organism) CaughtPreyCount() int {
	return o.caughtPreyCount
}

// IncrementCaughtPrey records a successful capture by this organism.
func (o *Organism) IncrementCaughtPrey() {
	o.caughtPreyCount++
}

// HasCaughtPrey reports whether the organism captured anything this cycle.
func (o *Organism) HasCaughtPrey() bool {
	return o.caughtPreyCount > 0
}

// TimesCaught returns how many times this organism was captured this cycle.
func (o *Organism) TimesCaught() int {
	return o.timesCaught
}

// IncrementTimesCaught records that this organism was captured.
func (o *Organism) IncrementTimesCaught() {
	o.timesCaught++
}

// WasCaught reports whether the organism was captured this cycle.
func (o *Organism) WasCaught() bool {
	return o.timesCaught > 0
}

func copyFloats(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
