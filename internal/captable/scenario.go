package captable

// Scenario is a complete modeling input: an ordered list of financing
// rounds followed by one or more exit definitions. Round order is
// simulated time; the orchestrator processes rounds strictly in list
// order.
type Scenario struct {
	ID     string         `json:"id" yaml:"id"`
	Name   string         `json:"name" yaml:"name"`
	Rounds []Round        `json:"rounds" yaml:"rounds"`
	Exits  []ExitScenario `json:"exits" yaml:"exits"`
}

// Validate runs the full fail-fast validation pass over the scenario.
// Every problem is collected into one joined error so the caller gets a
// complete report before any arithmetic has happened.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, Errorf("name", "scenario name is required"))
	}
	if len(s.Rounds) == 0 {
		errs = append(errs, Errorf("rounds", "at least one funding round is required"))
	}
	if len(s.Exits) == 0 {
		errs = append(errs, Errorf("exits", "at least one exit scenario is required"))
	}
	for i, r := range s.Rounds {
		errs = append(errs, r.validate(i)...)
	}
	for i, e := range s.Exits {
		errs = append(errs, e.validate(i)...)
	}
	return join(errs)
}

// Clone returns a deep copy, safe to mutate independently of the
// original. The sensitivity analyzer overrides single parameters on
// clones of a base scenario.
func (s *Scenario) Clone() *Scenario {
	out := &Scenario{
		ID:     s.ID,
		Name:   s.Name,
		Rounds: make([]Round, len(s.Rounds)),
		Exits:  make([]ExitScenario, len(s.Exits)),
	}
	copy(out.Exits, s.Exits)
	for i, r := range s.Rounds {
		rc := r
		if len(r.Notes) > 0 {
			rc.Notes = make([]ConvertibleNote, len(r.Notes))
			copy(rc.Notes, r.Notes)
		}
		out.Rounds[i] = rc
	}
	return out
}
