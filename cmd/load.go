package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/capmodel/internal/captable"
)

// positionsFile is the YAML shape of a cap-table snapshot.
type positionsFile struct {
	Positions captable.PositionList `yaml:"positions"`
}

// loadPositions reads the current ownership positions from a YAML file.
func loadPositions(path string) (captable.PositionList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "load positions %s", path)
	}
	var pf positionsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, eris.Wrapf(err, "parse positions %s", path)
	}
	if err := pf.Positions.Validate(); err != nil {
		return nil, err
	}
	return pf.Positions, nil
}

// loadScenario reads one scenario definition from a YAML file, assigning
// an id when the file omits one.
func loadScenario(path string) (*captable.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "load scenario %s", path)
	}
	var sc captable.Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, eris.Wrapf(err, "parse scenario %s", path)
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}
