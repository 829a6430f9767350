// Package analysis runs the scenario orchestrator repeatedly: side by
// side across candidate scenarios, and swept across a parameter range
// for sensitivity.
package analysis

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/scenario"
)

// Analyzer wraps an orchestrator as a pure function of its inputs.
type Analyzer struct {
	o *scenario.Orchestrator
}

// NewAnalyzer creates an analyzer over the given orchestrator.
func NewAnalyzer(o *scenario.Orchestrator) *Analyzer {
	return &Analyzer{o: o}
}

// StakeholderOutcome is one stakeholder's final standing in one scenario.
type StakeholderOutcome struct {
	OwnershipPct decimal.Decimal `json:"ownership_pct"`
	Shares       int64           `json:"shares"`
}

// StakeholderRow tabulates one stakeholder across every scenario.
type StakeholderRow struct {
	ID          string                        `json:"id"`
	Name        string                        `json:"name"`
	PerScenario map[string]StakeholderOutcome `json:"per_scenario"`
}

// ExitOutcome is one exit's aggregate result in one scenario.
type ExitOutcome struct {
	TotalReturnCents int64           `json:"total_return_cents"`
	ReturnMultiple   decimal.Decimal `json:"return_multiple"`
}

// ExitRow tabulates one tested exit value across every scenario.
type ExitRow struct {
	ExitValueCents int64                  `json:"exit_value_cents"`
	PerScenario    map[string]ExitOutcome `json:"per_scenario"`
}

// Comparison is the side-by-side tabulation of several scenario runs
// from the same starting positions.
type Comparison struct {
	ScenarioNames []string           `json:"scenario_names"`
	Stakeholders  []StakeholderRow   `json:"stakeholders"`
	Exits         []ExitRow          `json:"exits"`
	Results       []*scenario.Result `json:"results"`
}

// Compare runs every candidate scenario from the same starting
// positions and tabulates stakeholder and exit outcomes across the
// union of stakeholder ids and tested exit values. Scenarios share no
// state, so they run in parallel; round order inside each scenario
// stays strictly sequential.
func (a *Analyzer) Compare(ctx context.Context, positions captable.PositionList, scenarios []*captable.Scenario) (*Comparison, error) {
	if len(scenarios) == 0 {
		return nil, captable.Errorf("scenarios", "at least one scenario is required")
	}

	results := make([]*scenario.Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			res, err := a.o.Run(gctx, positions, sc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &Comparison{Results: results}
	for _, sc := range scenarios {
		cmp.ScenarioNames = append(cmp.ScenarioNames, sc.Name)
	}

	cmp.Stakeholders = tabulateStakeholders(scenarios, results)
	cmp.Exits = tabulateExits(scenarios, results)
	return cmp, nil
}

// tabulateStakeholders builds one row per stakeholder id appearing in
// any result, in first-seen order.
func tabulateStakeholders(scenarios []*captable.Scenario, results []*scenario.Result) []StakeholderRow {
	var order []string
	names := make(map[string]string)
	byScenario := make(map[string]map[string]StakeholderOutcome)

	for i, res := range results {
		scName := scenarios[i].Name
		for _, line := range res.Summary.FinalOwnership {
			if _, seen := names[line.ID]; !seen {
				order = append(order, line.ID)
				names[line.ID] = line.Name
			}
			m := byScenario[line.ID]
			if m == nil {
				m = make(map[string]StakeholderOutcome)
				byScenario[line.ID] = m
			}
			m[scName] = StakeholderOutcome{OwnershipPct: line.Pct, Shares: line.Shares}
		}
	}

	rows := make([]StakeholderRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, StakeholderRow{ID: id, Name: names[id], PerScenario: byScenario[id]})
	}
	return rows
}

// tabulateExits builds one row per distinct tested exit value, sorted
// ascending.
func tabulateExits(scenarios []*captable.Scenario, results []*scenario.Result) []ExitRow {
	byValue := make(map[int64]map[string]ExitOutcome)

	for i, res := range results {
		scName := scenarios[i].Name
		for _, er := range res.Summary.ExitReturns {
			m := byValue[er.ExitValueCents]
			if m == nil {
				m = make(map[string]ExitOutcome)
				byValue[er.ExitValueCents] = m
			}
			m[scName] = ExitOutcome{
				TotalReturnCents: er.TotalDistributedCents,
				ReturnMultiple:   er.ReturnMultiple,
			}
		}
	}

	values := make([]int64, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Slice(values, func(a, b int) bool { return values[a] < values[b] })

	rows := make([]ExitRow, 0, len(values))
	for _, v := range values {
		rows = append(rows, ExitRow{ExitValueCents: v, PerScenario: byValue[v]})
	}
	return rows
}
