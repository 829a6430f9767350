package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/config"
	"github.com/sells-group/capmodel/internal/scenario"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	o, err := scenario.New(config.Default().Modeling)
	require.NoError(t, err)
	return NewAnalyzer(o)
}

func founders() captable.PositionList {
	return captable.PositionList{
		{ID: "alice", Name: "Alice", Shares: 8_000_000, Class: captable.ClassCommon},
		{ID: "bob", Name: "Bob", Shares: 2_000_000, Class: captable.ClassCommon},
	}
}

func scenarioNamed(name string, preMoney int64) *captable.Scenario {
	return &captable.Scenario{
		ID:   name,
		Name: name,
		Rounds: []captable.Round{
			{
				Name:               "Series A",
				PreMoneyCents:      preMoney,
				InvestmentCents:    500_000_000,
				PricePerShareCents: 150,
				Seniority:          1,
			},
		},
		Exits: []captable.ExitScenario{
			{Name: "Exit", ExitValueCents: 3_000_000_000, Type: captable.ExitAcquisition},
		},
	}
}

func TestCompare_TwoScenarios(t *testing.T) {
	a := newAnalyzer(t)

	cmp, err := a.Compare(context.Background(), founders(), []*captable.Scenario{
		scenarioNamed("modest", 1_000_000_000),
		scenarioNamed("rich", 2_000_000_000),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"modest", "rich"}, cmp.ScenarioNames)
	require.Len(t, cmp.Results, 2)

	// Every stakeholder row covers both scenarios.
	require.NotEmpty(t, cmp.Stakeholders)
	for _, row := range cmp.Stakeholders {
		assert.Contains(t, row.PerScenario, "modest", "stakeholder %s", row.ID)
		assert.Contains(t, row.PerScenario, "rich", "stakeholder %s", row.ID)
	}

	// Same priced round either way: identical ownership here; the
	// tabulation still keys them independently.
	require.Len(t, cmp.Exits, 1)
	assert.Equal(t, int64(3_000_000_000), cmp.Exits[0].ExitValueCents)
	assert.Len(t, cmp.Exits[0].PerScenario, 2)
}

func TestCompare_UnionOfStakeholders(t *testing.T) {
	a := newAnalyzer(t)

	withNote := scenarioNamed("with-note", 1_000_000_000)
	withNote.Rounds[0].Notes = []captable.ConvertibleNote{
		{Holder: "Angel", AmountCents: 50_000_000, Mode: captable.NoteDiscount, DiscountRate: 0.2},
	}

	cmp, err := a.Compare(context.Background(), founders(), []*captable.Scenario{
		scenarioNamed("plain", 1_000_000_000),
		withNote,
	})
	require.NoError(t, err)

	var angelRow *StakeholderRow
	for i := range cmp.Stakeholders {
		if cmp.Stakeholders[i].ID == "note:Series A:Angel" {
			angelRow = &cmp.Stakeholders[i]
		}
	}
	require.NotNil(t, angelRow, "note holder appears in the union")
	assert.Contains(t, angelRow.PerScenario, "with-note")
	assert.NotContains(t, angelRow.PerScenario, "plain")
}

func TestCompare_Empty(t *testing.T) {
	a := newAnalyzer(t)
	_, err := a.Compare(context.Background(), founders(), nil)
	var verr *captable.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCompare_InvalidScenarioFailsWhole(t *testing.T) {
	a := newAnalyzer(t)
	bad := scenarioNamed("bad", 1_000_000_000)
	bad.Exits = nil

	_, err := a.Compare(context.Background(), founders(), []*captable.Scenario{
		scenarioNamed("good", 1_000_000_000),
		bad,
	})
	require.Error(t, err)
}
