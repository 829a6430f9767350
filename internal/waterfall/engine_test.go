package waterfall

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/money"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	mctx, err := money.NewContext(money.DefaultPrecision, money.RoundHalfEven)
	require.NoError(t, err)
	return NewEngine(mctx)
}

// A simple table: founders hold common, Series A holds 1x
// non-participating preferred bought at $1.00/share.
func simpleTable() []Holder {
	return []Holder{
		{
			ID: "founders", Name: "Founders",
			Class: captable.ClassCommon, Shares: 8_000_000,
		},
		{
			ID: "series-a", Name: "Series A",
			Class: captable.ClassPreferred, Shares: 2_000_000,
			OriginalInvestmentCents: 200_000_000,
			LiquidationPrefCents:    200_000_000, // 1x on $2M
			PrefMultiple:            1.0,
			Participation:           captable.ParticipationNone,
			Seniority:               1,
		},
	}
}

func exit(cents int64) captable.ExitScenario {
	return captable.ExitScenario{Name: "Exit", ExitValueCents: cents, Type: captable.ExitAcquisition}
}

func TestDistribute_ZeroExit(t *testing.T) {
	e := newEngine(t)
	res, err := e.Distribute(simpleTable(), exit(0))
	require.NoError(t, err)

	for _, p := range res.Payouts {
		assert.Zero(t, p.TotalCents)
		assert.True(t, p.PctOfExit.IsZero())
	}
	assert.Zero(t, res.TotalDistributedCents)
}

func TestDistribute_PreferenceOnly(t *testing.T) {
	e := newEngine(t)
	// Exit below the preference: Series A takes everything, common gets nothing.
	res, err := e.Distribute(simpleTable(), exit(100_000_000))
	require.NoError(t, err)

	assert.Equal(t, int64(0), res.Payouts[0].TotalCents)
	assert.Equal(t, int64(100_000_000), res.Payouts[1].PreferenceCents)
	assert.Equal(t, int64(100_000_000), res.TotalDistributedCents)
}

func TestDistribute_NonParticipatingExcludedFromRemainder(t *testing.T) {
	e := newEngine(t)
	// Exit above the preference: Series A takes 1x, the rest goes to common only.
	res, err := e.Distribute(simpleTable(), exit(1_000_000_000))
	require.NoError(t, err)

	assert.Equal(t, int64(200_000_000), res.Payouts[1].PreferenceCents)
	assert.Zero(t, res.Payouts[1].ParticipationCents)
	assert.Equal(t, int64(800_000_000), res.Payouts[0].CommonCents)
	assert.Equal(t, int64(1_000_000_000), res.TotalDistributedCents)
}

func TestDistribute_SeniorityBlocksJuniors(t *testing.T) {
	e := newEngine(t)
	holders := []Holder{
		{
			ID: "series-b", Name: "Series B", Class: captable.ClassPreferred,
			Shares: 1_000_000, LiquidationPrefCents: 300_000_000, Seniority: 2,
			OriginalInvestmentCents: 300_000_000, Participation: captable.ParticipationNone,
		},
		{
			ID: "series-a", Name: "Series A", Class: captable.ClassPreferred,
			Shares: 1_000_000, LiquidationPrefCents: 100_000_000, Seniority: 1,
			OriginalInvestmentCents: 100_000_000, Participation: captable.ParticipationNone,
		},
		{ID: "founders", Name: "Founders", Class: captable.ClassCommon, Shares: 8_000_000},
	}

	// Exit covers only part of the senior preference.
	res, err := e.Distribute(holders, exit(200_000_000))
	require.NoError(t, err)

	assert.Equal(t, int64(200_000_000), res.Payouts[0].PreferenceCents)
	assert.Zero(t, res.Payouts[1].TotalCents, "junior preferred blocked")
	assert.Zero(t, res.Payouts[2].TotalCents, "common blocked")
}

func TestDistribute_PariPassuWithinRank(t *testing.T) {
	e := newEngine(t)
	holders := []Holder{
		{
			ID: "a", Name: "A", Class: captable.ClassPreferred, Shares: 1,
			LiquidationPrefCents: 300, Seniority: 1, Participation: captable.ParticipationNone,
		},
		{
			ID: "b", Name: "B", Class: captable.ClassPreferred, Shares: 1,
			LiquidationPrefCents: 100, Seniority: 1, Participation: captable.ParticipationNone,
		},
	}

	// 200 against combined claims of 400: split 3:1.
	res, err := e.Distribute(holders, exit(200))
	require.NoError(t, err)
	assert.Equal(t, int64(150), res.Payouts[0].PreferenceCents)
	assert.Equal(t, int64(50), res.Payouts[1].PreferenceCents)
}

func TestDistribute_FullParticipation(t *testing.T) {
	e := newEngine(t)
	holders := simpleTable()
	holders[1].Participation = captable.ParticipationFull

	res, err := e.Distribute(holders, exit(1_200_000_000))
	require.NoError(t, err)

	// $2M preference off the top, $10M split 8:2.
	assert.Equal(t, int64(200_000_000), res.Payouts[1].PreferenceCents)
	assert.Equal(t, int64(200_000_000), res.Payouts[1].ParticipationCents)
	assert.Equal(t, int64(800_000_000), res.Payouts[0].CommonCents)
	assert.Equal(t, int64(1_200_000_000), res.TotalDistributedCents)
}

func TestDistribute_CappedParticipation(t *testing.T) {
	e := newEngine(t)
	holders := simpleTable()
	holders[1].Participation = captable.ParticipationCapped
	holders[1].ParticipationCapMultiple = 2.0 // total capped at $4M

	res, err := e.Distribute(holders, exit(5_000_000_000))
	require.NoError(t, err)

	seriesA := res.Payouts[1]
	capTotal := int64(400_000_000) // 2.0 × $2M investment
	assert.Equal(t, capTotal, seriesA.TotalCents, "capped holder clamped at cap multiple")
	// The clamped excess flows to common.
	assert.Equal(t, int64(5_000_000_000)-capTotal, res.Payouts[0].TotalCents)
	assert.Equal(t, int64(5_000_000_000), res.TotalDistributedCents)
}

func TestDistribute_CapNeverExceeded(t *testing.T) {
	e := newEngine(t)
	holders := simpleTable()
	holders[1].Participation = captable.ParticipationCapped
	holders[1].ParticipationCapMultiple = 1.5

	for _, v := range []int64{0, 100, 250_000_000, 1_000_000_000, 10_000_000_000} {
		res, err := e.Distribute(holders, exit(v))
		require.NoError(t, err)
		limit := int64(300_000_000) // 1.5 × $2M
		assert.LessOrEqual(t, res.Payouts[1].TotalCents, limit, "exit %d", v)
	}
}

func TestDistribute_ConvertAllToCommon(t *testing.T) {
	e := newEngine(t)
	ex := exit(1_000_000_000)
	ex.ConvertAllToCommon = true

	res, err := e.Distribute(simpleTable(), ex)
	require.NoError(t, err)

	// Pure pro-rata by shares (8M:2M), preferences ignored.
	assert.Equal(t, int64(800_000_000), res.Payouts[0].CommonCents)
	assert.Equal(t, int64(200_000_000), res.Payouts[1].CommonCents)
	assert.Zero(t, res.Payouts[1].PreferenceCents)
	assert.Equal(t, int64(1_000_000_000), res.TotalDistributedCents)
}

func TestDistribute_SumMatchesExitOrClaims(t *testing.T) {
	e := newEngine(t)
	holders := simpleTable()
	holders[1].Participation = captable.ParticipationFull

	for _, v := range []int64{0, 1, 99, 100_000_001, 333_333_333, 1_000_000_000} {
		res, err := e.Distribute(holders, exit(v))
		require.NoError(t, err)

		var sum int64
		for _, p := range res.Payouts {
			sum += p.TotalCents
			assert.LessOrEqual(t, p.TotalCents, v, "no holder exceeds the exit value")
		}
		assert.Equal(t, v, sum, "everything distributed at exit %d", v)
	}
}

func TestDistribute_NoHolders(t *testing.T) {
	e := newEngine(t)
	_, err := e.Distribute(nil, exit(100))
	var verr *captable.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDistribute_NegativeExit(t *testing.T) {
	e := newEngine(t)
	_, err := e.Distribute(simpleTable(), exit(-1))
	require.Error(t, err)
}

func TestDistribute_PctOfExit(t *testing.T) {
	e := newEngine(t)
	ex := exit(1_000_000_000)
	ex.ConvertAllToCommon = true

	res, err := e.Distribute(simpleTable(), ex)
	require.NoError(t, err)
	assert.True(t, res.Payouts[0].PctOfExit.Equal(decimal.NewFromInt(80)))
	assert.True(t, res.Payouts[1].PctOfExit.Equal(decimal.NewFromInt(20)))
}

func TestProRata_ExactSum(t *testing.T) {
	weights := []int64{3, 3, 3}
	parts := proRata(100, weights)
	var sum int64
	for _, p := range parts {
		sum += p
	}
	assert.Equal(t, int64(100), sum)
}

func TestProRata_ZeroAmount(t *testing.T) {
	parts := proRata(0, []int64{1, 2})
	assert.Equal(t, []int64{0, 0}, parts)
}
