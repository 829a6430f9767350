package notes

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

func pricedRound() captable.Round {
	return captable.Round{
		Name:               "Series A",
		PreMoneyCents:      1_000_000_000,
		InvestmentCents:    500_000_000,
		PricePerShareCents: 200, // $2.00
	}
}

func TestConvert_CapOnly(t *testing.T) {
	e := newEngine(t)
	note := captable.ConvertibleNote{
		Holder:            "Angel",
		AmountCents:       50_000_000, // $500k
		Mode:              captable.NoteValuationCap,
		ValuationCapCents: 500_000_000, // $5M cap
	}

	conv, err := e.Convert(note, pricedRound(), 10_000_000)
	require.NoError(t, err)

	// cap price = $5,000,000 / 10,000,000 = $0.50.
	require.NotNil(t, conv.CapPrice)
	assert.True(t, conv.CapPrice.Equal(decimal.NewFromInt(50)))
	assert.Nil(t, conv.DiscountPrice)
	// shares = floor($500,000 / $0.50) = 1,000,000.
	assert.Equal(t, int64(1_000_000), conv.SharesIssued)
	assert.Equal(t, captable.ClassPreferred, conv.Position.Class)
}

func TestConvert_DiscountOnly(t *testing.T) {
	e := newEngine(t)
	note := captable.ConvertibleNote{
		Holder:       "Angel",
		AmountCents:  50_000_000,
		Mode:         captable.NoteDiscount,
		DiscountRate: 0.20,
	}

	conv, err := e.Convert(note, pricedRound(), 10_000_000)
	require.NoError(t, err)

	// discount price = $2.00 * 0.80 = $1.60.
	require.NotNil(t, conv.DiscountPrice)
	assert.True(t, conv.DiscountPrice.Equal(decimal.NewFromInt(160)))
	assert.Nil(t, conv.CapPrice)
	// shares = floor($500,000 / $1.60) = 312,500.
	assert.Equal(t, int64(312_500), conv.SharesIssued)
}

func TestConvert_CapAndDiscount_TakesLowerPrice(t *testing.T) {
	e := newEngine(t)
	note := captable.ConvertibleNote{
		Holder:            "Angel",
		AmountCents:       50_000_000,
		Mode:              captable.NoteCapAndDiscount,
		ValuationCapCents: 500_000_000, // cap price $0.50
		DiscountRate:      0.20,        // discount price $1.60
	}

	conv, err := e.Convert(note, pricedRound(), 10_000_000)
	require.NoError(t, err)

	// Most favorable to the holder: the lower cap price wins.
	assert.True(t, conv.ConversionPrice.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(1_000_000), conv.SharesIssued)
}

func TestConvert_CapAndDiscount_DiscountWins(t *testing.T) {
	e := newEngine(t)
	note := captable.ConvertibleNote{
		Holder:            "Angel",
		AmountCents:       50_000_000,
		Mode:              captable.NoteCapAndDiscount,
		ValuationCapCents: 5_000_000_000, // cap price $5.00, worse than discount
		DiscountRate:      0.20,          // discount price $1.60
	}

	conv, err := e.Convert(note, pricedRound(), 10_000_000)
	require.NoError(t, err)
	assert.True(t, conv.ConversionPrice.Equal(decimal.NewFromInt(160)))
}

func TestConvert_MFNOnly(t *testing.T) {
	e := newEngine(t)
	note := captable.ConvertibleNote{
		Holder:      "Angel",
		AmountCents: 20_000_000, // $200k
		Mode:        captable.NoteMFNOnly,
	}

	conv, err := e.Convert(note, pricedRound(), 10_000_000)
	require.NoError(t, err)

	// Converts at the round price, flagged for manual MFN review.
	assert.True(t, conv.ConversionPrice.Equal(decimal.NewFromInt(200)))
	assert.True(t, conv.NeedsMFNReview)
	assert.Equal(t, int64(100_000), conv.SharesIssued)
}

func TestConvert_MFNFlagSurfaced(t *testing.T) {
	e := newEngine(t)
	note := captable.ConvertibleNote{
		Holder:            "Angel",
		AmountCents:       10_000_000,
		Mode:              captable.NoteDiscount,
		DiscountRate:      0.25,
		MostFavoredNation: true,
	}

	conv, err := e.Convert(note, pricedRound(), 10_000_000)
	require.NoError(t, err)
	assert.True(t, conv.NeedsMFNReview)
}

func TestConvert_SharesFloor(t *testing.T) {
	e := newEngine(t)
	note := captable.ConvertibleNote{
		Holder:       "Angel",
		AmountCents:  100, // $1.00
		Mode:         captable.NoteDiscount,
		DiscountRate: 0.25, // price $1.50
	}

	conv, err := e.Convert(note, pricedRound(), 10_000_000)
	require.NoError(t, err)
	// $1.00 / $1.50 = 0.66… → 0 whole shares.
	assert.Equal(t, int64(0), conv.SharesIssued)
}

func TestConvert_Invalid(t *testing.T) {
	e := newEngine(t)

	_, err := e.Convert(captable.ConvertibleNote{Holder: "A", AmountCents: 0, Mode: captable.NoteDiscount, DiscountRate: 0.2}, pricedRound(), 1_000)
	var verr *captable.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount_cents", verr.Field)

	_, err = e.Convert(captable.ConvertibleNote{Holder: "A", AmountCents: 100, Mode: "SAFE"}, pricedRound(), 1_000)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "mode", verr.Field)

	_, err = e.Convert(captable.ConvertibleNote{Holder: "A", AmountCents: 100, Mode: captable.NoteValuationCap}, pricedRound(), 1_000)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "valuation_cap_cents", verr.Field)

	_, err = e.Convert(captable.ConvertibleNote{Holder: "A", AmountCents: 100, Mode: captable.NoteDiscount, DiscountRate: 1.2}, pricedRound(), 1_000)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "discount_rate", verr.Field)

	_, err = e.Convert(captable.ConvertibleNote{Holder: "A", AmountCents: 100, Mode: captable.NoteDiscount, DiscountRate: 0.2}, pricedRound(), 0)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "pre_round_shares", verr.Field)
}
