// Package antidilution computes conversion-price adjustments for
// protected preferred series when a later round prices below their
// original issue price (a "down round").
package antidilution

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/money"
)

// ProtectedSeries describes one preferred series holding anti-dilution
// rights. OriginalPrice is in cents and may be fractional when the
// series came from a note conversion.
type ProtectedSeries struct {
	Name          string                    `json:"name"`
	OriginalPrice decimal.Decimal           `json:"original_price"`
	Shares        int64                     `json:"shares"`
	Protection    captable.AntiDilutionType `json:"protection"`
}

// ShareBase supplies the outstanding-share denominator for the
// weighted-average formula. Which securities count as "outstanding" is a
// term-sheet question, so the base is a selector rather than a hard-coded
// rule.
type ShareBase func(positions captable.PositionList, series ProtectedSeries) int64

// BroadBase counts every outstanding share: common, preferred, and any
// unallocated pool positions already on the list.
func BroadBase(positions captable.PositionList, _ ProtectedSeries) int64 {
	return positions.TotalShares()
}

// NarrowBase counts only the protected series itself. Set includeCommon
// to also count common shares, the other interpretation seen in
// narrow-based term sheets.
func NarrowBase(includeCommon bool) ShareBase {
	return func(positions captable.PositionList, series ProtectedSeries) int64 {
		base := series.Shares
		if includeCommon {
			base += positions.SharesByClass(captable.ClassCommon)
		}
		return base
	}
}

// Adjustment is the outcome of applying an anti-dilution policy to one
// series. It carries the new effective conversion price and ratio; it
// never mutates share counts itself. Callers apply the ratio when
// computing as-converted shares downstream.
type Adjustment struct {
	SeriesName        string                    `json:"series_name"`
	Policy            captable.AntiDilutionType `json:"policy"`
	RoundName         string                    `json:"round_name"`
	OldPrice          decimal.Decimal           `json:"old_price"`           // cents
	NewPrice          decimal.Decimal           `json:"new_price"`           // cents, possibly fractional
	ConversionRatio   decimal.Decimal           `json:"conversion_ratio"`    // oldPrice / newPrice, ≥ 1
	AdjustmentFactor  decimal.Decimal           `json:"adjustment_factor"`   // newPrice / oldPrice, ≤ 1
	AsConvertedShares int64                     `json:"as_converted_shares"` // floor(shares × ratio)
}

// Engine applies anti-dilution policies under a fixed arithmetic context.
type Engine struct {
	mctx   *money.Context
	broad  ShareBase
	narrow ShareBase
}

// NewEngine creates an anti-dilution engine with the standard broad and
// narrow share bases.
func NewEngine(mctx *money.Context) *Engine {
	return &Engine{mctx: mctx, broad: BroadBase, narrow: NarrowBase(false)}
}

// WithBases overrides the broad and narrow share-base selectors. Nil
// arguments keep the current selector.
func (e *Engine) WithBases(broad, narrow ShareBase) *Engine {
	if broad != nil {
		e.broad = broad
	}
	if narrow != nil {
		e.narrow = narrow
	}
	return e
}

// Triggered reports whether the round is a down round for the series and
// the series carries protection.
func Triggered(series ProtectedSeries, round captable.Round) bool {
	if series.Protection == "" || series.Protection == captable.AntiDilutionNone {
		return false
	}
	return money.FromCents(round.PricePerShareCents).LessThan(series.OriginalPrice)
}

// Adjust computes the conversion-price adjustment for one protected
// series against one down round. positions is the pre-round position
// list; newShares is the count the round will issue. Returns nil when
// the policy does not trigger.
func (e *Engine) Adjust(series ProtectedSeries, round captable.Round, positions captable.PositionList, newShares int64) (*Adjustment, error) {
	if series.Protection != "" && !series.Protection.Valid() {
		return nil, captable.Errorf("protection", "unrecognized anti-dilution type %q", series.Protection)
	}
	if !series.OriginalPrice.IsPositive() {
		return nil, captable.Errorf("original_price", "original issue price must be positive, got %s", series.OriginalPrice)
	}
	if !Triggered(series, round) {
		return nil, nil
	}

	oldPrice := series.OriginalPrice
	roundPrice := money.FromCents(round.PricePerShareCents)

	var newPrice decimal.Decimal
	switch series.Protection {
	case captable.AntiDilutionFullRatchet:
		// Conversion price resets to the new round price outright.
		newPrice = roundPrice

	case captable.AntiDilutionBroadWeighted, captable.AntiDilutionNarrowWeighted:
		base := e.broad
		if series.Protection == captable.AntiDilutionNarrowWeighted {
			base = e.narrow
		}
		outstanding := money.FromShares(base(positions, series))

		// Shares the new money would have bought at the old price.
		atOldPrice, err := e.mctx.Div(money.FromCents(round.InvestmentCents), oldPrice)
		if err != nil {
			return nil, err
		}

		numerator := outstanding.Add(atOldPrice)
		denominator := outstanding.Add(money.FromShares(newShares))
		ratio, err := e.mctx.Div(numerator, denominator)
		if err != nil {
			return nil, err
		}
		newPrice = e.mctx.Round(oldPrice.Mul(ratio))

	default:
		return nil, captable.Errorf("protection", "unrecognized anti-dilution type %q", series.Protection)
	}

	if !newPrice.IsPositive() {
		return nil, &money.NumericError{Op: "antidilution", Message: "adjusted conversion price is not positive"}
	}

	conversionRatio, err := e.mctx.Div(oldPrice, newPrice)
	if err != nil {
		return nil, err
	}
	factor, err := e.mctx.Div(newPrice, oldPrice)
	if err != nil {
		return nil, err
	}

	asConverted := money.FromShares(series.Shares).Mul(conversionRatio).Floor().IntPart()

	return &Adjustment{
		SeriesName:        series.Name,
		Policy:            series.Protection,
		RoundName:         round.Name,
		OldPrice:          series.OriginalPrice,
		NewPrice:          newPrice,
		ConversionRatio:   conversionRatio,
		AdjustmentFactor:  factor,
		AsConvertedShares: asConverted,
	}, nil
}
