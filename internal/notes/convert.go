// Package notes converts convertible instruments into preferred stock at
// a priced round. Conversions run before the round's own dilution math so
// new-money investors are diluted by converting notes exactly as they
// would be at a real closing.
package notes

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/money"
)

// Conversion records the outcome of converting one note.
type Conversion struct {
	Holder          string            `json:"holder"`
	RoundName       string            `json:"round_name"`
	AmountCents     int64             `json:"amount_cents"`
	ConversionPrice decimal.Decimal   `json:"conversion_price"`           // cents per share actually used
	CapPrice        *decimal.Decimal  `json:"cap_price,omitempty"`        // cents, when a cap applied
	DiscountPrice   *decimal.Decimal  `json:"discount_price,omitempty"`   // cents, when a discount applied
	SharesIssued    int64             `json:"shares_issued"`
	NeedsMFNReview  bool              `json:"needs_mfn_review"`
	Position        captable.Position `json:"position"`
}

// Engine prices note conversions under a fixed arithmetic context.
type Engine struct {
	mctx *money.Context
}

// NewEngine creates a note-conversion engine.
func NewEngine(mctx *money.Context) *Engine {
	return &Engine{mctx: mctx}
}

// Convert prices one note against the round it converts into.
// preRoundShares is the fully diluted share count before the round,
// excluding the note itself. The conversion price is the more favorable
// (lower) of the cap-implied and discount-implied prices when both
// apply. Issued shares floor: fractional shares are not issued.
func (e *Engine) Convert(note captable.ConvertibleNote, round captable.Round, preRoundShares int64) (*Conversion, error) {
	if note.AmountCents <= 0 {
		return nil, captable.Errorf("amount_cents", "note amount must be positive, got %d", note.AmountCents)
	}
	if !note.Mode.Valid() {
		return nil, captable.Errorf("mode", "unrecognized conversion mode %q", note.Mode)
	}
	if preRoundShares <= 0 {
		return nil, captable.Errorf("pre_round_shares", "pre-round share count must be positive, got %d", preRoundShares)
	}

	conv := &Conversion{
		Holder:      note.Holder,
		RoundName:   round.Name,
		AmountCents: note.AmountCents,
		// MFN terms may need retroactive matching against later notes;
		// that judgment belongs to the caller, not this engine.
		NeedsMFNReview: note.MostFavoredNation || note.Mode == captable.NoteMFNOnly,
	}

	roundPrice := money.FromCents(round.PricePerShareCents)

	var capPrice, discountPrice *decimal.Decimal
	switch note.Mode {
	case captable.NoteValuationCap, captable.NoteCapAndDiscount:
		if note.ValuationCapCents <= 0 {
			return nil, captable.Errorf("valuation_cap_cents", "conversion mode %s requires a positive valuation cap", note.Mode)
		}
		p, err := e.mctx.Div(money.FromCents(note.ValuationCapCents), money.FromShares(preRoundShares))
		if err != nil {
			return nil, err
		}
		capPrice = &p
	}
	switch note.Mode {
	case captable.NoteDiscount, captable.NoteCapAndDiscount:
		if note.DiscountRate <= 0 || note.DiscountRate >= 1 {
			return nil, captable.Errorf("discount_rate", "discount rate %v out of range (0, 1)", note.DiscountRate)
		}
		p := e.mctx.Round(roundPrice.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(note.DiscountRate))))
		discountPrice = &p
	}

	var price decimal.Decimal
	switch {
	case capPrice != nil && discountPrice != nil:
		price = decimal.Min(*capPrice, *discountPrice)
	case capPrice != nil:
		price = *capPrice
	case discountPrice != nil:
		price = *discountPrice
	default:
		// MFN_ONLY carries no pricing mechanics of its own; it converts
		// at the round price and is flagged for review.
		price = roundPrice
	}

	if !price.IsPositive() {
		return nil, &money.NumericError{Op: "note_conversion", Message: "conversion price is not positive"}
	}

	shares, err := e.mctx.FloorShares(money.FromCents(note.AmountCents), price)
	if err != nil {
		return nil, err
	}

	conv.ConversionPrice = price
	conv.CapPrice = capPrice
	conv.DiscountPrice = discountPrice
	conv.SharesIssued = shares
	conv.Position = captable.Position{
		ID:     "note:" + round.Name + ":" + note.Holder,
		Name:   note.Holder + " (converted note)",
		Shares: shares,
		Class:  captable.ClassPreferred,
	}
	return conv, nil
}
