package captable

import "fmt"

// Round holds the terms of one priced financing round. The basic pricing
// fields are always required; the preference, participation, seniority,
// and note fields are optional enhancements and default to the modeling
// configuration when zero-valued. One flat record replaces a basic vs
// enhanced subtype split: enhancement is optional data, not a new type.
type Round struct {
	Name               string     `json:"name" yaml:"name"`
	PreMoneyCents      int64      `json:"pre_money_cents" yaml:"pre_money_cents"`
	InvestmentCents    int64      `json:"investment_cents" yaml:"investment_cents"`
	PricePerShareCents int64      `json:"price_per_share_cents" yaml:"price_per_share_cents"`
	IssuedClass        ShareClass `json:"issued_class" yaml:"issued_class"`

	// OptionPoolPct tops up the option pool, expressed in percentage
	// points (10 means 10%). Zero means no top-up.
	OptionPoolPct float64 `json:"option_pool_pct,omitempty" yaml:"option_pool_pct,omitempty"`

	// ConvertToCommon models an optional preferred-to-common conversion
	// alongside the round.
	ConvertToCommon bool `json:"convert_to_common,omitempty" yaml:"convert_to_common,omitempty"`

	// Enhanced terms. Zero values fall back to configured defaults.
	AntiDilution             AntiDilutionType    `json:"anti_dilution,omitempty" yaml:"anti_dilution,omitempty"`
	LiquidationPrefMultiple  float64             `json:"liquidation_pref_multiple,omitempty" yaml:"liquidation_pref_multiple,omitempty"`
	Participation            ParticipationRights `json:"participation,omitempty" yaml:"participation,omitempty"`
	ParticipationCapMultiple float64             `json:"participation_cap_multiple,omitempty" yaml:"participation_cap_multiple,omitempty"`
	DividendRatePct          float64             `json:"dividend_rate_pct,omitempty" yaml:"dividend_rate_pct,omitempty"`
	Seniority                int                 `json:"seniority,omitempty" yaml:"seniority,omitempty"`

	// Notes converting into this round, applied before the round's own
	// dilution math.
	Notes []ConvertibleNote `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ConvertibleNote is a convertible instrument converting at a priced
// round, at the more favorable of cap-implied and discount-implied price
// when both apply.
type ConvertibleNote struct {
	Holder            string             `json:"holder" yaml:"holder"`
	AmountCents       int64              `json:"amount_cents" yaml:"amount_cents"`
	Mode              NoteConversionMode `json:"mode" yaml:"mode"`
	ValuationCapCents int64              `json:"valuation_cap_cents,omitempty" yaml:"valuation_cap_cents,omitempty"`
	DiscountRate      float64            `json:"discount_rate,omitempty" yaml:"discount_rate,omitempty"`
	MostFavoredNation bool               `json:"most_favored_nation,omitempty" yaml:"most_favored_nation,omitempty"`
	ProRata           bool               `json:"pro_rata,omitempty" yaml:"pro_rata,omitempty"`
}

// ExitScenario is one liquidity event to evaluate the final cap table
// against.
type ExitScenario struct {
	Name           string   `json:"name" yaml:"name"`
	ExitValueCents int64    `json:"exit_value_cents" yaml:"exit_value_cents"`
	Type           ExitType `json:"type" yaml:"type"`
	Probability    float64  `json:"probability,omitempty" yaml:"probability,omitempty"`

	// ConvertAllToCommon waives every preference and distributes the
	// whole exit pro-rata by as-converted shares.
	ConvertAllToCommon bool `json:"convert_all_to_common,omitempty" yaml:"convert_all_to_common,omitempty"`
}

// validate checks a round's terms at the given index within a scenario.
func (r Round) validate(idx int) []error {
	var errs []error
	if r.Name == "" {
		errs = append(errs, Errorf(field("rounds", idx, "name"), "round name is required"))
	}
	if r.PreMoneyCents <= 0 {
		errs = append(errs, Errorf(field("rounds", idx, "pre_money_cents"), "pre-money valuation must be positive, got %d", r.PreMoneyCents))
	}
	if r.InvestmentCents <= 0 {
		errs = append(errs, Errorf(field("rounds", idx, "investment_cents"), "investment must be positive, got %d", r.InvestmentCents))
	}
	if r.PricePerShareCents <= 0 {
		errs = append(errs, Errorf(field("rounds", idx, "price_per_share_cents"), "price per share must be positive, got %d", r.PricePerShareCents))
	}
	if r.IssuedClass != "" && !r.IssuedClass.Valid() {
		errs = append(errs, Errorf(field("rounds", idx, "issued_class"), "unrecognized share class %q", r.IssuedClass))
	}
	if r.OptionPoolPct < 0 || r.OptionPoolPct >= 100 {
		errs = append(errs, Errorf(field("rounds", idx, "option_pool_pct"), "option pool percentage %v out of range [0, 100)", r.OptionPoolPct))
	}
	if r.AntiDilution != "" && !r.AntiDilution.Valid() {
		errs = append(errs, Errorf(field("rounds", idx, "anti_dilution"), "unrecognized anti-dilution type %q", r.AntiDilution))
	}
	if r.LiquidationPrefMultiple < 0 {
		errs = append(errs, Errorf(field("rounds", idx, "liquidation_pref_multiple"), "liquidation preference multiple must not be negative"))
	}
	if r.Participation != "" && !r.Participation.Valid() {
		errs = append(errs, Errorf(field("rounds", idx, "participation"), "unrecognized participation rights %q", r.Participation))
	}
	if r.Participation == ParticipationCapped && r.ParticipationCapMultiple <= 0 {
		errs = append(errs, Errorf(field("rounds", idx, "participation_cap_multiple"), "capped participation requires a positive cap multiple"))
	}
	if r.DividendRatePct < 0 {
		errs = append(errs, Errorf(field("rounds", idx, "dividend_rate_pct"), "dividend rate must not be negative"))
	}
	for j, n := range r.Notes {
		errs = append(errs, n.validate(idx, j)...)
	}
	return errs
}

// validate checks a note nested in round idx at note index j.
func (n ConvertibleNote) validate(idx, j int) []error {
	base := fmt.Sprintf("rounds[%d].notes[%d]", idx, j)
	var errs []error
	if n.Holder == "" {
		errs = append(errs, Errorf(base+".holder", "note holder is required"))
	}
	if n.AmountCents <= 0 {
		errs = append(errs, Errorf(base+".amount_cents", "note amount must be positive, got %d", n.AmountCents))
	}
	if !n.Mode.Valid() {
		errs = append(errs, Errorf(base+".mode", "unrecognized conversion mode %q", n.Mode))
	}
	switch n.Mode {
	case NoteValuationCap, NoteCapAndDiscount:
		if n.ValuationCapCents <= 0 {
			errs = append(errs, Errorf(base+".valuation_cap_cents", "conversion mode %s requires a positive valuation cap", n.Mode))
		}
	}
	switch n.Mode {
	case NoteDiscount, NoteCapAndDiscount:
		if n.DiscountRate <= 0 || n.DiscountRate >= 1 {
			errs = append(errs, Errorf(base+".discount_rate", "discount rate %v out of range (0, 1)", n.DiscountRate))
		}
	}
	return errs
}

// validate checks an exit at index idx.
func (e ExitScenario) validate(idx int) []error {
	var errs []error
	if e.Name == "" {
		errs = append(errs, Errorf(field("exits", idx, "name"), "exit name is required"))
	}
	if e.ExitValueCents < 0 {
		errs = append(errs, Errorf(field("exits", idx, "exit_value_cents"), "exit value must not be negative, got %d", e.ExitValueCents))
	}
	if e.Type != "" && !e.Type.Valid() {
		errs = append(errs, Errorf(field("exits", idx, "type"), "unrecognized exit type %q", e.Type))
	}
	if e.Probability < 0 || e.Probability > 1 {
		errs = append(errs, Errorf(field("exits", idx, "probability"), "probability %v out of range [0, 1]", e.Probability))
	}
	return errs
}
