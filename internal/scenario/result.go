package scenario

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/capmodel/internal/antidilution"
	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/dilution"
	"github.com/sells-group/capmodel/internal/notes"
	"github.com/sells-group/capmodel/internal/waterfall"
)

// Result is the consolidated output of one scenario run: plain data with
// no behavior, safe to serialize and hand to rendering code.
type Result struct {
	Scenario        *captable.Scenario        `json:"scenario"`
	Rounds          []dilution.Result         `json:"rounds"`
	Adjustments     []antidilution.Adjustment `json:"adjustments,omitempty"`
	NoteConversions []notes.Conversion        `json:"note_conversions,omitempty"`
	Waterfalls      []waterfall.Result        `json:"waterfalls"`
	Summary         Summary                   `json:"summary"`
	TaxEstimates    []TaxEstimate             `json:"tax_estimates,omitempty"`
}

// Summary condenses the run for reporting.
type Summary struct {
	FinalOwnership      []OwnershipLine `json:"final_ownership"`
	TotalRaisedCents    int64           `json:"total_raised_cents"`
	FinalPostMoneyCents int64           `json:"final_post_money_cents"`
	ExitReturns         []ExitReturn    `json:"exit_returns"`
}

// OwnershipLine is one holder's final stake.
type OwnershipLine struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Class  captable.ShareClass `json:"class"`
	Shares int64               `json:"shares"`
	Pct    decimal.Decimal     `json:"pct"`
}

// ExitReturn summarizes one exit scenario's aggregate outcome.
type ExitReturn struct {
	ExitName              string          `json:"exit_name"`
	ExitValueCents        int64           `json:"exit_value_cents"`
	TotalDistributedCents int64           `json:"total_distributed_cents"`
	ReturnMultiple        decimal.Decimal `json:"return_multiple"` // distributed / total raised
}

// TaxEstimate is an advisory per-holder, per-exit estimate computed from
// the configured default rates. It is not filing advice: basis is assumed
// zero, holding period reduces to whether the position predates the first
// modeled round, and AMT is estimated only on option-pool proceeds.
type TaxEstimate struct {
	HolderID   string `json:"holder_id"`
	HolderName string `json:"holder_name"`
	ExitName   string `json:"exit_name"`
	GrossCents int64  `json:"gross_cents"`

	// LongTerm holds for positions that existed before the first modeled
	// round; their proceeds are taxed at the capital-gains rate, everything
	// else at the ordinary-income rate.
	LongTerm            bool  `json:"long_term"`
	CapitalGainsCents   int64 `json:"capital_gains_cents"`
	OrdinaryIncomeCents int64 `json:"ordinary_income_cents"`
	AlternativeMinCents int64 `json:"alternative_min_cents"`
	StateCents          int64 `json:"state_cents"`
	TotalTaxCents       int64 `json:"total_tax_cents"`
	NetCents            int64 `json:"net_cents"`
}
