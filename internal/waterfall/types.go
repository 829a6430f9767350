package waterfall

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/capmodel/internal/captable"
)

// Holder is one stakeholder entering the exit distribution, annotated
// with the preference terms accumulated from the round that created the
// position. Common holders carry zero preference fields.
type Holder struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Class captable.ShareClass `json:"class"`

	// Shares is the as-converted share count, with any anti-dilution
	// conversion ratio already applied.
	Shares int64 `json:"shares"`

	OriginalInvestmentCents int64 `json:"original_investment_cents"`

	// LiquidationPrefCents = shares × original issue price × multiple,
	// precomputed by the caller.
	LiquidationPrefCents int64   `json:"liquidation_pref_cents"`
	PrefMultiple         float64 `json:"pref_multiple"`

	Participation            captable.ParticipationRights `json:"participation"`
	ParticipationCapMultiple float64                      `json:"participation_cap_multiple"`

	// Seniority orders preference payment; higher ranks are paid first.
	Seniority int `json:"seniority"`
}

// Payout is one holder's share of the exit proceeds, split by source.
type Payout struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	PreferenceCents    int64           `json:"preference_cents"`
	ParticipationCents int64           `json:"participation_cents"`
	CommonCents        int64           `json:"common_cents"`
	TotalCents         int64           `json:"total_cents"`
	PctOfExit          decimal.Decimal `json:"pct_of_exit"`
}

// Result is the full distribution for one exit scenario.
type Result struct {
	ExitName                string   `json:"exit_name"`
	ExitValueCents          int64    `json:"exit_value_cents"`
	Payouts                 []Payout `json:"payouts"`
	TotalPreferenceCents    int64    `json:"total_preference_cents"`
	TotalParticipationCents int64    `json:"total_participation_cents"`
	TotalCommonCents        int64    `json:"total_common_cents"`
	TotalDistributedCents   int64    `json:"total_distributed_cents"`
}
