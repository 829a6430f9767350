// Package dilution computes ownership before and after a single priced
// financing round.
package dilution

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/money"
)

// HolderOutcome is one holder's ownership change across a round.
// Percentages are presentation values derived from integer share counts.
type HolderOutcome struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Class       captable.ShareClass `json:"class"`
	Shares      int64               `json:"shares"`
	PrePct      decimal.Decimal     `json:"pre_pct"`
	PostPct     decimal.Decimal     `json:"post_pct"`
	DilutionPct decimal.Decimal     `json:"dilution_pct"` // pre − post; positive means diluted
}

// Result is an immutable snapshot of one round's effect.
type Result struct {
	RoundName        string                `json:"round_name"`
	PreTotalShares   int64                 `json:"pre_total_shares"`
	PostTotalShares  int64                 `json:"post_total_shares"`
	NewShares        int64                 `json:"new_shares"`
	OptionPoolShares int64                 `json:"option_pool_shares"`
	PostMoneyCents   int64                 `json:"post_money_cents"`
	Holders          []HolderOutcome       `json:"holders"`
	Positions        captable.PositionList `json:"positions"` // post-round position list
}

// Engine applies round dilution math under a fixed arithmetic context.
type Engine struct {
	mctx *money.Context
}

// NewEngine creates a dilution engine bound to the given context.
func NewEngine(mctx *money.Context) *Engine {
	return &Engine{mctx: mctx}
}

// Apply computes the post-round cap table for one priced round.
//
// New-investor shares are floor(investment / price). The option pool, if
// requested, is sized off pre-existing plus new-investor shares before
// the pool itself is added; the pool dilutes founders and new money
// alike. The input position list is never mutated; the result carries a
// fresh list with synthetic "new investor" and "unallocated option pool"
// positions appended.
func (e *Engine) Apply(positions captable.PositionList, round captable.Round) (*Result, error) {
	if err := positions.Validate(); err != nil {
		return nil, err
	}
	if errs := validateRound(round); errs != nil {
		return nil, errs
	}

	preTotal := positions.TotalShares()
	price := money.FromCents(round.PricePerShareCents)

	newShares, err := e.mctx.FloorShares(money.FromCents(round.InvestmentCents), price)
	if err != nil {
		return nil, err
	}

	var poolShares int64
	if round.OptionPoolPct > 0 {
		pct := decimal.NewFromFloat(round.OptionPoolPct).Div(decimal.NewFromInt(100))
		poolShares = money.FromShares(preTotal + newShares).Mul(pct).Floor().IntPart()
	}

	postTotal := preTotal + newShares + poolShares

	issuedClass := round.IssuedClass
	if issuedClass == "" {
		issuedClass = captable.ClassPreferred
	}

	post := positions.Clone()
	post = append(post, captable.Position{
		ID:     "investor:" + round.Name,
		Name:   round.Name + " Investors",
		Shares: newShares,
		Class:  issuedClass,
	})
	if poolShares > 0 {
		post = append(post, captable.Position{
			ID:     "pool:" + round.Name,
			Name:   "Unallocated Option Pool (" + round.Name + ")",
			Shares: poolShares,
			Class:  captable.ClassCommon,
		})
	}

	res := &Result{
		RoundName:        round.Name,
		PreTotalShares:   preTotal,
		PostTotalShares:  postTotal,
		NewShares:        newShares,
		OptionPoolShares: poolShares,
		PostMoneyCents:   round.PreMoneyCents + round.InvestmentCents,
		Positions:        post,
	}

	preTotalDec := money.FromShares(preTotal)
	postTotalDec := money.FromShares(postTotal)
	for _, p := range post {
		h := HolderOutcome{ID: p.ID, Name: p.Name, Class: p.Class, Shares: p.Shares}

		h.PostPct, err = e.mctx.Percent(money.FromShares(p.Shares), postTotalDec)
		if err != nil {
			return nil, err
		}

		if isSynthetic(p.ID, round.Name) {
			// New positions did not exist pre-round; dilution is zero by
			// convention.
			h.PrePct = decimal.Zero
			h.DilutionPct = decimal.Zero
		} else {
			h.PrePct, err = e.mctx.Percent(money.FromShares(p.Shares), preTotalDec)
			if err != nil {
				return nil, err
			}
			h.DilutionPct = h.PrePct.Sub(h.PostPct)
		}

		res.Holders = append(res.Holders, h)
	}

	return res, nil
}

func isSynthetic(id, roundName string) bool {
	return id == "investor:"+roundName || id == "pool:"+roundName
}

func validateRound(r captable.Round) error {
	switch {
	case r.PreMoneyCents <= 0:
		return captable.Errorf("pre_money_cents", "pre-money valuation must be positive, got %d", r.PreMoneyCents)
	case r.InvestmentCents <= 0:
		return captable.Errorf("investment_cents", "investment must be positive, got %d", r.InvestmentCents)
	case r.PricePerShareCents <= 0:
		return captable.Errorf("price_per_share_cents", "price per share must be positive, got %d", r.PricePerShareCents)
	case r.OptionPoolPct < 0 || r.OptionPoolPct >= 100:
		return captable.Errorf("option_pool_pct", "option pool percentage %v out of range [0, 100)", r.OptionPoolPct)
	}
	return nil
}
