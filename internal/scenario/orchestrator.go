// Package scenario sequences the modeling engines across a scenario's
// rounds and exits: note conversion, dilution, anti-dilution per round,
// then one waterfall per exit, producing a consolidated result.
package scenario

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/capmodel/internal/antidilution"
	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/config"
	"github.com/sells-group/capmodel/internal/dilution"
	"github.com/sells-group/capmodel/internal/money"
	"github.com/sells-group/capmodel/internal/notes"
	"github.com/sells-group/capmodel/internal/waterfall"
)

// Orchestrator wires the engines together under one arithmetic context.
// It is pure with respect to its inputs: no shared mutable state, no
// side effects beyond the returned result.
type Orchestrator struct {
	cfg   config.ModelingConfig
	mctx  *money.Context
	dil   *dilution.Engine
	anti  *antidilution.Engine
	notes *notes.Engine
	wf    *waterfall.Engine
}

// New builds an orchestrator, capturing the modeling configuration at
// construction.
func New(cfg config.ModelingConfig) (*Orchestrator, error) {
	mctx, err := money.NewContext(cfg.DecimalPrecision, money.RoundingMode(cfg.RoundingMethod))
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:   cfg,
		mctx:  mctx,
		dil:   dilution.NewEngine(mctx),
		anti:  antidilution.NewEngine(mctx),
		notes: notes.NewEngine(mctx),
		wf:    waterfall.NewEngine(mctx),
	}, nil
}

// seriesTerms carries the preference terms of one preferred position,
// accumulated from the round that created it, for waterfall mapping.
type seriesTerms struct {
	originalPrice        decimal.Decimal // cents, fractional for note conversions
	investmentCents      int64
	prefMultiple         float64
	participation        captable.ParticipationRights
	participationCapMult float64
	seniority            int
	protection           captable.AntiDilutionType

	// currentPrice tracks the effective conversion price after any
	// anti-dilution adjustments; starts at the original issue price.
	currentPrice decimal.Decimal
}

// Run validates the whole scenario up front, then simulates each round
// in order and each exit against the final cap table. Cancellation is
// checked between rounds and before each waterfall; a cancelled run
// returns ctx.Err() with no partial result.
func (o *Orchestrator) Run(ctx context.Context, positions captable.PositionList, sc *captable.Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := positions.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Scenario: sc}
	terms := make(map[string]*seriesTerms)
	current := positions.Clone()

	for _, round := range sc.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		round = o.applyDefaults(round)

		if round.ConvertToCommon {
			current = convertPreferred(current, terms)
		}

		createdThisRound := make(map[string]bool)

		// Notes convert first: their shares dilute the round's new money.
		for _, note := range round.Notes {
			conv, err := o.notes.Convert(note, round, current.TotalShares())
			if err != nil {
				return nil, eris.Wrapf(err, "scenario: convert note %s in round %s", note.Holder, round.Name)
			}
			res.NoteConversions = append(res.NoteConversions, *conv)
			if conv.SharesIssued > 0 {
				current = append(current, conv.Position)
				createdThisRound[conv.Position.ID] = true
				terms[conv.Position.ID] = &seriesTerms{
					originalPrice:        conv.ConversionPrice,
					investmentCents:      note.AmountCents,
					prefMultiple:         round.LiquidationPrefMultiple,
					participation:        round.Participation,
					participationCapMult: round.ParticipationCapMultiple,
					seniority:            round.Seniority,
					protection:           round.AntiDilution,
					currentPrice:         conv.ConversionPrice,
				}
			}
		}

		preRound := current.Clone()

		dr, err := o.dil.Apply(current, round)
		if err != nil {
			return nil, eris.Wrapf(err, "scenario: round %s", round.Name)
		}
		res.Rounds = append(res.Rounds, *dr)
		current = dr.Positions

		terms["investor:"+round.Name] = &seriesTerms{
			originalPrice:        money.FromCents(round.PricePerShareCents),
			investmentCents:      round.InvestmentCents,
			prefMultiple:         round.LiquidationPrefMultiple,
			participation:        round.Participation,
			participationCapMult: round.ParticipationCapMultiple,
			seniority:            round.Seniority,
			protection:           round.AntiDilution,
			currentPrice:         money.FromCents(round.PricePerShareCents),
		}

		// Down-round protection for series issued in earlier rounds.
		for _, p := range preRound {
			st, ok := terms[p.ID]
			if !ok || createdThisRound[p.ID] {
				continue
			}
			series := antidilution.ProtectedSeries{
				Name:          p.Name,
				OriginalPrice: st.originalPrice,
				Shares:        p.Shares,
				Protection:    st.protection,
			}
			adj, err := o.anti.Adjust(series, round, preRound, dr.NewShares)
			if err != nil {
				return nil, eris.Wrapf(err, "scenario: anti-dilution for %s in round %s", p.Name, round.Name)
			}
			if adj != nil {
				res.Adjustments = append(res.Adjustments, *adj)
				if adj.NewPrice.LessThan(st.currentPrice) {
					st.currentPrice = adj.NewPrice
				}
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	holders, err := o.buildHolders(current, terms)
	if err != nil {
		return nil, err
	}

	for _, exit := range sc.Exits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wr, err := o.wf.Distribute(holders, exit)
		if err != nil {
			return nil, eris.Wrapf(err, "scenario: exit %s", exit.Name)
		}
		res.Waterfalls = append(res.Waterfalls, *wr)
	}

	if err := o.summarize(res, current); err != nil {
		return nil, err
	}
	o.estimateTaxes(res, positions)

	return res, nil
}

// applyDefaults fills unset enhanced terms from the modeling
// configuration.
func (o *Orchestrator) applyDefaults(r captable.Round) captable.Round {
	if r.IssuedClass == "" {
		r.IssuedClass = captable.ClassPreferred
	}
	if r.AntiDilution == "" {
		r.AntiDilution = captable.AntiDilutionType(o.cfg.DefaultAntiDilutionType)
	}
	if r.LiquidationPrefMultiple == 0 {
		r.LiquidationPrefMultiple = o.cfg.DefaultLiquidationMultiple
	}
	if r.Participation == "" {
		r.Participation = captable.ParticipationRights(o.cfg.DefaultParticipationRights)
	}
	return r
}

// convertPreferred turns every preferred position into common and drops
// its preference terms.
func convertPreferred(pl captable.PositionList, terms map[string]*seriesTerms) captable.PositionList {
	out := pl.Clone()
	for i := range out {
		if out[i].Class == captable.ClassPreferred {
			out[i].Class = captable.ClassCommon
			delete(terms, out[i].ID)
		}
	}
	return out
}

// buildHolders maps final positions into waterfall inputs, applying any
// accumulated anti-dilution conversion ratio to as-converted share
// counts and the original-issue-price preference formula.
func (o *Orchestrator) buildHolders(pl captable.PositionList, terms map[string]*seriesTerms) ([]waterfall.Holder, error) {
	holders := make([]waterfall.Holder, 0, len(pl))
	for _, p := range pl {
		h := waterfall.Holder{
			ID:     p.ID,
			Name:   p.Name,
			Class:  p.Class,
			Shares: p.Shares,
		}
		if st, ok := terms[p.ID]; ok && p.Class == captable.ClassPreferred {
			ratio, err := o.mctx.Div(st.originalPrice, st.currentPrice)
			if err != nil {
				return nil, err
			}
			h.Shares = money.FromShares(p.Shares).Mul(ratio).Floor().IntPart()
			h.OriginalInvestmentCents = st.investmentCents
			h.LiquidationPrefCents = money.FromShares(p.Shares).
				Mul(st.originalPrice).
				Mul(decimal.NewFromFloat(st.prefMultiple)).
				Floor().IntPart()
			h.PrefMultiple = st.prefMultiple
			h.Participation = st.participation
			h.ParticipationCapMultiple = st.participationCapMult
			h.Seniority = st.seniority
		} else if p.Class == captable.ClassPreferred {
			// Pre-existing preferred with unknown terms: no preference
			// claim, configured default participation.
			h.Participation = captable.ParticipationRights(o.cfg.DefaultParticipationRights)
		}
		holders = append(holders, h)
	}
	return holders, nil
}

// summarize derives final ownership, raise totals, and per-exit returns.
func (o *Orchestrator) summarize(res *Result, final captable.PositionList) error {
	total := money.FromShares(final.TotalShares())
	for _, p := range final {
		pct, err := o.mctx.Percent(money.FromShares(p.Shares), total)
		if err != nil {
			return err
		}
		res.Summary.FinalOwnership = append(res.Summary.FinalOwnership, OwnershipLine{
			ID: p.ID, Name: p.Name, Class: p.Class, Shares: p.Shares, Pct: pct,
		})
	}

	var raised int64
	for _, r := range res.Scenario.Rounds {
		raised += r.InvestmentCents
		for _, n := range r.Notes {
			raised += n.AmountCents
		}
	}
	res.Summary.TotalRaisedCents = raised
	if len(res.Rounds) > 0 {
		res.Summary.FinalPostMoneyCents = res.Rounds[len(res.Rounds)-1].PostMoneyCents
	}

	for _, wr := range res.Waterfalls {
		er := ExitReturn{
			ExitName:              wr.ExitName,
			ExitValueCents:        wr.ExitValueCents,
			TotalDistributedCents: wr.TotalDistributedCents,
		}
		if raised > 0 {
			mult, err := o.mctx.Div(money.FromCents(wr.TotalDistributedCents), money.FromCents(raised))
			if err != nil {
				return err
			}
			er.ReturnMultiple = mult
		}
		res.Summary.ExitReturns = append(res.Summary.ExitReturns, er)
	}
	return nil
}

// estimateTaxes attaches advisory per-holder tax lines to every exit,
// using the configured default rates against gross proceeds. Positions
// already on the starting cap table count as long-term holdings taxed at
// the capital-gains rate; positions created during the simulated rounds
// are taxed as ordinary income. Option-pool proceeds additionally get an
// AMT estimate, and the federal line is the greater of the regular and
// AMT figures.
func (o *Orchestrator) estimateTaxes(res *Result, original captable.PositionList) {
	gains := decimal.NewFromFloat(o.cfg.DefaultTaxRates.CapitalGains)
	ordinary := decimal.NewFromFloat(o.cfg.DefaultTaxRates.OrdinaryIncome)
	amt := decimal.NewFromFloat(o.cfg.DefaultTaxRates.AMT)
	state := decimal.NewFromFloat(o.cfg.DefaultTaxRates.State)

	preExisting := make(map[string]bool, len(original))
	for _, p := range original {
		preExisting[p.ID] = true
	}

	for _, wr := range res.Waterfalls {
		for _, p := range wr.Payouts {
			if p.TotalCents == 0 {
				continue
			}
			gross := money.FromCents(p.TotalCents)

			te := TaxEstimate{
				HolderID:   p.ID,
				HolderName: p.Name,
				ExitName:   wr.ExitName,
				GrossCents: p.TotalCents,
				LongTerm:   preExisting[p.ID],
				StateCents: gross.Mul(state).Floor().IntPart(),
			}
			if te.LongTerm {
				te.CapitalGainsCents = gross.Mul(gains).Floor().IntPart()
			} else {
				te.OrdinaryIncomeCents = gross.Mul(ordinary).Floor().IntPart()
			}
			if strings.HasPrefix(p.ID, "pool:") {
				te.AlternativeMinCents = gross.Mul(amt).Floor().IntPart()
			}

			federal := te.CapitalGainsCents + te.OrdinaryIncomeCents
			if te.AlternativeMinCents > federal {
				federal = te.AlternativeMinCents
			}
			te.TotalTaxCents = federal + te.StateCents
			te.NetCents = p.TotalCents - te.TotalTaxCents

			res.TaxEstimates = append(res.TaxEstimates, te)
		}
	}
}
