// Package waterfall distributes exit proceeds across a cap table in
// preference order: liquidation preferences by seniority, then
// participation, with capped participation clamped and its excess
// redistributed.
package waterfall

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/money"
)

// Engine runs exit distributions under a fixed arithmetic context.
type Engine struct {
	mctx *money.Context
}

// NewEngine creates a waterfall engine.
func NewEngine(mctx *money.Context) *Engine {
	return &Engine{mctx: mctx}
}

// Distribute computes every holder's payout at the given exit value.
//
// Order of operations: liquidation preferences are paid strictly by
// seniority rank descending: an unmet senior preference blocks all
// junior and common payouts; whatever remains is split pro-rata by
// as-converted shares among common holders and participating preferred;
// capped participants are clamped at capMultiple × original investment
// and their excess is redistributed among the still-eligible holders.
// When the exit scenario forces conversion to common, preferences are
// skipped entirely and the whole exit is split pro-rata.
func (e *Engine) Distribute(holders []Holder, exit captable.ExitScenario) (*Result, error) {
	if len(holders) == 0 {
		return nil, captable.Errorf("holders", "holder list is empty")
	}
	if exit.ExitValueCents < 0 {
		return nil, captable.Errorf("exit_value_cents", "exit value must not be negative, got %d", exit.ExitValueCents)
	}
	for i, h := range holders {
		if h.Shares < 0 {
			return nil, captable.Errorf("holders", "holder %d has negative share count %d", i, h.Shares)
		}
		if h.Participation != "" && !h.Participation.Valid() {
			return nil, captable.Errorf("holders", "holder %d has unrecognized participation rights %q", i, h.Participation)
		}
	}

	res := &Result{
		ExitName:       exit.Name,
		ExitValueCents: exit.ExitValueCents,
		Payouts:        make([]Payout, len(holders)),
	}
	for i, h := range holders {
		res.Payouts[i] = Payout{ID: h.ID, Name: h.Name}
	}

	remaining := exit.ExitValueCents

	if exit.ConvertAllToCommon {
		e.distributeAsConverted(holders, remaining, res)
	} else {
		remaining = e.payPreferences(holders, remaining, res)
		e.payParticipation(holders, remaining, res)
	}

	exitDec := money.FromCents(exit.ExitValueCents)
	for i := range res.Payouts {
		p := &res.Payouts[i]
		p.TotalCents = p.PreferenceCents + p.ParticipationCents + p.CommonCents
		if exit.ExitValueCents > 0 {
			pct, err := e.mctx.Percent(money.FromCents(p.TotalCents), exitDec)
			if err != nil {
				return nil, err
			}
			p.PctOfExit = pct
		} else {
			p.PctOfExit = decimal.Zero
		}
		res.TotalPreferenceCents += p.PreferenceCents
		res.TotalParticipationCents += p.ParticipationCents
		res.TotalCommonCents += p.CommonCents
		res.TotalDistributedCents += p.TotalCents
	}

	return res, nil
}

// distributeAsConverted splits the full exit pro-rata by as-converted
// shares, ignoring every preference term.
func (e *Engine) distributeAsConverted(holders []Holder, amount int64, res *Result) {
	idx := make([]int, 0, len(holders))
	weights := make([]int64, 0, len(holders))
	for i, h := range holders {
		if h.Shares > 0 {
			idx = append(idx, i)
			weights = append(weights, h.Shares)
		}
	}
	for j, share := range proRata(amount, weights) {
		res.Payouts[idx[j]].CommonCents += share
	}
}

// payPreferences pays liquidation preferences by seniority rank
// descending. Holders at the same rank are pari passu: a shortfall is
// split pro-rata by preference amount. Returns the funds left over.
func (e *Engine) payPreferences(holders []Holder, remaining int64, res *Result) int64 {
	order := make([]int, len(holders))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return holders[order[a]].Seniority > holders[order[b]].Seniority
	})

	for start := 0; start < len(order) && remaining > 0; {
		rank := holders[order[start]].Seniority
		end := start
		var rankClaims int64
		for end < len(order) && holders[order[end]].Seniority == rank {
			rankClaims += holders[order[end]].LiquidationPrefCents
			end++
		}

		if rankClaims <= remaining {
			for _, i := range order[start:end] {
				res.Payouts[i].PreferenceCents = holders[i].LiquidationPrefCents
			}
			remaining -= rankClaims
		} else {
			// Shortfall at this rank: pari passu split, juniors get nothing.
			idx := make([]int, 0, end-start)
			weights := make([]int64, 0, end-start)
			for _, i := range order[start:end] {
				if holders[i].LiquidationPrefCents > 0 {
					idx = append(idx, i)
					weights = append(weights, holders[i].LiquidationPrefCents)
				}
			}
			for j, share := range proRata(remaining, weights) {
				res.Payouts[idx[j]].PreferenceCents = share
			}
			remaining = 0
		}
		start = end
	}

	return remaining
}

// payParticipation splits the post-preference remainder pro-rata by
// as-converted shares among common holders and participating preferred.
// Capped participants are clamped at capMultiple × original investment;
// clamped excess returns to the pool for the remaining eligible holders.
func (e *Engine) payParticipation(holders []Holder, remaining int64, res *Result) {
	if remaining <= 0 {
		return
	}

	active := make([]int, 0, len(holders))
	for i, h := range holders {
		if participates(h) && h.Shares > 0 {
			active = append(active, i)
		}
	}

	for remaining > 0 && len(active) > 0 {
		weights := make([]int64, len(active))
		for j, i := range active {
			weights[j] = holders[i].Shares
		}
		alloc := proRata(remaining, weights)

		next := active[:0:0]
		clamped := false
		for j, i := range active {
			h := holders[i]
			give := alloc[j]
			if h.Participation == captable.ParticipationCapped {
				room := capRoom(h, res.Payouts[i])
				if give >= room {
					give = room
					clamped = true
					// Saturated; excess stays in the pool for the rest.
				} else {
					next = append(next, i)
				}
			} else {
				next = append(next, i)
			}
			credit(&res.Payouts[i], h, give)
			remaining -= give
		}

		if !clamped {
			break
		}
		active = next
	}
}

// capRoom returns how many more cents a capped holder may receive before
// hitting capMultiple × original investment across preference and
// participation combined.
func capRoom(h Holder, p Payout) int64 {
	limit := decimal.NewFromFloat(h.ParticipationCapMultiple).
		Mul(money.FromCents(h.OriginalInvestmentCents)).
		Floor().IntPart()
	room := limit - p.PreferenceCents - p.ParticipationCents
	if room < 0 {
		return 0
	}
	return room
}

// credit books a participation allocation on the right payout line:
// common holders receive common proceeds, preferred receive
// participation proceeds.
func credit(p *Payout, h Holder, amount int64) {
	if h.Class == captable.ClassCommon {
		p.CommonCents += amount
	} else {
		p.ParticipationCents += amount
	}
}

// participates reports whether a holder shares in post-preference
// proceeds: all common, plus preferred with FULL or CAPPED rights.
// Non-participating preferred already took its preference and is done.
func participates(h Holder) bool {
	if h.Class == captable.ClassCommon {
		return true
	}
	return h.Participation == captable.ParticipationFull || h.Participation == captable.ParticipationCapped
}

// proRata splits amount across weights exactly: floors first, then hands
// the leftover cents to the largest fractional remainders so the parts
// always sum to amount. Weights must be positive.
func proRata(amount int64, weights []int64) []int64 {
	out := make([]int64, len(weights))
	if amount <= 0 || len(weights) == 0 {
		return out
	}
	var total decimal.Decimal
	for _, w := range weights {
		total = total.Add(decimal.NewFromInt(w))
	}
	if total.IsZero() {
		return out
	}

	amountDec := decimal.NewFromInt(amount)
	fracs := make([]decimal.Decimal, len(weights))
	var allocated int64
	for i, w := range weights {
		q := amountDec.Mul(decimal.NewFromInt(w)).DivRound(total, 30)
		f := q.Floor()
		out[i] = f.IntPart()
		fracs[i] = q.Sub(f)
		allocated += out[i]
	}

	leftover := amount - allocated
	if leftover <= 0 {
		return out
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]].GreaterThan(fracs[order[b]])
	})
	for k := int64(0); k < leftover; k++ {
		out[order[int(k)%len(order)]]++
	}
	return out
}
