package analysis

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/scenario"
)

// SweepPoint is one sensitivity sample: the tested parameter value and
// the per-stakeholder / per-exit deltas against the unmodified base run.
type SweepPoint struct {
	Value float64 `json:"value"`

	// OwnershipDeltaPct maps stakeholder id to (point ownership − base
	// ownership) in percentage points.
	OwnershipDeltaPct map[string]decimal.Decimal `json:"ownership_delta_pct"`

	// ExitReturnDeltaCents maps exit name to (point total return − base
	// total return).
	ExitReturnDeltaCents map[string]int64 `json:"exit_return_delta_cents"`
}

// Sensitivity is a full parameter sweep against one base scenario.
type Sensitivity struct {
	Parameter string           `json:"parameter"`
	Min       float64          `json:"min"`
	Max       float64          `json:"max"`
	Steps     int              `json:"steps"`
	Base      *scenario.Result `json:"base"`
	Points    []SweepPoint     `json:"points"` // exactly steps+1 samples
}

// paramPath matches the supported override targets, e.g.
// "rounds[1].pre_money" or "exits[0].exit_value".
var paramPath = regexp.MustCompile(`^(rounds|exits)\[(\d+)\]\.([a-z_]+)$`)

// Sweep linearly interpolates steps+1 values of one named parameter
// across [min, max], re-runs the orchestrator once per value on a deep
// copy of the base scenario, and records each stakeholder's ownership
// delta and each exit's return delta versus the base run.
func (a *Analyzer) Sweep(ctx context.Context, positions captable.PositionList, base *captable.Scenario, param string, min, max float64, steps int) (*Sensitivity, error) {
	if steps < 1 {
		return nil, captable.Errorf("steps", "step count must be at least 1, got %d", steps)
	}
	if max < min {
		return nil, captable.Errorf("range", "max %v is below min %v", max, min)
	}
	// Fail on a bad path before spending steps+1 runs on it.
	if err := overrideParam(base.Clone(), param, min); err != nil {
		return nil, err
	}

	baseRes, err := a.o.Run(ctx, positions, base)
	if err != nil {
		return nil, err
	}

	baseOwnership := make(map[string]decimal.Decimal)
	for _, line := range baseRes.Summary.FinalOwnership {
		baseOwnership[line.ID] = line.Pct
	}
	baseReturns := make(map[string]int64)
	for _, er := range baseRes.Summary.ExitReturns {
		baseReturns[er.ExitName] = er.TotalDistributedCents
	}

	sens := &Sensitivity{
		Parameter: param,
		Min:       min,
		Max:       max,
		Steps:     steps,
		Base:      baseRes,
	}

	// Each point runs on its own deep copy, so points are independent and
	// run in parallel; indexed writes keep the output order stable.
	points := make([]SweepPoint, steps+1)
	span := (max - min) / float64(steps)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i <= steps; i++ {
		i := i
		g.Go(func() error {
			value := min + span*float64(i)
			sc := base.Clone()
			if err := overrideParam(sc, param, value); err != nil {
				return err
			}

			res, err := a.o.Run(gctx, positions, sc)
			if err != nil {
				return fmt.Errorf("sweep %s=%v: %w", param, value, err)
			}

			point := SweepPoint{
				Value:                value,
				OwnershipDeltaPct:    make(map[string]decimal.Decimal),
				ExitReturnDeltaCents: make(map[string]int64),
			}
			for _, line := range res.Summary.FinalOwnership {
				point.OwnershipDeltaPct[line.ID] = line.Pct.Sub(baseOwnership[line.ID])
			}
			for _, er := range res.Summary.ExitReturns {
				point.ExitReturnDeltaCents[er.ExitName] = er.TotalDistributedCents - baseReturns[er.ExitName]
			}
			points[i] = point
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sens.Points = points

	return sens, nil
}

// overrideParam sets one scalar parameter on the scenario in place.
func overrideParam(sc *captable.Scenario, param string, value float64) error {
	m := paramPath.FindStringSubmatch(param)
	if m == nil {
		return captable.Errorf("parameter", "unsupported parameter path %q", param)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return captable.Errorf("parameter", "bad index in %q", param)
	}

	switch m[1] {
	case "rounds":
		if idx >= len(sc.Rounds) {
			return captable.Errorf("parameter", "round index %d out of range (%d rounds)", idx, len(sc.Rounds))
		}
		r := &sc.Rounds[idx]
		switch m[3] {
		case "pre_money":
			r.PreMoneyCents = int64(value)
		case "investment":
			r.InvestmentCents = int64(value)
		case "price_per_share":
			r.PricePerShareCents = int64(value)
		case "option_pool_pct":
			r.OptionPoolPct = value
		default:
			return captable.Errorf("parameter", "unsupported round field %q", m[3])
		}
	case "exits":
		if idx >= len(sc.Exits) {
			return captable.Errorf("parameter", "exit index %d out of range (%d exits)", idx, len(sc.Exits))
		}
		switch m[3] {
		case "exit_value":
			sc.Exits[idx].ExitValueCents = int64(value)
		case "probability":
			sc.Exits[idx].Probability = value
		default:
			return captable.Errorf("parameter", "unsupported exit field %q", m[3])
		}
	}
	return nil
}
