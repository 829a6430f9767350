// Package money provides fixed-point decimal arithmetic for monetary and
// share quantities. All amounts enter as integer minor units (cents) or
// integer share counts; decimals exist only between those boundaries, so
// binary floating-point error never touches a stored value.
package money

import (
	"github.com/shopspring/decimal"
)

// RoundingMode selects how division results are rounded at the configured
// precision.
type RoundingMode string

const (
	// RoundHalfEven rounds half to the nearest even digit (banker's rounding).
	RoundHalfEven RoundingMode = "HALF_EVEN"
	// RoundHalfUp rounds half away from zero.
	RoundHalfUp RoundingMode = "HALF_UP"
	// RoundDown truncates toward zero.
	RoundDown RoundingMode = "DOWN"
)

// Valid reports whether m is a recognized rounding mode.
func (m RoundingMode) Valid() bool {
	switch m {
	case RoundHalfEven, RoundHalfUp, RoundDown:
		return true
	}
	return false
}

// MinPrecision is the smallest allowed number of decimal digits.
const MinPrecision = 10

// DefaultPrecision is used when no precision is configured.
const DefaultPrecision = 28

// Context carries the precision and rounding mode for a family of engine
// instances. A Context captures its configuration at construction; later
// configuration changes never affect results already computed through it.
type Context struct {
	precision int32
	mode      RoundingMode
}

// NewContext builds an arithmetic context. Precision is the number of
// decimal digits carried through division (minimum 10) and mode selects
// the rounding behavior at that precision.
func NewContext(precision int32, mode RoundingMode) (*Context, error) {
	if precision < MinPrecision {
		return nil, &NumericError{Op: "context", Message: "decimal precision must be at least 10"}
	}
	if !mode.Valid() {
		return nil, &NumericError{Op: "context", Message: "unrecognized rounding mode " + string(mode)}
	}
	return &Context{precision: precision, mode: mode}, nil
}

// Precision returns the configured decimal precision.
func (c *Context) Precision() int32 { return c.precision }

// Mode returns the configured rounding mode.
func (c *Context) Mode() RoundingMode { return c.mode }

// FromCents converts an integer minor-unit amount to a decimal.
func FromCents(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// FromShares converts an integer share count to a decimal.
func FromShares(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// Div divides a by b, rounding to the context precision with the context
// rounding mode. A zero divisor yields a NumericError.
func (c *Context) Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, &NumericError{Op: "div", Message: "division by zero"}
	}
	// Carry two guard digits so the final rounding step sees the true half.
	q := a.DivRound(b, c.precision+2)
	return c.Round(q), nil
}

// Round applies the context rounding mode at the context precision.
func (c *Context) Round(d decimal.Decimal) decimal.Decimal {
	switch c.mode {
	case RoundHalfUp:
		return d.Round(c.precision)
	case RoundDown:
		return d.Truncate(c.precision)
	default:
		return d.RoundBank(c.precision)
	}
}

// FloorShares divides an amount by a per-share price and floors the result
// to a whole share count. Shares are indivisible, so every share-yielding
// division in the engines goes through here.
func (c *Context) FloorShares(amount, price decimal.Decimal) (int64, error) {
	if price.IsZero() {
		return 0, &NumericError{Op: "floor_shares", Message: "division by zero price"}
	}
	if price.IsNegative() {
		return 0, &NumericError{Op: "floor_shares", Message: "negative price"}
	}
	q := amount.DivRound(price, c.precision+2)
	return q.Floor().IntPart(), nil
}

// Percent returns part/whole expressed in percentage points at the context
// precision. Percentages are presentation values: they are never fed back
// into share or money arithmetic.
func (c *Context) Percent(part, whole decimal.Decimal) (decimal.Decimal, error) {
	if whole.IsZero() {
		return decimal.Zero, &NumericError{Op: "percent", Message: "division by zero total"}
	}
	q, err := c.Div(part.Mul(decimal.NewFromInt(100)), whole)
	if err != nil {
		return decimal.Zero, err
	}
	return q, nil
}
