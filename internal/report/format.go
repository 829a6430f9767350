// Package report formats engine output for display. Engines emit plain
// integers and decimals; every human-facing string is produced here at
// the presentation boundary.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/capmodel/internal/config"
)

// Formatter renders monetary amounts per the configured currency and
// display scale.
type Formatter struct {
	printer *message.Printer
	symbol  string
	format  string
}

// currencySymbols covers the currencies the product ships with; anything
// else falls back to the ISO code prefix.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// NewFormatter builds a formatter from the modeling configuration.
func NewFormatter(cfg config.ModelingConfig) *Formatter {
	symbol, ok := currencySymbols[cfg.DefaultCurrency]
	if !ok {
		symbol = cfg.DefaultCurrency + " "
	}
	return &Formatter{
		printer: message.NewPrinter(language.English),
		symbol:  symbol,
		format:  cfg.DisplayFormat,
	}
}

// Cents renders a minor-unit amount at the configured scale:
// $12.3M under MILLIONS, $12,345.7K under THOUSANDS, and the grouped
// full amount under ACTUAL.
func (f *Formatter) Cents(v int64) string {
	dollars := decimal.NewFromInt(v).Div(decimal.NewFromInt(100))
	switch f.format {
	case config.DisplayMillions:
		m := dollars.Div(decimal.NewFromInt(1_000_000)).Round(1)
		return fmt.Sprintf("%s%sM", f.symbol, m.String())
	case config.DisplayThousands:
		k := dollars.Div(decimal.NewFromInt(1_000)).Round(1)
		return fmt.Sprintf("%s%sK", f.symbol, k.String())
	default:
		whole := dollars.IntPart()
		frac := dollars.Sub(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100)).Abs().Round(0).IntPart()
		return f.printer.Sprintf("%s%d.%02d", f.symbol, whole, frac)
	}
}

// Pct renders a percentage with two decimal places.
func (f *Formatter) Pct(p decimal.Decimal) string {
	return p.Round(2).String() + "%"
}

// Shares renders a share count with digit grouping.
func (f *Formatter) Shares(v int64) string {
	return f.printer.Sprintf("%d", v)
}

// Multiple renders a return multiple, e.g. "10.0x".
func (f *Formatter) Multiple(m decimal.Decimal) string {
	return m.Round(1).String() + "x"
}
