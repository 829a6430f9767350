package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/capmodel/internal/config"
)

func formatter(displayFormat string) *Formatter {
	cfg := config.Default().Modeling
	cfg.DisplayFormat = displayFormat
	return NewFormatter(cfg)
}

func TestCents_Actual(t *testing.T) {
	f := formatter(config.DisplayActual)
	assert.Equal(t, "$12,345,678.90", f.Cents(1_234_567_890))
	assert.Equal(t, "$0.00", f.Cents(0))
	assert.Equal(t, "$1.50", f.Cents(150))
}

func TestCents_Millions(t *testing.T) {
	f := formatter(config.DisplayMillions)
	assert.Equal(t, "$12.3M", f.Cents(1_234_567_890))
	assert.Equal(t, "$5M", f.Cents(500_000_000))
}

func TestCents_Thousands(t *testing.T) {
	f := formatter(config.DisplayThousands)
	assert.Equal(t, "$500K", f.Cents(50_000_000))
}

func TestCents_UnknownCurrencyFallsBack(t *testing.T) {
	cfg := config.Default().Modeling
	cfg.DefaultCurrency = "SEK"
	f := NewFormatter(cfg)
	assert.Equal(t, "SEK 1.50", f.Cents(150))
}

func TestPct(t *testing.T) {
	f := formatter(config.DisplayActual)
	assert.Equal(t, "54.55%", f.Pct(decimal.RequireFromString("54.5454")))
}

func TestShares(t *testing.T) {
	f := formatter(config.DisplayActual)
	assert.Equal(t, "3,333,333", f.Shares(3_333_333))
}

func TestMultiple(t *testing.T) {
	f := formatter(config.DisplayActual)
	assert.Equal(t, "10x", f.Multiple(decimal.NewFromInt(10)))
	assert.Equal(t, "2.5x", f.Multiple(decimal.RequireFromString("2.49")))
}
