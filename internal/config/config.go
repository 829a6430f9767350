// Package config loads the modeling configuration from file and
// environment and initializes the process logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/capmodel/internal/captable"
	"github.com/sells-group/capmodel/internal/money"
)

// Config holds the full application configuration.
type Config struct {
	Modeling ModelingConfig `yaml:"modeling" mapstructure:"modeling"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ModelingConfig is the engine-facing configuration surface. Every
// engine instance captures these values at construction; changing the
// configuration afterwards never rewrites an already computed result.
type ModelingConfig struct {
	DecimalPrecision int32  `yaml:"decimal_precision" mapstructure:"decimal_precision"`
	RoundingMethod   string `yaml:"rounding_method" mapstructure:"rounding_method"`

	DefaultTaxRates TaxRates `yaml:"default_tax_rates" mapstructure:"default_tax_rates"`

	DefaultAntiDilutionType    string  `yaml:"default_anti_dilution_type" mapstructure:"default_anti_dilution_type"`
	DefaultLiquidationMultiple float64 `yaml:"default_liquidation_multiple" mapstructure:"default_liquidation_multiple"`
	DefaultParticipationRights string  `yaml:"default_participation_rights" mapstructure:"default_participation_rights"`

	DefaultCurrency string `yaml:"default_currency" mapstructure:"default_currency"`
	DisplayFormat   string `yaml:"display_format" mapstructure:"display_format"`
}

// TaxRates are advisory estimate rates, not authoritative tax tables.
type TaxRates struct {
	OrdinaryIncome float64 `yaml:"ordinary_income" mapstructure:"ordinary_income"`
	CapitalGains   float64 `yaml:"capital_gains" mapstructure:"capital_gains"`
	AMT            float64 `yaml:"amt" mapstructure:"amt"`
	State          float64 `yaml:"state" mapstructure:"state"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DisplayFormat values for formatted monetary output.
const (
	DisplayMillions  = "MILLIONS"
	DisplayThousands = "THOUSANDS"
	DisplayActual    = "ACTUAL"
)

// Load reads configuration from an optional config.yaml and the
// CAPMODEL_* environment, applying defaults for everything unset.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAPMODEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("modeling.decimal_precision", money.DefaultPrecision)
	v.SetDefault("modeling.rounding_method", string(money.RoundHalfEven))
	v.SetDefault("modeling.default_tax_rates.ordinary_income", 0.37)
	v.SetDefault("modeling.default_tax_rates.capital_gains", 0.20)
	v.SetDefault("modeling.default_tax_rates.amt", 0.28)
	v.SetDefault("modeling.default_tax_rates.state", 0.05)
	v.SetDefault("modeling.default_anti_dilution_type", string(captable.AntiDilutionNone))
	v.SetDefault("modeling.default_liquidation_multiple", 1.0)
	v.SetDefault("modeling.default_participation_rights", string(captable.ParticipationNone))
	v.SetDefault("modeling.default_currency", "USD")
	v.SetDefault("modeling.display_format", DisplayActual)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the modeling configuration for out-of-policy values.
func (c *Config) Validate() error {
	m := c.Modeling
	if m.DecimalPrecision < money.MinPrecision {
		return captable.Errorf("modeling.decimal_precision", "must be at least %d, got %d", money.MinPrecision, m.DecimalPrecision)
	}
	if !money.RoundingMode(m.RoundingMethod).Valid() {
		return captable.Errorf("modeling.rounding_method", "unrecognized rounding method %q", m.RoundingMethod)
	}
	if !captable.AntiDilutionType(m.DefaultAntiDilutionType).Valid() {
		return captable.Errorf("modeling.default_anti_dilution_type", "unrecognized anti-dilution type %q", m.DefaultAntiDilutionType)
	}
	if !captable.ParticipationRights(m.DefaultParticipationRights).Valid() {
		return captable.Errorf("modeling.default_participation_rights", "unrecognized participation rights %q", m.DefaultParticipationRights)
	}
	if m.DefaultLiquidationMultiple < 0 {
		return captable.Errorf("modeling.default_liquidation_multiple", "must not be negative, got %v", m.DefaultLiquidationMultiple)
	}
	switch m.DisplayFormat {
	case DisplayMillions, DisplayThousands, DisplayActual:
	default:
		return captable.Errorf("modeling.display_format", "unrecognized display format %q", m.DisplayFormat)
	}
	for name, rate := range map[string]float64{
		"ordinary_income": m.DefaultTaxRates.OrdinaryIncome,
		"capital_gains":   m.DefaultTaxRates.CapitalGains,
		"amt":             m.DefaultTaxRates.AMT,
		"state":           m.DefaultTaxRates.State,
	} {
		if rate < 0 || rate > 1 {
			return captable.Errorf("modeling.default_tax_rates."+name, "rate %v out of range [0, 1]", rate)
		}
	}
	return nil
}

// Default returns the built-in modeling configuration, handy for tests
// and library embedding without a config file.
func Default() *Config {
	return &Config{
		Modeling: ModelingConfig{
			DecimalPrecision: money.DefaultPrecision,
			RoundingMethod:   string(money.RoundHalfEven),
			DefaultTaxRates: TaxRates{
				OrdinaryIncome: 0.37,
				CapitalGains:   0.20,
				AMT:            0.28,
				State:          0.05,
			},
			DefaultAntiDilutionType:    string(captable.AntiDilutionNone),
			DefaultLiquidationMultiple: 1.0,
			DefaultParticipationRights: string(captable.ParticipationNone),
			DefaultCurrency:            "USD",
			DisplayFormat:              DisplayActual,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// InitLogger builds and installs the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
