// Package config loads gdbank.yaml. Values are layered: built-in defaults,
// then the config file if present, then GDBANK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "gdbank.yaml"

// Config is the top-level gdbank.yaml configuration.
type Config struct {
	Bank     BankConfig     `yaml:"bank" mapstructure:"bank"`
	Limits   LimitsConfig   `yaml:"limits" mapstructure:"limits"`
	PIN      PINConfig      `yaml:"pin" mapstructure:"pin"`
	Currency CurrencyConfig `yaml:"currency" mapstructure:"currency"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// BankConfig identifies the ledger instance and its data directory.
type BankConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// LimitsConfig holds policy amounts applied by the ledger.
type LimitsConfig struct {
	// DefaultDaily caps the sum of a day's absolute transaction amounts
	// per account. 0 disables the default cap.
	DefaultDaily float64 `yaml:"default_daily" mapstructure:"default_daily"`
}

// PINConfig holds argon2id cost parameters for PIN and admin hashing.
type PINConfig struct {
	Time    uint32 `yaml:"time" mapstructure:"time"`
	Memory  uint32 `yaml:"memory" mapstructure:"memory"`
	Threads uint8  `yaml:"threads" mapstructure:"threads"`
	KeyLen  uint32 `yaml:"key_length" mapstructure:"key_length"`
	SaltLen int    `yaml:"salt_length" mapstructure:"salt_length"`
}

// CurrencyConfig is the display-conversion rate table. Rates are relative
// to Base (Base itself must map to 1.0).
type CurrencyConfig struct {
	Base  string             `yaml:"base" mapstructure:"base"`
	Rates map[string]float64 `yaml:"rates" mapstructure:"rates"`
}

// MetricsConfig controls the optional prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the configuration for a fresh ledger instance.
func Default(bankName string) *Config {
	return &Config{
		Bank: BankConfig{
			Name:    bankName,
			DataDir: "data",
		},
		Limits: LimitsConfig{
			DefaultDaily: 100_000,
		},
		PIN: PINConfig{
			Time:    1,
			Memory:  64 * 1024,
			Threads: 4,
			KeyLen:  32,
			SaltLen: 16,
		},
		Currency: CurrencyConfig{
			Base: "INR",
			Rates: map[string]float64{
				"INR": 1.0,
				"USD": 0.012,
				"EUR": 0.011,
				"GBP": 0.0095,
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9402",
		},
	}
}

// Load reads configuration from dir/gdbank.yaml. A missing file is not an
// error; defaults and environment variables still apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("GDBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Viper lower-cases map keys on the way in; rate lookups are by the
	// upper-case ISO code.
	rates := make(map[string]float64, len(cfg.Currency.Rates))
	for code, rate := range cfg.Currency.Rates {
		rates[strings.ToUpper(code)] = rate
	}
	cfg.Currency.Rates = rates
	cfg.Currency.Base = strings.ToUpper(cfg.Currency.Base)

	return &cfg, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	def := Default("")
	v.SetDefault("bank.name", def.Bank.Name)
	v.SetDefault("bank.data_dir", def.Bank.DataDir)
	v.SetDefault("limits.default_daily", def.Limits.DefaultDaily)
	v.SetDefault("pin.time", def.PIN.Time)
	v.SetDefault("pin.memory", def.PIN.Memory)
	v.SetDefault("pin.threads", def.PIN.Threads)
	v.SetDefault("pin.key_length", def.PIN.KeyLen)
	v.SetDefault("pin.salt_length", def.PIN.SaltLen)
	v.SetDefault("currency.base", def.Currency.Base)
	v.SetDefault("currency.rates", def.Currency.Rates)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.addr", def.Metrics.Addr)
}
