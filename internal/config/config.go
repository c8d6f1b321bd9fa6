// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type CronConfig struct {
	// Secret guards the scheduler endpoints. Overridden by CRON_SECRET.
	Secret string `yaml:"secret"`
	// LockTTL bounds how long a crashed sweep holds the overlap lock.
	LockTTL time.Duration `yaml:"lock_ttl"`
}

// BillingConfig carries the plan settings the engine treats as external
// configuration: grace windows per suspension reason, trial length, the
// request TTL, retention window and the price table.
type BillingConfig struct {
	Currency string `yaml:"currency"`

	TrialDays int `yaml:"trial_days"`

	// Grace windows are configured per reason; they share a default but are
	// deliberately not assumed identical.
	GraceTrial   time.Duration `yaml:"grace_trial"`
	GraceMonthly time.Duration `yaml:"grace_monthly"`
	GraceDeposit time.Duration `yaml:"grace_deposit"`

	PaymentRequestTTL time.Duration `yaml:"payment_request_ttl"`
	RetentionDays     int           `yaml:"retention_days"`

	// CheckTimeout bounds the opportunistic auto-switch check piggybacked on
	// read requests.
	CheckTimeout time.Duration `yaml:"check_timeout"`

	MonthlyPrice string `yaml:"monthly_price"` // decimal string, parsed at load
	MinimumTopup string `yaml:"minimum_topup"`

	monthlyPrice decimal.Decimal
	minimumTopup decimal.Decimal
}

func (b *BillingConfig) MonthlyPriceAmount() decimal.Decimal { return b.monthlyPrice }
func (b *BillingConfig) MinimumTopupAmount() decimal.Decimal { return b.minimumTopup }

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Cron     CronConfig     `yaml:"cron"`
	Billing  BillingConfig  `yaml:"billing"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// env overrides (deploy-time secrets never live in the file)
	if v := os.Getenv("CRON_SECRET"); v != "" {
		cfg.Cron.Secret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	applyDefaults(&cfg)

	if err := cfg.Billing.parseAmounts(); err != nil {
		return nil, fmt.Errorf("billing amounts: %w", err)
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Cron.LockTTL <= 0 {
		cfg.Cron.LockTTL = 30 * time.Minute
	}
	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = "IDR"
	}
	if cfg.Billing.TrialDays <= 0 {
		cfg.Billing.TrialDays = 14
	}
	if cfg.Billing.GraceTrial <= 0 {
		cfg.Billing.GraceTrial = 72 * time.Hour
	}
	if cfg.Billing.GraceMonthly <= 0 {
		cfg.Billing.GraceMonthly = 72 * time.Hour
	}
	if cfg.Billing.GraceDeposit <= 0 {
		cfg.Billing.GraceDeposit = 24 * time.Hour
	}
	if cfg.Billing.PaymentRequestTTL <= 0 {
		cfg.Billing.PaymentRequestTTL = 48 * time.Hour
	}
	if cfg.Billing.RetentionDays <= 0 {
		cfg.Billing.RetentionDays = 30
	}
	if cfg.Billing.CheckTimeout <= 0 {
		cfg.Billing.CheckTimeout = 2 * time.Second
	}
}

func (b *BillingConfig) parseAmounts() error {
	var err error
	if b.MonthlyPrice == "" {
		b.MonthlyPrice = "0"
	}
	if b.monthlyPrice, err = decimal.NewFromString(b.MonthlyPrice); err != nil {
		return fmt.Errorf("monthly_price: %w", err)
	}
	if b.MinimumTopup == "" {
		b.MinimumTopup = "0"
	}
	if b.minimumTopup, err = decimal.NewFromString(b.MinimumTopup); err != nil {
		return fmt.Errorf("minimum_topup: %w", err)
	}
	return nil
}
