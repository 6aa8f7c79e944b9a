package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	Interval    string        `mapstructure:"SCHEDULER_INTERVAL"`
	Timezone    string        `mapstructure:"SCHEDULER_TIMEZONE"`
	TickLockTTL time.Duration `mapstructure:"SCHEDULER_TICK_LOCK_TTL"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// BusinessConfig carries the lending policy tables. Rates are decimal
// strings, amounts are integer minor currency units.
type BusinessConfig struct {
	// "termWeeks:rate" pairs; a loan uses the rate of the smallest tier
	// whose term is >= the loan term. Example: "6:0.10,52:0.20".
	InterestRateTiers string `mapstructure:"INTEREST_RATE_TIERS"`
	// "category:rate" pairs. Example: "micro:0.03,standard:0.02,sme:0.015".
	InsuranceRates string `mapstructure:"INSURANCE_RATES"`
	DepositRate    string `mapstructure:"DEPOSIT_RATE"`
	ServiceCharge  int64  `mapstructure:"SERVICE_CHARGE"`
	// Days before a due date on which reminders fire. "3,1,0".
	ReminderOffsets       string `mapstructure:"REMINDER_OFFSETS"`
	TermPeriodDays        int    `mapstructure:"TERM_PERIOD_DAYS"`
	RequireUpfrontPayment bool   `mapstructure:"REQUIRE_UPFRONT_PAYMENT"`
	DefaulterCacheTTL     time.Duration `mapstructure:"DEFAULTER_CACHE_TTL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// RateTier is one row of the interest-rate-by-term table.
type RateTier struct {
	MaxTermWeeks int
	Rate         decimal.Decimal
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_NAME", "loan_engine")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("INTEREST_RATE_TIERS", "6:0.10,52:0.20")
	viper.SetDefault("INSURANCE_RATES", "micro:0.03,standard:0.02,sme:0.015")
	viper.SetDefault("DEPOSIT_RATE", "0.10")
	viper.SetDefault("SERVICE_CHARGE", 3500)
	viper.SetDefault("REMINDER_OFFSETS", "3,1,0")
	viper.SetDefault("TERM_PERIOD_DAYS", 7)
	viper.SetDefault("REQUIRE_UPFRONT_PAYMENT", true)
	viper.SetDefault("DEFAULTER_CACHE_TTL", "60s")
	viper.SetDefault("SCHEDULER_INTERVAL", "1h")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Africa/Nairobi")
	viper.SetDefault("SCHEDULER_TICK_LOCK_TTL", "10m")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DATABASE_NAME is required")
	}

	if _, err := c.InterestRateTiers(); err != nil {
		return err
	}

	if _, err := c.InsuranceRates(); err != nil {
		return err
	}

	if _, err := decimal.NewFromString(c.Business.DepositRate); err != nil {
		return fmt.Errorf("DEPOSIT_RATE must be a valid decimal: %w", err)
	}

	if c.Business.ServiceCharge < 0 {
		return fmt.Errorf("SERVICE_CHARGE must not be negative")
	}

	if _, err := c.ReminderOffsets(); err != nil {
		return err
	}

	if c.Business.TermPeriodDays <= 0 {
		return fmt.Errorf("TERM_PERIOD_DAYS must be greater than 0")
	}

	// Validate scheduler interval
	if _, err := time.ParseDuration(c.Scheduler.Interval); err != nil {
		return fmt.Errorf("SCHEDULER_INTERVAL must be a valid duration: %w", err)
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// InterestRateTiers parses the interest-rate-by-term table, sorted by
// ascending term.
func (c *Config) InterestRateTiers() ([]RateTier, error) {
	raw := strings.Split(c.Business.InterestRateTiers, ",")
	tiers := make([]RateTier, 0, len(raw))

	for _, entry := range raw {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("INTEREST_RATE_TIERS entry %q must be weeks:rate", entry)
		}
		weeks, err := strconv.Atoi(parts[0])
		if err != nil || weeks <= 0 {
			return nil, fmt.Errorf("INTEREST_RATE_TIERS entry %q has invalid term", entry)
		}
		rate, err := decimal.NewFromString(parts[1])
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("INTEREST_RATE_TIERS entry %q has invalid rate", entry)
		}
		tiers = append(tiers, RateTier{MaxTermWeeks: weeks, Rate: rate})
	}

	if len(tiers) == 0 {
		return nil, fmt.Errorf("INTEREST_RATE_TIERS must not be empty")
	}

	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MaxTermWeeks < tiers[j].MaxTermWeeks })
	return tiers, nil
}

// InsuranceRates parses the insurance-rate-by-category table.
func (c *Config) InsuranceRates() (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)

	for _, entry := range strings.Split(c.Business.InsuranceRates, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("INSURANCE_RATES entry %q must be category:rate", entry)
		}
		rate, err := decimal.NewFromString(parts[1])
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("INSURANCE_RATES entry %q has invalid rate", entry)
		}
		rates[parts[0]] = rate
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("INSURANCE_RATES must not be empty")
	}

	return rates, nil
}

// GetDepositRate returns the refundable deposit rate as decimal.
func (c *Config) GetDepositRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DepositRate)
	return rate
}

// ReminderOffsets parses the days-before-due reminder offsets.
func (c *Config) ReminderOffsets() ([]int, error) {
	raw := strings.Split(c.Business.ReminderOffsets, ",")
	offsets := make([]int, 0, len(raw))

	for _, entry := range raw {
		days, err := strconv.Atoi(strings.TrimSpace(entry))
		if err != nil || days < 0 {
			return nil, fmt.Errorf("REMINDER_OFFSETS entry %q must be a non-negative day count", entry)
		}
		offsets = append(offsets, days)
	}

	return offsets, nil
}

// GetSchedulerInterval returns the scheduler interval as duration
func (c *Config) GetSchedulerInterval() time.Duration {
	duration, _ := time.ParseDuration(c.Scheduler.Interval)
	return duration
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
