package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBusiness() BusinessConfig {
	return BusinessConfig{
		InterestRateTiers: "52:0.20,6:0.10",
		InsuranceRates:    "micro:0.03,standard:0.02,sme:0.015",
		DepositRate:       "0.10",
		ServiceCharge:     3500,
		ReminderOffsets:   "3,1,0",
		TermPeriodDays:    7,
	}
}

func TestInterestRateTiers(t *testing.T) {
	cfg := &Config{Business: validBusiness()}

	tiers, err := cfg.InterestRateTiers()
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	// Sorted ascending regardless of declaration order.
	assert.Equal(t, 6, tiers[0].MaxTermWeeks)
	assert.True(t, tiers[0].Rate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 52, tiers[1].MaxTermWeeks)

	for _, bad := range []string{"", "6", "abc:0.10", "6:-0.10", "0:0.10"} {
		cfg.Business.InterestRateTiers = bad
		_, err := cfg.InterestRateTiers()
		assert.Error(t, err, "tier table %q should be rejected", bad)
	}
}

func TestInsuranceRates(t *testing.T) {
	cfg := &Config{Business: validBusiness()}

	rates, err := cfg.InsuranceRates()
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.True(t, rates["sme"].Equal(decimal.RequireFromString("0.015")))

	cfg.Business.InsuranceRates = "micro:oops"
	_, err = cfg.InsuranceRates()
	assert.Error(t, err)
}

func TestReminderOffsets(t *testing.T) {
	cfg := &Config{Business: validBusiness()}

	offsets, err := cfg.ReminderOffsets()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 0}, offsets)

	cfg.Business.ReminderOffsets = "3,-1"
	_, err = cfg.ReminderOffsets()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Database:  DatabaseConfig{Name: "loan_engine"},
			Scheduler: SchedulerConfig{Interval: "1h"},
			Health:    HealthConfig{Timeout: "5s"},
			Business:  validBusiness(),
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"missing database name", func(c *Config) { c.Database.Name = "" }},
		{"bad deposit rate", func(c *Config) { c.Business.DepositRate = "ten percent" }},
		{"negative service charge", func(c *Config) { c.Business.ServiceCharge = -1 }},
		{"zero term period", func(c *Config) { c.Business.TermPeriodDays = 0 }},
		{"bad scheduler interval", func(c *Config) { c.Scheduler.Interval = "soon" }},
		{"bad health timeout", func(c *Config) { c.Health.Timeout = "whenever" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		Name:     "loan_engine",
		User:     "postgres",
		Password: "secret",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=loan_engine sslmode=disable",
		cfg.DSN())
}
