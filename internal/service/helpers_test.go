package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/microlend/loan-engine/internal/config"
	"github.com/microlend/loan-engine/internal/domain"
	"github.com/microlend/loan-engine/internal/pricing"
)

// A fixed clock keeps every date computation in the tests deterministic.
var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testToday() time.Time { return testNow.Truncate(24 * time.Hour) }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Business.InterestRateTiers = "6:0.10,52:0.20"
	cfg.Business.InsuranceRates = "micro:0.03,standard:0.02,sme:0.015"
	cfg.Business.DepositRate = "0.10"
	cfg.Business.ServiceCharge = 3500
	cfg.Business.ReminderOffsets = "3,1,0"
	cfg.Business.TermPeriodDays = 7
	cfg.Business.RequireUpfrontPayment = true
	cfg.Business.DefaulterCacheTTL = time.Minute
	cfg.Scheduler.TickLockTTL = 10 * time.Minute
	return cfg
}

func testCalculator(t *testing.T, cfg *config.Config) *pricing.Calculator {
	t.Helper()
	calc, err := pricing.NewCalculator(cfg)
	require.NoError(t, err)
	return calc
}

// testLoan builds an active loan of 100,000 at 10% over 6 weeks with the
// next installment due daysUntilDue days from the fixed clock.
func testLoan(daysUntilDue int) *domain.Loan {
	return &domain.Loan{
		ID:               uuid.New(),
		BorrowerID:       "BRW-1",
		Principal:        100000,
		InterestRate:     decimal.NewFromFloat(0.10),
		TotalRepayable:   110000,
		Installment:      18333,
		FinalInstallment: 18335,
		TermWeeks:        6,
		NextDueDate:      testToday().AddDate(0, 0, daysUntilDue),
		Deposit:          10000,
		Status:           domain.LoanStatusActive,
	}
}

func pendingApplication() *domain.LoanApplication {
	return &domain.LoanApplication{
		ID:            uuid.New(),
		BorrowerID:    "BRW-1",
		Principal:     100000,
		TermWeeks:     6,
		Category:      domain.CategorySME,
		Purpose:       "working capital",
		Status:        domain.ApplicationStatusPending,
		Deposit:       10000,
		InsuranceFee:  1500,
		ServiceCharge: 3500,
		TotalUpfront:  15000,
		UpfrontPaid:   true,
	}
}
