package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlend/loan-engine/internal/config"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Business.InterestRateTiers = "6:0.10,52:0.20"
	cfg.Business.InsuranceRates = "micro:0.03,standard:0.02,sme:0.015"
	cfg.Business.DepositRate = "0.10"
	cfg.Business.ServiceCharge = 3500
	return cfg
}

func newTestCalculator(t *testing.T) *Calculator {
	calc, err := NewCalculator(testConfig())
	require.NoError(t, err)
	return calc
}

func TestUpfrontCosts(t *testing.T) {
	calc := newTestCalculator(t)

	tests := []struct {
		name          string
		principal     int64
		category      string
		expected      []int64 // deposit, insurance, service charge, total
		expectedError string
	}{
		{
			name:      "sme category",
			principal: 100000,
			category:  "sme",
			expected:  []int64{10000, 1500, 3500, 15000},
		},
		{
			name:      "micro category",
			principal: 50000,
			category:  "micro",
			expected:  []int64{5000, 1500, 3500, 10000},
		},
		{
			name:      "standard category",
			principal: 200000,
			category:  "standard",
			expected:  []int64{20000, 4000, 3500, 27500},
		},
		{
			name:          "unknown category",
			principal:     100000,
			category:      "enterprise",
			expectedError: customError.ErrCodeValidation,
		},
		{
			name:          "non-positive principal",
			principal:     0,
			category:      "sme",
			expectedError: customError.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown, err := calc.UpfrontCosts(tt.principal, tt.category)
			if tt.expectedError != "" {
				assert.True(t, customError.IsCode(err, tt.expectedError))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected[0], breakdown.Deposit)
			assert.Equal(t, tt.expected[1], breakdown.InsuranceFee)
			assert.Equal(t, tt.expected[2], breakdown.ServiceCharge)
			assert.Equal(t, tt.expected[3], breakdown.Total)
		})
	}
}

// The total must always equal the sum of its parts, whatever the inputs.
func TestUpfrontCostsConsistency(t *testing.T) {
	calc := newTestCalculator(t)

	for _, principal := range []int64{1, 999, 10001, 100000, 12345678} {
		for _, category := range []string{"micro", "standard", "sme"} {
			breakdown, err := calc.UpfrontCosts(principal, category)
			require.NoError(t, err)
			assert.Equal(t, breakdown.Total,
				breakdown.Deposit+breakdown.InsuranceFee+breakdown.ServiceCharge,
				"principal=%d category=%s", principal, category)
		}
	}
}

func TestRepaymentSchedule(t *testing.T) {
	calc := newTestCalculator(t)

	t.Run("six week term at ten percent", func(t *testing.T) {
		terms, err := calc.RepaymentSchedule(100000, 6)
		require.NoError(t, err)

		assert.True(t, terms.InterestRate.Equal(decimal.NewFromFloat(0.10)))
		assert.Equal(t, int64(110000), terms.TotalRepayable)
		assert.Equal(t, int64(18333), terms.Installment)
		assert.Equal(t, int64(18335), terms.FinalInstallment)
	})

	t.Run("longer term uses the higher tier", func(t *testing.T) {
		terms, err := calc.RepaymentSchedule(100000, 12)
		require.NoError(t, err)

		assert.True(t, terms.InterestRate.Equal(decimal.NewFromFloat(0.20)))
		assert.Equal(t, int64(120000), terms.TotalRepayable)
		assert.Equal(t, int64(10000), terms.Installment)
		assert.Equal(t, int64(10000), terms.FinalInstallment)
	})

	t.Run("non-positive term rejected", func(t *testing.T) {
		_, err := calc.RepaymentSchedule(100000, 0)
		assert.True(t, customError.IsCode(err, customError.ErrCodeValidation))
	})

	t.Run("term beyond the table rejected", func(t *testing.T) {
		_, err := calc.RepaymentSchedule(100000, 60)
		assert.True(t, customError.IsCode(err, customError.ErrCodeValidation))
	})
}

// Installments must sum exactly to the total repayable for any term.
func TestRepaymentScheduleInstallmentsSum(t *testing.T) {
	calc := newTestCalculator(t)

	for _, principal := range []int64{100000, 99999, 1234567} {
		for term := 1; term <= 52; term++ {
			terms, err := calc.RepaymentSchedule(principal, term)
			require.NoError(t, err)

			sum := terms.Installment*int64(term-1) + terms.FinalInstallment
			assert.Equal(t, terms.TotalRepayable, sum, "principal=%d term=%d", principal, term)
			assert.GreaterOrEqual(t, terms.FinalInstallment, terms.Installment)
		}
	}
}
