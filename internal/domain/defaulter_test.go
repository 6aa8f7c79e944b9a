package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlend/loan-engine/internal/domain"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func overdueLoan(daysOverdue int, installment int64) *domain.Loan {
	return &domain.Loan{
		ID:             uuid.New(),
		BorrowerID:     "BRW-1",
		TotalRepayable: 110000,
		Installment:    installment,
		NextDueDate:    today.AddDate(0, 0, -daysOverdue),
		Status:         domain.LoanStatusActive,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name             string
		daysOverdue      int
		installment      int64
		expectedSeverity string
		expectedMissed   int
		expectedAmount   int64
	}{
		{
			name:             "one day overdue is mild",
			daysOverdue:      1,
			installment:      18333,
			expectedSeverity: domain.SeverityMild,
			expectedMissed:   1,
			expectedAmount:   18333,
		},
		{
			name:             "seven days is still mild",
			daysOverdue:      7,
			installment:      18333,
			expectedSeverity: domain.SeverityMild,
			expectedMissed:   1,
			expectedAmount:   18333,
		},
		{
			name:             "ten days owes two installments",
			daysOverdue:      10,
			installment:      10000,
			expectedSeverity: domain.SeverityModerate,
			expectedMissed:   2,
			expectedAmount:   20000,
		},
		{
			name:             "thirty days is the moderate ceiling",
			daysOverdue:      30,
			installment:      10000,
			expectedSeverity: domain.SeverityModerate,
			expectedMissed:   5,
			expectedAmount:   50000,
		},
		{
			name:             "beyond thirty days is severe",
			daysOverdue:      31,
			installment:      10000,
			expectedSeverity: domain.SeveritySevere,
			expectedMissed:   5,
			expectedAmount:   50000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := overdueLoan(tt.daysOverdue, tt.installment)
			view := domain.Classify(loan, today, 7)

			require.NotNil(t, view)
			assert.Equal(t, tt.expectedSeverity, view.Severity)
			assert.Equal(t, tt.expectedMissed, view.MissedPayments)
			assert.Equal(t, tt.expectedAmount, view.OverdueAmount)
			assert.Equal(t, tt.daysOverdue, view.DaysOverdue)
		})
	}
}

func TestClassifyNotOverdue(t *testing.T) {
	t.Run("due today is not overdue", func(t *testing.T) {
		assert.Nil(t, domain.Classify(overdueLoan(0, 10000), today, 7))
	})

	t.Run("due in the future", func(t *testing.T) {
		assert.Nil(t, domain.Classify(overdueLoan(-3, 10000), today, 7))
	})

	t.Run("suspended loans are never classified", func(t *testing.T) {
		loan := overdueLoan(40, 10000)
		loan.Status = domain.LoanStatusSuspended
		assert.Nil(t, domain.Classify(loan, today, 7))
	})

	t.Run("completed loans are never classified", func(t *testing.T) {
		loan := overdueLoan(40, 10000)
		loan.Status = domain.LoanStatusCompleted
		assert.Nil(t, domain.Classify(loan, today, 7))
	})
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	loan := overdueLoan(1, 10000)
	loan.NextDueDate = loan.NextDueDate.Add(23 * time.Hour)

	view := domain.Classify(loan, today.Add(5*time.Hour), 7)
	require.NotNil(t, view)
	assert.Equal(t, 1, view.DaysOverdue)
}

func TestDaysUntilDue(t *testing.T) {
	loan := overdueLoan(0, 10000)
	loan.NextDueDate = today.AddDate(0, 0, 3)

	assert.Equal(t, 3, loan.DaysUntilDue(today))
	assert.Equal(t, -4, loan.DaysUntilDue(today.AddDate(0, 0, 7)))
}

func TestNextInstallment(t *testing.T) {
	loan := &domain.Loan{
		TotalRepayable:   110000,
		Installment:      18333,
		FinalInstallment: 18335,
		Status:           domain.LoanStatusActive,
	}

	assert.Equal(t, int64(18333), loan.NextInstallment())

	// After five regular installments only the final one remains.
	loan.Repaid = 5 * 18333
	assert.Equal(t, int64(18335), loan.NextInstallment())

	loan.Repaid = loan.TotalRepayable
	assert.Equal(t, int64(0), loan.NextInstallment())
	assert.True(t, loan.IsFullyRepaid())
}
