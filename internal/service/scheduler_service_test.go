package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/microlend/loan-engine/internal/domain"
	"github.com/microlend/loan-engine/internal/notify"
	"github.com/microlend/loan-engine/internal/service"
	customError "github.com/microlend/loan-engine/pkg/errors"
	"github.com/microlend/loan-engine/tests/mocks"
)

func newSchedulerService(repos *mocks.RepoSet, notifier *mocks.RecordingNotifier) *service.SchedulerService {
	client, _ := redismock.NewClientMock()
	return service.NewSchedulerService(repos.UnitOfWork(), repos.Repos(), notifier, client, testConfig()).
		WithClock(fixedClock)
}

func TestTickReminders(t *testing.T) {
	tests := []struct {
		name           string
		daysUntilDue   int
		expectedTiming string
	}{
		{name: "three days before", daysUntilDue: 3, expectedTiming: "T-3"},
		{name: "one day before", daysUntilDue: 1, expectedTiming: "T-1"},
		{name: "due today", daysUntilDue: 0, expectedTiming: "T0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := mocks.NewRepoSet()
			notifier := &mocks.RecordingNotifier{}
			loan := testLoan(tt.daysUntilDue)

			repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
			repos.Reminders.On("Exists", mock.Anything, loan.ID, loan.NextDueDate, tt.expectedTiming).Return(false, nil)
			repos.Reminders.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ReminderRecord) bool {
				return r.LoanID == loan.ID && r.Timing == tt.expectedTiming
			})).Return(nil)

			svc := newSchedulerService(repos, notifier)
			report, err := svc.Tick(context.Background())

			require.NoError(t, err)
			assert.Equal(t, 1, report.RemindersSent)
			require.Len(t, notifier.Events, 1)
			assert.Equal(t, "reminder."+tt.expectedTiming, notifier.Events[0].Kind)
			assert.Equal(t, loan.NextInstallment(), notifier.Events[0].Amount)
		})
	}
}

func TestTickReminderIdempotence(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(3)

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Reminders.On("Exists", mock.Anything, loan.ID, loan.NextDueDate, "T-3").Return(false, nil).Once()
	repos.Reminders.On("Exists", mock.Anything, loan.ID, loan.NextDueDate, "T-3").Return(true, nil)
	repos.Reminders.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newSchedulerService(repos, notifier)

	for i := 0; i < 3; i++ {
		_, err := svc.Tick(context.Background())
		require.NoError(t, err)
	}

	repos.Reminders.AssertNumberOfCalls(t, "Create", 1)
	assert.Len(t, notifier.Events, 1)
}

func TestTickAutoDeduction(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(-1)
	dueDate := loan.NextDueDate

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Deductions.On("Exists", mock.Anything, loan.ID, dueDate).Return(false, nil)
	repos.Loans.On("GetByIDForUpdate", mock.Anything, loan.ID).Return(loan, nil)
	repos.Deductions.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.AutoDeductionRecord) bool {
		return r.LoanID == loan.ID && r.DueDate.Equal(dueDate) && r.Amount == 18333
	})).Return(nil)
	repos.Pools.On("DebitWallet", mock.Anything, "BRW-1", int64(18333)).Return(nil)
	repos.Loans.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Repaid == 18333 &&
			l.NextDueDate.Equal(dueDate.AddDate(0, 0, 7)) &&
			l.Status == domain.LoanStatusActive
	})).Return(nil)

	svc := newSchedulerService(repos, notifier)
	report, err := svc.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.DeductionsApplied)
	assert.Equal(t, 0, report.InsufficientFunds)
	assert.Equal(t, 1, notifier.CountKind(notify.EventPaymentCompleted))
	repos.Loans.AssertExpectations(t)
}

// Running the tick N times with no wall-clock advance must move cash at
// most once per (loan, due date).
func TestTickIdempotenceLaw(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(-1)
	dueDate := loan.NextDueDate

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Deductions.On("Exists", mock.Anything, loan.ID, dueDate).Return(false, nil).Once()
	repos.Deductions.On("Exists", mock.Anything, loan.ID, mock.Anything).Return(true, nil)
	repos.Loans.On("GetByIDForUpdate", mock.Anything, loan.ID).Return(loan, nil)
	repos.Deductions.On("Create", mock.Anything, mock.Anything).Return(nil)
	repos.Pools.On("DebitWallet", mock.Anything, "BRW-1", int64(18333)).Return(nil)
	repos.Loans.On("Update", mock.Anything, mock.Anything).Return(nil)

	svc := newSchedulerService(repos, notifier)

	for i := 0; i < 5; i++ {
		_, err := svc.Tick(context.Background())
		require.NoError(t, err)
	}

	repos.Deductions.AssertNumberOfCalls(t, "Create", 1)
	repos.Pools.AssertNumberOfCalls(t, "DebitWallet", 1)
	assert.Equal(t, 1, notifier.CountKind(notify.EventPaymentCompleted))
}

// A concurrent tick that loses the race on the idempotence record must
// treat the duplicate as a no-op, not an error.
func TestTickDuplicateDeductionRecord(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(-1)

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Deductions.On("Exists", mock.Anything, loan.ID, loan.NextDueDate).Return(false, nil)
	repos.Loans.On("GetByIDForUpdate", mock.Anything, loan.ID).Return(loan, nil)
	repos.Deductions.On("Create", mock.Anything, mock.Anything).Return(customError.ErrDuplicateRecord)

	svc := newSchedulerService(repos, notifier)
	report, err := svc.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.DeductionsApplied)
	assert.Empty(t, notifier.Events)
	repos.Pools.AssertNotCalled(t, "DebitWallet", mock.Anything, mock.Anything, mock.Anything)
}

func TestTickInsufficientFundsThenRecovery(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(-1)
	dueDate := loan.NextDueDate

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Deductions.On("Exists", mock.Anything, loan.ID, dueDate).Return(false, nil)
	repos.Loans.On("GetByIDForUpdate", mock.Anything, loan.ID).Return(loan, nil)
	repos.Deductions.On("Create", mock.Anything, mock.Anything).Return(nil)
	// The standing balance covers the installment only on the second tick.
	repos.Pools.On("DebitWallet", mock.Anything, "BRW-1", int64(18333)).
		Return(customError.WrapInsufficientFunds("wallet BRW-1", 5000, 18333)).Once()
	repos.Pools.On("DebitWallet", mock.Anything, "BRW-1", int64(18333)).Return(nil)
	repos.Loans.On("Update", mock.Anything, mock.Anything).Return(nil)

	svc := newSchedulerService(repos, notifier)

	report, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.InsufficientFunds)
	assert.Equal(t, 0, report.DeductionsApplied)
	assert.Equal(t, 1, notifier.CountKind(notify.EventInsufficientFunds))
	repos.Loans.AssertNumberOfCalls(t, "Update", 0)

	report, err = svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.DeductionsApplied)
	assert.Equal(t, 1, notifier.CountKind(notify.EventPaymentCompleted))
	repos.Pools.AssertNumberOfCalls(t, "DebitWallet", 2)
}

func TestTickFinalDeductionCompletesLoan(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(-1)
	// Five regular installments already paid; the final one absorbs the
	// rounding remainder.
	loan.Repaid = 5 * 18333
	dueDate := loan.NextDueDate

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Deductions.On("Exists", mock.Anything, loan.ID, dueDate).Return(false, nil)
	repos.Loans.On("GetByIDForUpdate", mock.Anything, loan.ID).Return(loan, nil)
	repos.Deductions.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.AutoDeductionRecord) bool {
		return r.Amount == 18335
	})).Return(nil)
	repos.Pools.On("DebitWallet", mock.Anything, "BRW-1", int64(18335)).Return(nil)
	repos.Loans.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Repaid == 110000 && l.Status == domain.LoanStatusCompleted
	})).Return(nil)

	svc := newSchedulerService(repos, notifier)
	report, err := svc.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.DeductionsApplied)
	assert.Equal(t, 1, report.LoansCompleted)
	assert.Equal(t, 1, notifier.CountKind(notify.EventLoanCompleted))
}

func TestTickCatchUpReactivatesDefaultedLoan(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(-1)
	loan.Status = domain.LoanStatusDefaulted
	dueDate := loan.NextDueDate

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Deductions.On("Exists", mock.Anything, loan.ID, dueDate).Return(false, nil)
	repos.Loans.On("GetByIDForUpdate", mock.Anything, loan.ID).Return(loan, nil)
	repos.Deductions.On("Create", mock.Anything, mock.Anything).Return(nil)
	repos.Pools.On("DebitWallet", mock.Anything, "BRW-1", int64(18333)).Return(nil)
	// Due date moves from yesterday to six days out, so the loan caught up.
	repos.Loans.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Status == domain.LoanStatusActive
	})).Return(nil)

	svc := newSchedulerService(repos, notifier)
	_, err := svc.Tick(context.Background())

	require.NoError(t, err)
	repos.Loans.AssertExpectations(t)
}

func TestTickCompletesAlreadyRepaidLoan(t *testing.T) {
	repos := mocks.NewRepoSet()
	notifier := &mocks.RecordingNotifier{}
	loan := testLoan(4)
	loan.Repaid = loan.TotalRepayable

	repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{loan}, nil)
	repos.Loans.On("GetByIDForUpdate", mock.Anything, loan.ID).Return(loan, nil)
	repos.Loans.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Status == domain.LoanStatusCompleted
	})).Return(nil)

	svc := newSchedulerService(repos, notifier)
	report, err := svc.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.LoansCompleted)
}

func TestTickWithLock(t *testing.T) {
	cfg := testConfig()

	t.Run("acquires lock and runs", func(t *testing.T) {
		repos := mocks.NewRepoSet()
		client, redisMock := redismock.NewClientMock()
		redisMock.ExpectSetNX("scheduler:tick:lock", testNow.Format(time.RFC3339), cfg.Scheduler.TickLockTTL).SetVal(true)
		redisMock.ExpectDel("scheduler:tick:lock").SetVal(1)

		repos.Loans.On("ListSchedulable", mock.Anything).Return([]*domain.Loan{}, nil)

		svc := service.NewSchedulerService(repos.UnitOfWork(), repos.Repos(), &mocks.RecordingNotifier{}, client, cfg).
			WithClock(fixedClock)

		_, err := svc.TickWithLock(context.Background())
		require.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("skips when the lock is held elsewhere", func(t *testing.T) {
		repos := mocks.NewRepoSet()
		client, redisMock := redismock.NewClientMock()
		redisMock.ExpectSetNX("scheduler:tick:lock", testNow.Format(time.RFC3339), cfg.Scheduler.TickLockTTL).SetVal(false)

		svc := service.NewSchedulerService(repos.UnitOfWork(), repos.Repos(), &mocks.RecordingNotifier{}, client, cfg).
			WithClock(fixedClock)

		report, err := svc.TickWithLock(context.Background())
		require.NoError(t, err)
		assert.Zero(t, report.LoansEvaluated)
		repos.Loans.AssertNotCalled(t, "ListSchedulable", mock.Anything)
	})
}
