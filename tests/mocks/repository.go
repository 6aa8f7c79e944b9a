package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/microlend/loan-engine/internal/domain"
)

type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockApplicationRepository) Update(ctx context.Context, app *domain.LoanApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) ListSchedulable(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

type MockDeductionRecordRepository struct {
	mock.Mock
}

func (m *MockDeductionRecordRepository) Exists(ctx context.Context, loanID uuid.UUID, dueDate time.Time) (bool, error) {
	args := m.Called(ctx, loanID, dueDate)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeductionRecordRepository) Create(ctx context.Context, record *domain.AutoDeductionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockReminderRecordRepository struct {
	mock.Mock
}

func (m *MockReminderRecordRepository) Exists(ctx context.Context, loanID uuid.UUID, dueDate time.Time, timing string) (bool, error) {
	args := m.Called(ctx, loanID, dueDate, timing)
	return args.Bool(0), args.Error(1)
}

func (m *MockReminderRecordRepository) Create(ctx context.Context, record *domain.ReminderRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockOffsetRepository struct {
	mock.Mock
}

func (m *MockOffsetRepository) Create(ctx context.Context, request *domain.OffsetRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockOffsetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OffsetRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OffsetRequest), args.Error(1)
}

func (m *MockOffsetRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.OffsetRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OffsetRequest), args.Error(1)
}

func (m *MockOffsetRepository) Update(ctx context.Context, request *domain.OffsetRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockOffsetRepository) ListPending(ctx context.Context) ([]*domain.OffsetRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OffsetRequest), args.Error(1)
}

type MockPoolRepository struct {
	mock.Mock
}

func (m *MockPoolRepository) GetBalance(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPoolRepository) Credit(ctx context.Context, name string, amount int64) error {
	args := m.Called(ctx, name, amount)
	return args.Error(0)
}

func (m *MockPoolRepository) Debit(ctx context.Context, name string, amount int64) error {
	args := m.Called(ctx, name, amount)
	return args.Error(0)
}

func (m *MockPoolRepository) GetWallet(ctx context.Context, borrowerID string) (*domain.Wallet, error) {
	args := m.Called(ctx, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockPoolRepository) CreditWallet(ctx context.Context, borrowerID string, amount int64) error {
	args := m.Called(ctx, borrowerID, amount)
	return args.Error(0)
}

func (m *MockPoolRepository) DebitWallet(ctx context.Context, borrowerID string, amount int64) error {
	args := m.Called(ctx, borrowerID, amount)
	return args.Error(0)
}

type MockContactLogRepository struct {
	mock.Mock
}

func (m *MockContactLogRepository) Create(ctx context.Context, log *domain.ContactLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockContactLogRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.ContactLog, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContactLog), args.Error(1)
}

func (m *MockContactLogRepository) DeleteByLoan(ctx context.Context, loanID uuid.UUID) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}
