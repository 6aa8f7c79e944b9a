package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/microlend/loan-engine/internal/domain"
)

// ApplicationRepository defines the interface for loan application data operations
type ApplicationRepository interface {
	// Create persists a new application
	Create(ctx context.Context, app *domain.LoanApplication) error

	// GetByID retrieves an application by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error)

	// GetByIDForUpdate retrieves an application and locks its row for the
	// duration of the surrounding transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error)

	// Update updates a decided or paid application
	Update(ctx context.Context, app *domain.LoanApplication) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create persists a new active loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetByIDForUpdate retrieves a loan and locks its row for the
	// duration of the surrounding transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// Update updates a loan
	Update(ctx context.Context, loan *domain.Loan) error

	// ListSchedulable lists loans the scheduler must evaluate
	// (status active or defaulted)
	ListSchedulable(ctx context.Context) ([]*domain.Loan, error)
}

// DeductionRecordRepository guards auto-deduction idempotence
type DeductionRecordRepository interface {
	// Exists reports whether a deduction was already performed for the
	// (loan, due date) pair
	Exists(ctx context.Context, loanID uuid.UUID, dueDate time.Time) (bool, error)

	// Create inserts the idempotence record; returns ErrDuplicateRecord
	// if another tick got there first
	Create(ctx context.Context, record *domain.AutoDeductionRecord) error
}

// ReminderRecordRepository guards reminder idempotence
type ReminderRecordRepository interface {
	// Exists reports whether a reminder was already emitted for the
	// (loan, due date, timing) triple
	Exists(ctx context.Context, loanID uuid.UUID, dueDate time.Time, timing string) (bool, error)

	// Create inserts the idempotence record; returns ErrDuplicateRecord
	// if another tick got there first
	Create(ctx context.Context, record *domain.ReminderRecord) error
}

// OffsetRepository defines the interface for offset/refund request data operations
type OffsetRepository interface {
	// Create persists a new pending request
	Create(ctx context.Context, request *domain.OffsetRequest) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OffsetRequest, error)

	// GetByIDForUpdate retrieves a request and locks its row for the
	// duration of the surrounding transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.OffsetRequest, error)

	// Update records a decision
	Update(ctx context.Context, request *domain.OffsetRequest) error

	// ListPending lists undecided requests for the operator queue
	ListPending(ctx context.Context) ([]*domain.OffsetRequest, error)
}

// PoolRepository manages revenue pool and wallet balances
type PoolRepository interface {
	// GetBalance returns the balance of a named pool
	GetBalance(ctx context.Context, name string) (int64, error)

	// Credit adds to a pool balance
	Credit(ctx context.Context, name string, amount int64) error

	// Debit subtracts from a pool balance; returns ErrInsufficientFunds
	// if the balance would go negative
	Debit(ctx context.Context, name string, amount int64) error

	// GetWallet returns a borrower's standing balance, creating an empty
	// wallet on first touch
	GetWallet(ctx context.Context, borrowerID string) (*domain.Wallet, error)

	// CreditWallet adds to a borrower's standing balance
	CreditWallet(ctx context.Context, borrowerID string, amount int64) error

	// DebitWallet subtracts from a standing balance; returns
	// ErrInsufficientFunds if the balance would go negative
	DebitWallet(ctx context.Context, borrowerID string, amount int64) error
}

// ContactLogRepository stores collection contact history
type ContactLogRepository interface {
	// Create appends a contact log entry
	Create(ctx context.Context, log *domain.ContactLog) error

	// ListByLoan lists contact history for a loan, newest first
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.ContactLog, error)

	// DeleteByLoan clears a loan's contact history
	DeleteByLoan(ctx context.Context, loanID uuid.UUID) error
}
