package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/microlend/loan-engine/internal/config"
	"github.com/microlend/loan-engine/internal/domain"
	"github.com/microlend/loan-engine/internal/pricing"
	"github.com/microlend/loan-engine/internal/repository"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

// LendingService owns the application side of the loan lifecycle:
// submission, upfront payment recording, and the approval/rejection
// decision that turns an application into an active loan.
type LendingService struct {
	uow   repository.UnitOfWork
	repos repository.Repos
	calc  *pricing.Calculator
	cfg   *config.Config
	now   func() time.Time
}

func NewLendingService(
	uow repository.UnitOfWork,
	repos repository.Repos,
	calc *pricing.Calculator,
	cfg *config.Config,
) *LendingService {
	return &LendingService{
		uow:   uow,
		repos: repos,
		calc:  calc,
		cfg:   cfg,
		now:   time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *LendingService) WithClock(now func() time.Time) *LendingService {
	s.now = now
	return s
}

// SubmitApplicationInput carries a borrower's loan request.
type SubmitApplicationInput struct {
	BorrowerID string
	Principal  int64
	TermWeeks  int
	Category   string
	Purpose    string
}

// SubmitApplication validates the request, derives the upfront cost
// breakdown, and persists a pending application.
func (s *LendingService) SubmitApplication(ctx context.Context, input SubmitApplicationInput) (*domain.LoanApplication, error) {
	if strings.TrimSpace(input.BorrowerID) == "" {
		return nil, customError.WrapValidation("borrower id is required")
	}

	breakdown, err := s.calc.UpfrontCosts(input.Principal, input.Category)
	if err != nil {
		return nil, err
	}

	// Dry-run the schedule so an unservable term is rejected at
	// submission, not at approval.
	if _, err := s.calc.RepaymentSchedule(input.Principal, input.TermWeeks); err != nil {
		return nil, err
	}

	app := &domain.LoanApplication{
		ID:            uuid.New(),
		BorrowerID:    input.BorrowerID,
		Principal:     input.Principal,
		TermWeeks:     input.TermWeeks,
		Category:      input.Category,
		Purpose:       input.Purpose,
		Status:        domain.ApplicationStatusPending,
		Deposit:       breakdown.Deposit,
		InsuranceFee:  breakdown.InsuranceFee,
		ServiceCharge: breakdown.ServiceCharge,
		TotalUpfront:  breakdown.Total,
	}

	if err := s.repos.Applications.Create(ctx, app); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return app, nil
}

// GetApplication returns an application by ID.
func (s *LendingService) GetApplication(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	return s.repos.Applications.GetByID(ctx, id)
}

// RecordUpfrontPayment marks the upfront costs as paid on a pending
// application. The money itself is held outside the engine until
// approval moves it into the revenue pools.
func (s *LendingService) RecordUpfrontPayment(ctx context.Context, id uuid.UUID, proofRef string) error {
	if strings.TrimSpace(proofRef) == "" {
		return customError.WrapValidation("payment proof reference is required")
	}

	return s.uow.WithinTx(ctx, func(r repository.Repos) error {
		app, err := r.Applications.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if app.IsDecided() {
			return customError.WrapInvalidStateTransition("application", app.Status, "upfront-paid")
		}

		app.UpfrontPaid = true
		app.PaymentProofRef = proofRef

		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
}

// ApproveApplication turns a pending application into an active loan as
// one transaction: funding pool debit, loan creation, revenue pool
// credits, and the status flip all commit or roll back together.
func (s *LendingService) ApproveApplication(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	var loan *domain.Loan

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		app, err := r.Applications.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if app.IsDecided() {
			return customError.WrapInvalidStateTransition("application", app.Status, domain.ApplicationStatusApproved)
		}

		if s.cfg.Business.RequireUpfrontPayment && !app.UpfrontPaid {
			return customError.WrapPolicyViolation("upfront costs must be paid before approval")
		}

		terms, err := s.calc.RepaymentSchedule(app.Principal, app.TermWeeks)
		if err != nil {
			return err
		}

		// Pool rows are touched in fixed name order across all
		// transactions: deposits_held, funding, insurance, interest,
		// service_charge.
		if err := r.Pools.Credit(ctx, domain.PoolDepositsHeld, app.Deposit); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := r.Pools.Debit(ctx, domain.PoolFunding, app.Principal); err != nil {
			if errors.Is(err, customError.ErrInsufficientFunds) {
				return customError.WrapPolicyViolation("funding pool cannot cover the principal")
			}
			return err
		}

		if err := r.Pools.Credit(ctx, domain.PoolInsurance, app.InsuranceFee); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// Interest accrues to the pool at disbursement; repayments pay
		// it down against the loan, not the pool.
		if err := r.Pools.Credit(ctx, domain.PoolInterest, terms.TotalRepayable-app.Principal); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := r.Pools.Credit(ctx, domain.PoolServiceCharge, app.ServiceCharge); err != nil {
			return customError.WrapDatabaseError(err)
		}

		today := s.now().Truncate(24 * time.Hour)
		loan = &domain.Loan{
			ID:               app.ID,
			BorrowerID:       app.BorrowerID,
			Principal:        app.Principal,
			InterestRate:     terms.InterestRate,
			TotalRepayable:   terms.TotalRepayable,
			Installment:      terms.Installment,
			FinalInstallment: terms.FinalInstallment,
			TermWeeks:        app.TermWeeks,
			NextDueDate:      today.AddDate(0, 0, s.cfg.Business.TermPeriodDays),
			Deposit:          app.Deposit,
			Status:           domain.LoanStatusActive,
		}

		if err := r.Loans.Create(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}

		decidedAt := s.now()
		app.Status = domain.ApplicationStatusApproved
		app.DecidedAt = &decidedAt

		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// RejectApplication turns a pending application down. No money moves and
// a reason is mandatory.
func (s *LendingService) RejectApplication(ctx context.Context, id uuid.UUID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return customError.WrapValidation("a rejection reason is required")
	}

	return s.uow.WithinTx(ctx, func(r repository.Repos) error {
		app, err := r.Applications.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if app.IsDecided() {
			return customError.WrapInvalidStateTransition("application", app.Status, domain.ApplicationStatusRejected)
		}

		decidedAt := s.now()
		app.Status = domain.ApplicationStatusRejected
		app.RejectReason = reason
		app.DecidedAt = &decidedAt

		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
}

// GetLoan returns a loan by ID.
func (s *LendingService) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return s.repos.Loans.GetByID(ctx, id)
}

// TopUpWallet credits a borrower's standing balance. Deposits arriving
// here are what the scheduler later auto-deducts from.
func (s *LendingService) TopUpWallet(ctx context.Context, borrowerID string, amount int64) (*domain.Wallet, error) {
	if strings.TrimSpace(borrowerID) == "" {
		return nil, customError.WrapValidation("borrower id is required")
	}
	if amount <= 0 {
		return nil, customError.WrapValidationf("top-up amount must be positive, got %d", amount)
	}

	if err := s.repos.Pools.CreditWallet(ctx, borrowerID, amount); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.repos.Pools.GetWallet(ctx, borrowerID)
}
