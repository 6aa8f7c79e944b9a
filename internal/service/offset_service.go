package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/microlend/loan-engine/internal/domain"
	"github.com/microlend/loan-engine/internal/notify"
	"github.com/microlend/loan-engine/internal/repository"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

// OffsetService handles the human-approved workflows that move money
// outside the regular schedule: offsetting deposit/standing-balance/
// external funds against a loan, and refunding the deposit after full
// repayment. Requests are created pending; only an operator decision
// moves money, and a decision is terminal.
type OffsetService struct {
	uow      repository.UnitOfWork
	repos    repository.Repos
	notifier notify.Notifier
	now      func() time.Time
}

func NewOffsetService(
	uow repository.UnitOfWork,
	repos repository.Repos,
	notifier notify.Notifier,
) *OffsetService {
	return &OffsetService{
		uow:      uow,
		repos:    repos,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *OffsetService) WithClock(now func() time.Time) *OffsetService {
	s.now = now
	return s
}

// RequestOffset creates a pending request to apply funds against an
// active loan's remaining balance.
func (s *OffsetService) RequestOffset(ctx context.Context, loanID uuid.UUID, source string, amount int64) (*domain.OffsetRequest, error) {
	if !domain.ValidOffsetSource(source) {
		return nil, customError.WrapValidationf("unknown offset source %q", source)
	}
	if amount <= 0 {
		return nil, customError.WrapValidationf("offset amount must be positive, got %d", amount)
	}

	loan, err := s.repos.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !loan.IsSchedulable() {
		return nil, customError.WrapInvalidStateTransition("loan", loan.Status, "offset")
	}

	if amount > loan.Outstanding() {
		return nil, customError.WrapValidationf("offset amount %d exceeds outstanding balance %d", amount, loan.Outstanding())
	}

	if source == domain.OffsetSourceDeposit && amount > loan.Deposit {
		return nil, customError.WrapValidationf("offset amount %d exceeds held deposit %d", amount, loan.Deposit)
	}

	request := &domain.OffsetRequest{
		ID:         uuid.New(),
		LoanID:     loan.ID,
		BorrowerID: loan.BorrowerID,
		Kind:       domain.OffsetKindOffset,
		Source:     source,
		Amount:     amount,
		Status:     domain.OffsetStatusPending,
	}

	if err := s.repos.Offsets.Create(ctx, request); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return request, nil
}

// RequestDepositRefund creates a pending request to return the
// refundable deposit of a completed loan.
func (s *OffsetService) RequestDepositRefund(ctx context.Context, loanID uuid.UUID) (*domain.OffsetRequest, error) {
	loan, err := s.repos.Loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != domain.LoanStatusCompleted {
		return nil, customError.WrapPolicyViolation("deposit refunds require a completed loan")
	}
	if loan.DepositRefunded {
		return nil, customError.WrapInvalidStateTransition("deposit", "refunded", "refund-requested")
	}

	request := &domain.OffsetRequest{
		ID:         uuid.New(),
		LoanID:     loan.ID,
		BorrowerID: loan.BorrowerID,
		Kind:       domain.OffsetKindRefund,
		Source:     domain.OffsetSourceDeposit,
		Amount:     loan.Deposit,
		Status:     domain.OffsetStatusPending,
	}

	if err := s.repos.Offsets.Create(ctx, request); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return request, nil
}

// ListPending returns the operator's decision queue.
func (s *OffsetService) ListPending(ctx context.Context) ([]*domain.OffsetRequest, error) {
	requests, err := s.repos.Offsets.ListPending(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return requests, nil
}

// Decide approves or rejects a pending request. Approval is the only
// path that moves money, and it happens in one transaction with the
// loan update. Re-deciding a decided request is invalid.
func (s *OffsetService) Decide(ctx context.Context, requestID uuid.UUID, approve bool, note string) (*domain.OffsetRequest, error) {
	var (
		decided   *domain.OffsetRequest
		completed *domain.Loan
	)

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		request, err := r.Offsets.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		if request.IsDecided() {
			return customError.WrapInvalidStateTransition("offset request", request.Status, "decided")
		}

		decidedAt := s.now()
		request.Note = note
		request.DecidedAt = &decidedAt

		if !approve {
			request.Status = domain.OffsetStatusRejected
			if err := r.Offsets.Update(ctx, request); err != nil {
				return customError.WrapDatabaseError(err)
			}
			decided = request
			return nil
		}

		loan, err := r.Loans.GetByIDForUpdate(ctx, request.LoanID)
		if err != nil {
			return err
		}

		switch request.Kind {
		case domain.OffsetKindOffset:
			if err := s.applyOffset(ctx, r, request, loan); err != nil {
				return err
			}
		case domain.OffsetKindRefund:
			if err := s.applyRefund(ctx, r, loan); err != nil {
				return err
			}
		}

		if err := r.Loans.Update(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}

		request.Status = domain.OffsetStatusApproved
		if err := r.Offsets.Update(ctx, request); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if loan.Status == domain.LoanStatusCompleted && request.Kind == domain.OffsetKindOffset {
			completed = loan
		}

		decided = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed != nil {
		s.send(ctx, notify.Event{
			Kind:       notify.EventLoanCompleted,
			LoanID:     completed.ID,
			BorrowerID: completed.BorrowerID,
			OccurredAt: s.now(),
		})
	}

	return decided, nil
}

// applyOffset debits the named source and credits the loan's repaid
// balance. The amount is capped by what is still outstanding; an offset
// can never push repaid past the total repayable.
func (s *OffsetService) applyOffset(ctx context.Context, r repository.Repos, request *domain.OffsetRequest, loan *domain.Loan) error {
	if !loan.IsSchedulable() {
		return customError.WrapInvalidStateTransition("loan", loan.Status, "offset")
	}

	amount := request.Amount
	if outstanding := loan.Outstanding(); amount > outstanding {
		amount = outstanding
	}

	switch request.Source {
	case domain.OffsetSourceDeposit:
		if amount > loan.Deposit {
			return customError.WrapInsufficientFunds("deposit", loan.Deposit, amount)
		}
		if err := r.Pools.Debit(ctx, domain.PoolDepositsHeld, amount); err != nil {
			return err
		}
		loan.Deposit -= amount
	case domain.OffsetSourceStandingBalance:
		if err := r.Pools.DebitWallet(ctx, loan.BorrowerID, amount); err != nil {
			return err
		}
	case domain.OffsetSourceExternal:
		// Cash arrived out of band; nothing to debit here.
	}

	loan.Repaid += amount
	if loan.IsFullyRepaid() {
		loan.Status = domain.LoanStatusCompleted
	}

	return nil
}

// applyRefund returns the held deposit to the borrower's standing
// balance after full repayment.
func (s *OffsetService) applyRefund(ctx context.Context, r repository.Repos, loan *domain.Loan) error {
	if loan.Status != domain.LoanStatusCompleted {
		return customError.WrapPolicyViolation("deposit refunds require a completed loan")
	}
	if loan.DepositRefunded {
		return customError.WrapInvalidStateTransition("deposit", "refunded", "refunded")
	}

	if err := r.Pools.Debit(ctx, domain.PoolDepositsHeld, loan.Deposit); err != nil {
		return err
	}
	if err := r.Pools.CreditWallet(ctx, loan.BorrowerID, loan.Deposit); err != nil {
		return customError.WrapDatabaseError(err)
	}

	loan.DepositRefunded = true
	return nil
}

func (s *OffsetService) send(ctx context.Context, event notify.Event) {
	if err := s.notifier.Send(ctx, event); err != nil {
		log.Printf("offset: notify %s for loan %s: %v", event.Kind, event.LoanID, err)
	}
}
