package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/microlend/loan-engine/internal/config"
	"github.com/microlend/loan-engine/internal/domain"
	"github.com/microlend/loan-engine/internal/notify"
	"github.com/microlend/loan-engine/internal/repository"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

const defaulterCachePrefix = "defaulters:"

// DefaulterService derives the overdue-loan view and carries the
// administrator collection actions. The view is read-only; only the
// explicitly confirmed actions mutate a loan.
type DefaulterService struct {
	uow      repository.UnitOfWork
	repos    repository.Repos
	notifier notify.Notifier
	redis    *redis.Client
	cfg      *config.Config
	now      func() time.Time
}

func NewDefaulterService(
	uow repository.UnitOfWork,
	repos repository.Repos,
	notifier notify.Notifier,
	redisClient *redis.Client,
	cfg *config.Config,
) *DefaulterService {
	return &DefaulterService{
		uow:      uow,
		repos:    repos,
		notifier: notifier,
		redis:    redisClient,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *DefaulterService) WithClock(now func() time.Time) *DefaulterService {
	s.now = now
	return s
}

// ListOverdue returns the defaulter views for overdue loans, optionally
// filtered by severity. Views are cached briefly in Redis; cache
// failures degrade to the database.
func (s *DefaulterService) ListOverdue(ctx context.Context, severity string) ([]domain.DefaulterView, error) {
	if severity != "" && !domain.ValidSeverity(severity) {
		return nil, customError.WrapValidationf("unknown severity %q", severity)
	}

	cacheKey := defaulterCachePrefix + severityKey(severity)
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var views []domain.DefaulterView
		if err := json.Unmarshal([]byte(cached), &views); err == nil {
			return views, nil
		}
	}

	loans, err := s.repos.Loans.ListSchedulable(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	today := s.now().Truncate(24 * time.Hour)
	views := make([]domain.DefaulterView, 0)

	for _, loan := range loans {
		view := domain.Classify(loan, today, s.cfg.Business.TermPeriodDays)
		if view == nil {
			continue
		}
		if severity != "" && view.Severity != severity {
			continue
		}
		views = append(views, *view)
	}

	if payload, err := json.Marshal(views); err == nil {
		if err := s.redis.Set(ctx, cacheKey, payload, s.cfg.Business.DefaulterCacheTTL).Err(); err != nil {
			log.Printf("defaulter: caching %s: %v", cacheKey, err)
		}
	}

	return views, nil
}

func severityKey(severity string) string {
	if severity == "" {
		return "all"
	}
	return severity
}

// RecordContact appends a collection contact note against a loan.
func (s *DefaulterService) RecordContact(ctx context.Context, loanID uuid.UUID, note string) (*domain.ContactLog, error) {
	if strings.TrimSpace(note) == "" {
		return nil, customError.WrapValidation("a contact note is required")
	}

	if _, err := s.repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, err
	}

	contact := &domain.ContactLog{
		ID:     uuid.New(),
		LoanID: loanID,
		Note:   note,
	}
	if err := s.repos.Contacts.Create(ctx, contact); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return contact, nil
}

// ListContacts returns a loan's contact history, newest first.
func (s *DefaulterService) ListContacts(ctx context.Context, loanID uuid.UUID) ([]*domain.ContactLog, error) {
	logs, err := s.repos.Contacts.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return logs, nil
}

// MarkAsPaid settles a loan's overdue amount out of band: credits the
// repaid balance, advances the due date past today, and clears the
// loan's contact history. Destructive, so it demands confirm=true.
func (s *DefaulterService) MarkAsPaid(ctx context.Context, loanID uuid.UUID, confirm bool) (*domain.Loan, error) {
	if !confirm {
		return nil, customError.WrapValidation("mark-as-paid requires explicit confirmation")
	}

	var updated *domain.Loan

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}

		if !l.IsSchedulable() {
			return customError.WrapInvalidStateTransition("loan", l.Status, "mark-paid")
		}

		today := s.now().Truncate(24 * time.Hour)
		view := domain.Classify(l, today, s.cfg.Business.TermPeriodDays)
		if view == nil {
			return customError.WrapValidation("loan is not overdue")
		}

		amount := view.OverdueAmount
		if outstanding := l.Outstanding(); amount > outstanding {
			amount = outstanding
		}

		l.Repaid += amount
		l.NextDueDate = l.NextDueDate.AddDate(0, 0, view.MissedPayments*s.cfg.Business.TermPeriodDays)

		switch {
		case l.IsFullyRepaid():
			l.Status = domain.LoanStatusCompleted
		case l.Status == domain.LoanStatusDefaulted:
			l.Status = domain.LoanStatusActive
		}

		if err := r.Contacts.DeleteByLoan(ctx, loanID); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := r.Loans.Update(ctx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)

	if updated.Status == domain.LoanStatusCompleted {
		s.send(ctx, notify.Event{
			Kind:       notify.EventLoanCompleted,
			LoanID:     updated.ID,
			BorrowerID: updated.BorrowerID,
			OccurredAt: s.now(),
		})
	}

	return updated, nil
}

// Suspend terminally blocks a loan from all further scheduling.
// Destructive, so it demands confirm=true.
func (s *DefaulterService) Suspend(ctx context.Context, loanID uuid.UUID, confirm bool) (*domain.Loan, error) {
	if !confirm {
		return nil, customError.WrapValidation("suspend requires explicit confirmation")
	}

	var updated *domain.Loan

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}

		if !l.IsSchedulable() {
			return customError.WrapInvalidStateTransition("loan", l.Status, domain.LoanStatusSuspended)
		}

		l.Status = domain.LoanStatusSuspended
		if err := r.Loans.Update(ctx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	s.send(ctx, notify.Event{
		Kind:       notify.EventLoanSuspended,
		LoanID:     updated.ID,
		BorrowerID: updated.BorrowerID,
		OccurredAt: s.now(),
	})

	return updated, nil
}

// MarkDefaulted escalates an overdue active loan to defaulted. The
// scheduler never does this implicitly; it is an operator decision.
func (s *DefaulterService) MarkDefaulted(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	var updated *domain.Loan

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}

		if l.Status != domain.LoanStatusActive {
			return customError.WrapInvalidStateTransition("loan", l.Status, domain.LoanStatusDefaulted)
		}

		today := s.now().Truncate(24 * time.Hour)
		if domain.Classify(l, today, s.cfg.Business.TermPeriodDays) == nil {
			return customError.WrapValidation("loan is not overdue")
		}

		l.Status = domain.LoanStatusDefaulted
		if err := r.Loans.Update(ctx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return updated, nil
}

func (s *DefaulterService) invalidateCache(ctx context.Context) {
	keys := []string{
		defaulterCachePrefix + "all",
		defaulterCachePrefix + domain.SeverityMild,
		defaulterCachePrefix + domain.SeverityModerate,
		defaulterCachePrefix + domain.SeveritySevere,
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("defaulter: invalidating cache: %v", err)
	}
}

func (s *DefaulterService) send(ctx context.Context, event notify.Event) {
	if err := s.notifier.Send(ctx, event); err != nil {
		log.Printf("defaulter: notify %s for loan %s: %v", event.Kind, event.LoanID, err)
	}
}
