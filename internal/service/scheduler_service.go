package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/microlend/loan-engine/internal/config"
	"github.com/microlend/loan-engine/internal/domain"
	"github.com/microlend/loan-engine/internal/notify"
	"github.com/microlend/loan-engine/internal/repository"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

const tickLockKey = "scheduler:tick:lock"

// SchedulerService drives the recurring repayment tick: reminders ahead
// of due dates, automatic deduction of overdue installments from
// standing balances, and completion of fully repaid loans. Every action
// is gated by an idempotence record, so a tick is safe to run any
// number of times.
type SchedulerService struct {
	uow      repository.UnitOfWork
	repos    repository.Repos
	notifier notify.Notifier
	redis    *redis.Client
	cfg      *config.Config
	now      func() time.Time
}

func NewSchedulerService(
	uow repository.UnitOfWork,
	repos repository.Repos,
	notifier notify.Notifier,
	redisClient *redis.Client,
	cfg *config.Config,
) *SchedulerService {
	return &SchedulerService{
		uow:      uow,
		repos:    repos,
		notifier: notifier,
		redis:    redisClient,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *SchedulerService) WithClock(now func() time.Time) *SchedulerService {
	s.now = now
	return s
}

// TickReport summarizes what one tick did.
type TickReport struct {
	LoansEvaluated    int `json:"loans_evaluated"`
	RemindersSent     int `json:"reminders_sent"`
	DeductionsApplied int `json:"deductions_applied"`
	InsufficientFunds int `json:"insufficient_funds"`
	LoansCompleted    int `json:"loans_completed"`
}

// TickWithLock runs a tick under a Redis lock so overlapping scheduler
// instances (or a retry overlapping a slow tick) do not interleave. A
// held lock skips the tick; the idempotence records make the skip safe.
func (s *SchedulerService) TickWithLock(ctx context.Context) (TickReport, error) {
	acquired, err := s.redis.SetNX(ctx, tickLockKey, s.now().Format(time.RFC3339), s.cfg.Scheduler.TickLockTTL).Result()
	if err != nil {
		return TickReport{}, customError.WrapCacheError(err)
	}
	if !acquired {
		log.Printf("scheduler: tick lock held elsewhere, skipping")
		return TickReport{}, nil
	}
	defer func() {
		if err := s.redis.Del(context.WithoutCancel(ctx), tickLockKey).Err(); err != nil {
			log.Printf("scheduler: releasing tick lock: %v", err)
		}
	}()

	return s.Tick(ctx)
}

// Tick evaluates every schedulable loan once. Per-loan failures are
// logged and do not stop the sweep.
func (s *SchedulerService) Tick(ctx context.Context) (TickReport, error) {
	report := TickReport{}

	loans, err := s.repos.Loans.ListSchedulable(ctx)
	if err != nil {
		return report, customError.WrapDatabaseError(err)
	}

	today := s.now().Truncate(24 * time.Hour)

	for _, loan := range loans {
		report.LoansEvaluated++
		if err := s.processLoan(ctx, loan, today, &report); err != nil {
			log.Printf("scheduler: loan %s: %v", loan.ID, err)
		}
	}

	return report, nil
}

func (s *SchedulerService) processLoan(ctx context.Context, loan *domain.Loan, today time.Time, report *TickReport) error {
	if loan.IsFullyRepaid() {
		return s.completeLoan(ctx, loan.ID, report)
	}

	daysUntil := loan.DaysUntilDue(today)

	offsets, err := s.cfg.ReminderOffsets()
	if err != nil {
		return err
	}

	for _, offset := range offsets {
		if daysUntil == offset {
			if err := s.remind(ctx, loan, reminderTiming(offset), report); err != nil {
				return err
			}
		}
	}

	if daysUntil < 0 {
		return s.deduct(ctx, loan, report)
	}

	return nil
}

func reminderTiming(daysBefore int) string {
	if daysBefore == 0 {
		return domain.ReminderTimingT0
	}
	return fmt.Sprintf("T-%d", daysBefore)
}

// remind emits one reminder for (loan, due date, timing), once ever.
func (s *SchedulerService) remind(ctx context.Context, loan *domain.Loan, timing string, report *TickReport) error {
	exists, err := s.repos.Reminders.Exists(ctx, loan.ID, loan.NextDueDate, timing)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	// Fire-and-forget: delivery failure is the notifier's problem, the
	// record is still written so the tick never spams.
	event := notify.Event{
		Kind:       "reminder." + timing,
		LoanID:     loan.ID,
		BorrowerID: loan.BorrowerID,
		Amount:     loan.NextInstallment(),
		DueDate:    loan.NextDueDate,
		OccurredAt: s.now(),
	}
	if err := s.notifier.Send(ctx, event); err != nil {
		log.Printf("scheduler: reminder delivery for loan %s: %v", loan.ID, err)
	}

	record := &domain.ReminderRecord{
		ID:      uuid.New(),
		LoanID:  loan.ID,
		DueDate: loan.NextDueDate,
		Timing:  timing,
	}
	if err := s.repos.Reminders.Create(ctx, record); err != nil && !errors.Is(err, customError.ErrDuplicateRecord) {
		return err
	}

	report.RemindersSent++
	return nil
}

// deduct attempts the automatic deduction for an overdue due date. The
// AutoDeductionRecord is written inside the same transaction as the
// wallet debit and the loan update, so either all of it happened or
// none of it did, and a record present means the cash already moved.
func (s *SchedulerService) deduct(ctx context.Context, loan *domain.Loan, report *TickReport) error {
	dueDate := loan.NextDueDate

	exists, err := s.repos.Deductions.Exists(ctx, loan.ID, dueDate)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var (
		deducted  int64
		completed bool
	)

	err = s.uow.WithinTx(ctx, func(r repository.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loan.ID)
		if err != nil {
			return err
		}

		// A concurrent offset approval or manual action may have moved
		// the loan since the sweep read it.
		if !l.IsSchedulable() || !l.NextDueDate.Equal(dueDate) {
			return nil
		}

		installment := l.NextInstallment()
		if installment == 0 {
			return nil
		}

		record := &domain.AutoDeductionRecord{
			ID:      uuid.New(),
			LoanID:  l.ID,
			DueDate: dueDate,
			Amount:  installment,
		}
		if err := r.Deductions.Create(ctx, record); err != nil {
			return err
		}

		if err := r.Pools.DebitWallet(ctx, l.BorrowerID, installment); err != nil {
			return err
		}

		l.Repaid += installment
		l.NextDueDate = l.NextDueDate.AddDate(0, 0, s.cfg.Business.TermPeriodDays)

		switch {
		case l.IsFullyRepaid():
			l.Status = domain.LoanStatusCompleted
			completed = true
		case l.Status == domain.LoanStatusDefaulted && l.DaysUntilDue(s.now().Truncate(24*time.Hour)) >= 0:
			// Full catch-up brings a defaulted loan back to active.
			l.Status = domain.LoanStatusActive
		}

		if err := r.Loans.Update(ctx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		deducted = installment
		return nil
	})

	switch {
	case errors.Is(err, customError.ErrDuplicateRecord):
		// Another tick already deducted this due date.
		return nil
	case errors.Is(err, customError.ErrInsufficientFunds):
		// No partial deduction. The loan stays overdue and the balance
		// is re-checked on every tick, so funds arriving later are
		// caught automatically.
		report.InsufficientFunds++
		s.send(ctx, notify.Event{
			Kind:       notify.EventInsufficientFunds,
			LoanID:     loan.ID,
			BorrowerID: loan.BorrowerID,
			Amount:     loan.NextInstallment(),
			DueDate:    dueDate,
			OccurredAt: s.now(),
		})
		return nil
	case err != nil:
		return err
	}

	if deducted == 0 {
		return nil
	}

	report.DeductionsApplied++
	s.send(ctx, notify.Event{
		Kind:       notify.EventPaymentCompleted,
		LoanID:     loan.ID,
		BorrowerID: loan.BorrowerID,
		Amount:     deducted,
		DueDate:    dueDate,
		OccurredAt: s.now(),
	})

	if completed {
		report.LoansCompleted++
		s.send(ctx, notify.Event{
			Kind:       notify.EventLoanCompleted,
			LoanID:     loan.ID,
			BorrowerID: loan.BorrowerID,
			OccurredAt: s.now(),
		})
	}

	return nil
}

// completeLoan flips a fully repaid loan to completed. The deposit
// refund stays a human-approved request; the engine never auto-refunds.
func (s *SchedulerService) completeLoan(ctx context.Context, loanID uuid.UUID, report *TickReport) error {
	var flipped bool

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}

		if !l.IsSchedulable() || !l.IsFullyRepaid() {
			return nil
		}

		l.Status = domain.LoanStatusCompleted
		if err := r.Loans.Update(ctx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		flipped = true
		return nil
	})
	if err != nil {
		return err
	}

	if flipped {
		report.LoansCompleted++
	}
	return nil
}

func (s *SchedulerService) send(ctx context.Context, event notify.Event) {
	if err := s.notifier.Send(ctx, event); err != nil {
		log.Printf("scheduler: notify %s for loan %s: %v", event.Kind, event.LoanID, err)
	}
}
