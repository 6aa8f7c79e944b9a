package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	customError "github.com/microlend/loan-engine/pkg/errors"
)

// Repos bundles transaction-scoped repositories for a unit of work.
type Repos struct {
	Applications ApplicationRepository
	Loans        LoanRepository
	Deductions   DeductionRecordRepository
	Reminders    ReminderRecordRepository
	Offsets      OffsetRepository
	Pools        PoolRepository
	Contacts     ContactLogRepository
}

// UnitOfWork runs a function against repositories bound to one database
// transaction. Cross-entity money moves (approval, auto-deduction,
// offset decisions) go through here so partial failure cannot split
// money from state.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}

type sqlxUnitOfWork struct {
	db *sqlx.DB
}

// NewUnitOfWork creates a UnitOfWork over a sqlx database handle.
func NewUnitOfWork(db *sqlx.DB) UnitOfWork {
	return &sqlxUnitOfWork{db: db}
}

func (u *sqlxUnitOfWork) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	repos := Repos{
		Applications: &applicationRepository{db: tx},
		Loans:        &loanRepository{db: tx},
		Deductions:   &deductionRecordRepository{db: tx},
		Reminders:    &reminderRecordRepository{db: tx},
		Offsets:      &offsetRepository{db: tx},
		Pools:        &poolRepository{db: tx},
		Contacts:     &contactLogRepository{db: tx},
	}

	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}

	return nil
}

// NewRepos binds non-transactional repositories to the database handle,
// for read paths that need no unit of work.
func NewRepos(db *sqlx.DB) Repos {
	return Repos{
		Applications: &applicationRepository{db: db},
		Loans:        &loanRepository{db: db},
		Deductions:   &deductionRecordRepository{db: db},
		Reminders:    &reminderRecordRepository{db: db},
		Offsets:      &offsetRepository{db: db},
		Pools:        &poolRepository{db: db},
		Contacts:     &contactLogRepository{db: db},
	}
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
