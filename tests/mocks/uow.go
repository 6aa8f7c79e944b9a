package mocks

import (
	"context"

	"github.com/microlend/loan-engine/internal/repository"
)

// FakeUnitOfWork runs the unit-of-work function directly against a fixed
// set of (usually mock) repositories, with no real transaction. The
// rollback behavior under test is the service returning an error, not
// the database undoing writes.
type FakeUnitOfWork struct {
	Repos repository.Repos
}

func (u *FakeUnitOfWork) WithinTx(_ context.Context, fn func(r repository.Repos) error) error {
	return fn(u.Repos)
}

// RepoSet bundles one mock per repository interface plus a FakeUnitOfWork
// over all of them, the common fixture for service unit tests.
type RepoSet struct {
	Applications *MockApplicationRepository
	Loans        *MockLoanRepository
	Deductions   *MockDeductionRecordRepository
	Reminders    *MockReminderRecordRepository
	Offsets      *MockOffsetRepository
	Pools        *MockPoolRepository
	Contacts     *MockContactLogRepository
}

func NewRepoSet() *RepoSet {
	return &RepoSet{
		Applications: &MockApplicationRepository{},
		Loans:        &MockLoanRepository{},
		Deductions:   &MockDeductionRecordRepository{},
		Reminders:    &MockReminderRecordRepository{},
		Offsets:      &MockOffsetRepository{},
		Pools:        &MockPoolRepository{},
		Contacts:     &MockContactLogRepository{},
	}
}

func (s *RepoSet) Repos() repository.Repos {
	return repository.Repos{
		Applications: s.Applications,
		Loans:        s.Loans,
		Deductions:   s.Deductions,
		Reminders:    s.Reminders,
		Offsets:      s.Offsets,
		Pools:        s.Pools,
		Contacts:     s.Contacts,
	}
}

func (s *RepoSet) UnitOfWork() *FakeUnitOfWork {
	return &FakeUnitOfWork{Repos: s.Repos()}
}
