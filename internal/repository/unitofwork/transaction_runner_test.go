package unitofwork

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/repository/contract"
	"ai-docreview-be/pkg/retry"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeUnitOfWork struct {
	begun      bool
	committed  bool
	rolledBack bool
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error { f.begun = true; return nil }
func (f *fakeUnitOfWork) Commit() error                   { f.committed = true; return nil }
func (f *fakeUnitOfWork) Rollback() error                 { f.rolledBack = true; return nil }
func (f *fakeUnitOfWork) ReviewSessionRepository() contract.ReviewSessionRepository { return nil }
func (f *fakeUnitOfWork) FindingRepository() contract.FindingRepository             { return nil }
func (f *fakeUnitOfWork) DiscussionRepository() contract.DiscussionRepository       { return nil }
func (f *fakeUnitOfWork) LearningEntryRepository() contract.LearningEntryRepository { return nil }

type fakeFactory struct {
	units []*fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	u := &fakeUnitOfWork{}
	f.units = append(f.units, u)
	return u
}

func instantPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
}

func TestIsContention(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsContention(tt.err))
		})
	}
}

func TestRunCommitsOnSuccess(t *testing.T) {
	factory := &fakeFactory{}
	runner := NewTransactionRunner(factory, instantPolicy(3))

	err := runner.Run(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		return nil
	})

	assert.NoError(t, err)
	assert.Len(t, factory.units, 1)
	assert.True(t, factory.units[0].begun)
	assert.True(t, factory.units[0].committed)
}

func TestRunRetriesContentionWithFreshTransaction(t *testing.T) {
	factory := &fakeFactory{}
	runner := NewTransactionRunner(factory, instantPolicy(3))

	calls := 0
	err := runner.Run(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, factory.units, 2)
	assert.True(t, factory.units[0].rolledBack)
	assert.True(t, factory.units[1].committed)
}

func TestRunSurfacesStoreBusyWhenExhausted(t *testing.T) {
	factory := &fakeFactory{}
	runner := NewTransactionRunner(factory, instantPolicy(2))

	err := runner.Run(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		return &pgconn.PgError{Code: "40P01"}
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.KindStoreBusy, apperrors.KindOf(err))
	assert.Len(t, factory.units, 2)
}

func TestRunDoesNotRetryDomainErrors(t *testing.T) {
	factory := &fakeFactory{}
	runner := NewTransactionRunner(factory, instantPolicy(5))

	domainErr := apperrors.Validation("bad input")
	calls := 0
	err := runner.Run(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		calls++
		return domainErr
	})

	assert.ErrorIs(t, err, domainErr)
	assert.Equal(t, 1, calls)
	assert.Len(t, factory.units, 1)
	assert.True(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[0].committed)
}
