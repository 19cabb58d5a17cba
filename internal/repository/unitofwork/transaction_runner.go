package unitofwork

import (
	"context"
	"errors"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/pkg/retry"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATEs that indicate contention worth retrying:
// serialization_failure, deadlock_detected, lock_not_available.
var retriableSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

// IsContention reports whether err is a transient database contention
// failure that a fresh transaction may resolve.
func IsContention(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retriableSQLStates[pgErr.Code]
	}
	return false
}

// TransactionRunner wraps the unit-of-work lifecycle in a retry loop so
// callers get a single entry point for contended writes.
type TransactionRunner struct {
	factory RepositoryFactory
	policy  retry.Policy
}

func NewTransactionRunner(factory RepositoryFactory, policy retry.Policy) *TransactionRunner {
	return &TransactionRunner{
		factory: factory,
		policy:  policy,
	}
}

// Run executes fn inside a transaction, retrying on contention. When
// attempts are exhausted the last error is surfaced as STORE_BUSY so
// callers can tell the author to simply try again.
func (t *TransactionRunner) Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	err := t.policy.Do(ctx, IsContention, func(ctx context.Context) error {
		uow := t.factory.NewUnitOfWork(ctx)
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		if err := fn(ctx, uow); err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil && IsContention(err) {
		return apperrors.StoreBusy(err)
	}
	return err
}
