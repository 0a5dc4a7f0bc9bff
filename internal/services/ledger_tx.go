package services

import (
	"context"
	stderrors "errors"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/metrics"
)

// maxCommitRetries bounds the optimistic retry loop on ledger commits.
const maxCommitRetries = 3

// mutateLedger runs a read-mutate-commit cycle under optimistic concurrency.
// The mutation fn is re-invoked against a fresh read after every version
// conflict, so validation always sees the state it commits against. A
// rejection from fn aborts immediately; only commit races are retried.
func mutateLedger(ctx context.Context, repo ledger.Repository, userID int64, fn func(*ledger.User) error) (*ledger.User, error) {
	var lastErr error
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		u, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := fn(u); err != nil {
			return nil, err
		}

		err = repo.UpdateLedger(ctx, u, u.Version)
		if err == nil {
			return u, nil
		}
		if !stderrors.Is(err, ledger.ErrVersionConflict) {
			return nil, err
		}

		metrics.RecordLedgerConflict()
		lastErr = err
	}
	return nil, errors.TransactionFailed(lastErr)
}
