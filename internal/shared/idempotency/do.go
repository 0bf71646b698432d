package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Result reports what Do did with the protected operation.
type Result struct {
	// Executed is true when this call ran fn.
	Executed bool

	// Record is the finalized record when Executed, otherwise the record
	// another caller left behind (in progress or completed).
	Record Record
}

// Do runs fn at most once per (key, appID). When another caller already holds
// the key, fn is not run and the existing record is returned. When fn fails,
// the claim is deleted so a later call may retry. ttl is passed to Put.
func Do(ctx context.Context, store Store, key, appID string, ttl time.Duration, fn func(ctx context.Context) (string, error)) (Result, error) {
	if store == nil {
		return Result{}, errors.New("idempotency: store is required")
	}

	claim, err := store.Exists(ctx, key, appID)
	if err != nil {
		return Result{}, err
	}
	if !claim.Created() {
		return Result{Record: claim.Record}, nil
	}

	response, fnErr := fn(ctx)
	if fnErr != nil {
		if err := store.Delete(context.WithoutCancel(ctx), key, appID); err != nil {
			return Result{Executed: true}, errors.Join(fnErr, fmt.Errorf("idempotency: failed to release claim: %w", err))
		}
		return Result{Executed: true}, fnErr
	}

	record := NewCompleted(response)
	if err := store.Put(ctx, key, appID, record, ttl); err != nil {
		return Result{Executed: true}, fmt.Errorf("idempotency: failed to finalize record: %w", err)
	}

	return Result{Executed: true, Record: record}, nil
}
