package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// maxTxRetries bounds transparent retries of serialization conflicts.
const maxTxRetries = 3

// runInTx executes fn inside a serializable transaction, retrying from
// scratch when a concurrent writer invalidates the read set. fn must be
// safe to re-run: it reads fresh state on every attempt.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = attemptTx(ctx, db, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func attemptTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// isSerializationFailure reports whether err is a Postgres serialization
// failure or deadlock, both of which are safe to retry.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
