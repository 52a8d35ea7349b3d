// Package tx carries a *sql.Tx through context so a status transition and
// its audit event land in the same transaction: the lifecycle runner opens
// the Tx and both the patch request and audit stores pick it up via From.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present. Stores fall back
// to their own *sql.DB when no transition is in flight.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
