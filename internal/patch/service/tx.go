package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "patchdesk/pkg/domain-errors"
	txcontext "patchdesk/pkg/platform/tx"
)

// TxRunner provides the transactional boundary for a patch request's
// read-modify-write cycle. The key is the request id; implementations must
// guarantee that two concurrent calls with the same key never interleave.
type TxRunner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Sharded mutexes give fine-grained locking for the in-memory runner:
// operations distribute across shards by an FNV-1a hash of the request id,
// reducing contention under concurrent load.
const numShards = 128

// defaultTxTimeout bounds how long a transition may hold its shard.
const defaultTxTimeout = 5 * time.Second

// ShardedTx is the in-memory TxRunner.
type ShardedTx struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx() *ShardedTx {
	return &ShardedTx{timeout: defaultTxTimeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := hashKey(key) % numShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// hashKey uses FNV-1a for even shard distribution.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// SQLTx runs the transition inside a database transaction carried through
// context, so the status write and its audit event commit or roll back
// together.
type SQLTx struct {
	db *sql.DB
}

func NewSQLTx(db *sql.DB) *SQLTx {
	return &SQLTx{db: db}
}

func (t *SQLTx) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}
