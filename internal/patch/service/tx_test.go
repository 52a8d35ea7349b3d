package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "patchdesk/pkg/domain-errors"
)

func TestShardedTxSerializesSameKey(t *testing.T) {
	runner := NewShardedTx()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.RunInTx(context.Background(), "pr_1", func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen, "same key must never run concurrently")
}

func TestShardedTxPropagatesErrors(t *testing.T) {
	runner := NewShardedTx()
	sentinel := errors.New("boom")

	err := runner.RunInTx(context.Background(), "pr_1", func(context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestShardedTxRejectsCancelledContext(t *testing.T) {
	runner := NewShardedTx()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.RunInTx(ctx, "pr_1", func(context.Context) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestShardedTxAppliesDeadline(t *testing.T) {
	runner := NewShardedTx()

	err := runner.RunInTx(context.Background(), "pr_1", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok, "runner must bound the transaction")
		return nil
	})
	require.NoError(t, err)
}

func TestGenerateIDShape(t *testing.T) {
	now := time.Date(2026, 2, 18, 16, 45, 0, 0, time.UTC)
	id := GenerateID(now)

	assert.Regexp(t, `^pr_[0-9a-z]+_[0-9a-f]{10}$`, id)

	later := GenerateID(now.Add(time.Second))
	assert.Less(t, id[:len("pr_")+8], later[:len("pr_")+8],
		"timestamp prefix keeps ids roughly sortable")
}
