package replay

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuardCheckAndRecord(t *testing.T) {
	guard := NewMemoryGuard(time.Hour)
	ctx := context.Background()

	seen, err := guard.Seen(ctx, "0xaaa")
	require.NoError(t, err)
	assert.False(t, seen)

	first, err := guard.CheckAndRecord(ctx, "0xaaa")
	require.NoError(t, err)
	assert.True(t, first)

	// Second record of the same reference is not first
	first, err = guard.CheckAndRecord(ctx, "0xaaa")
	require.NoError(t, err)
	assert.False(t, first)

	seen, err = guard.Seen(ctx, "0xaaa")
	require.NoError(t, err)
	assert.True(t, seen)

	// A different reference is unaffected
	first, err = guard.CheckAndRecord(ctx, "0xbbb")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestMemoryGuardExpiry(t *testing.T) {
	guard := NewMemoryGuard(20 * time.Millisecond)
	ctx := context.Background()

	first, err := guard.CheckAndRecord(ctx, "0xaaa")
	require.NoError(t, err)
	require.True(t, first)

	time.Sleep(50 * time.Millisecond)

	seen, err := guard.Seen(ctx, "0xaaa")
	require.NoError(t, err)
	assert.False(t, seen, "entry should expire after the window")

	// An expired reference can be recorded again
	first, err = guard.CheckAndRecord(ctx, "0xaaa")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestMemoryGuardConcurrentCheckAndRecord(t *testing.T) {
	guard := NewMemoryGuard(time.Hour)
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	var firsts atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := guard.CheckAndRecord(ctx, "0xaaa")
			assert.NoError(t, err)
			if first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), firsts.Load(), "exactly one concurrent caller may be first")
}
