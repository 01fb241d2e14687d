package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rojanmagar2001/readsync/internal/infra/limiter"
)

func TestPacer_FirstTakeIsFree(t *testing.T) {
	lim := limiter.New(time.Second)

	start := time.Now()
	require.NoError(t, lim.Take(context.Background(), "readwise"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_SecondTakeWaits(t *testing.T) {
	lim := limiter.New(80 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, lim.Take(ctx, "readwise"))

	start := time.Now()
	require.NoError(t, lim.Take(ctx, "readwise"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPacer_SourcesPaceIndependently(t *testing.T) {
	lim := limiter.New(time.Second)
	ctx := context.Background()

	require.NoError(t, lim.Take(ctx, "readwise"))

	start := time.Now()
	require.NoError(t, lim.Take(ctx, "pocket"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_CancelledWait(t *testing.T) {
	lim := limiter.New(5 * time.Second)

	require.NoError(t, lim.Take(context.Background(), "readwise"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := lim.Take(ctx, "readwise")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
