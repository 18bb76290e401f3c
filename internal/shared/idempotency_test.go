package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStoreClaimsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewIdempotencyStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, "payments", "abc"))
	require.ErrorIs(t, store.Claim(ctx, "payments", "abc"), ErrIdempotencyConflict)
	require.NoError(t, store.Claim(ctx, "other", "abc"))

	require.NoError(t, store.Release(ctx, "payments", "abc"))
	require.NoError(t, store.Claim(ctx, "payments", "abc"))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, store.Claim(ctx, "payments", "abc"))

	require.Error(t, store.Claim(ctx, "payments", ""))
}
