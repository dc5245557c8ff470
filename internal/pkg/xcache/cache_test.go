package xcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xredis"
)

type cachedProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func TestNewFromConfigMemory(t *testing.T) {
	cache := NewFromConfig[cachedProfile](Config{Mode: ModeMemory})

	ctx := context.Background()
	err := cache.Set(ctx, "profile:u-1", cachedProfile{ID: "u-1", Email: "a@b.c"})
	require.NoError(t, err)

	got, err := cache.Get(ctx, "profile:u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	require.NoError(t, cache.Delete(ctx, "profile:u-1"))

	_, err = cache.Get(ctx, "profile:u-1")
	assert.Error(t, err)
}

func TestNewFromConfigRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cache := NewFromConfig[cachedProfile](Config{
		Mode: ModeRedis,
		Redis: xredis.Config{
			Addr:       mr.Addr(),
			Expiration: time.Minute,
		},
	})

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "profile:u-2", cachedProfile{ID: "u-2"}))

	got, err := cache.Get(ctx, "profile:u-2")
	require.NoError(t, err)
	assert.Equal(t, "u-2", got.ID)
}

func TestNewFromConfigTwoLevel(t *testing.T) {
	mr := miniredis.RunT(t)

	cache := NewFromConfig[cachedProfile](Config{
		Mode: ModeTwoLevel,
		Redis: xredis.Config{
			Addr: mr.Addr(),
		},
	})

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "profile:u-3", cachedProfile{ID: "u-3"}))

	got, err := cache.Get(ctx, "profile:u-3")
	require.NoError(t, err)
	assert.Equal(t, "u-3", got.ID)
}

func TestNewFromConfigUnsetModeIsNoop(t *testing.T) {
	cache := NewFromConfig[cachedProfile](Config{})

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", cachedProfile{ID: "x"}))

	_, err := cache.Get(ctx, "k")
	assert.Error(t, err)
}
