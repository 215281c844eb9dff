package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelane/cartwish/internal/kvstore"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, 24*time.Hour), mr
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, mr := setupTestStore(t)

	payload := []byte(`{"schema_version":1,"items":[]}`)
	require.NoError(t, store.Save(context.Background(), "cartItems:sess-1", payload))

	assert.True(t, mr.Exists("cartItems:sess-1"))

	got, err := store.Load(context.Background(), "cartItems:sess-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStore_Load_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Load(context.Background(), "cartItems:missing")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestStore_Save_Overwrites(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", []byte("first")))
	require.NoError(t, store.Save(ctx, "k", []byte("second")))

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestStore_Save_SetsTTL(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, store.Save(context.Background(), "k", []byte("v")))
	assert.Equal(t, 24*time.Hour, mr.TTL("k"))
}

func TestStore_Remove(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", []byte("v")))
	require.NoError(t, store.Remove(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestStore_Remove_AbsentKeyIsNoop(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.NoError(t, store.Remove(context.Background(), "never-written"))
}
