package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/reminder"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestStoreSaveAndLoad(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := New(client, "")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]model.ReminderEntry{
		"p1": {Message: "Water me", GeneratedOn: "2024-03-15"},
		"p2": {Message: "Me too", GeneratedOn: "2024-03-15"},
	}))
	assert.True(t, mr.Exists(DefaultKey))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Water me", loaded["p1"].Message)
	assert.Equal(t, "p1", loaded["p1"].PlantID)

	require.NoError(t, store.Save(ctx, map[string]model.ReminderEntry{
		"p2": {Message: "Still me", GeneratedOn: "2024-03-16"},
	}))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "2024-03-16", loaded["p2"].GeneratedOn)

	require.NoError(t, store.Save(ctx, nil))
	assert.False(t, mr.Exists(DefaultKey))
}

func TestStoreSkipsCorruptEntries(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.HSet("custom", "bad", "{not json")
	mr.HSet("custom", "good", `{"message":"hi","generated_on":"2024-03-15"}`)

	loaded, err := New(client, "custom").Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, "hi", loaded["good"].Message)
}

func TestStoreBacksReminderCache(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := New(client, "")
	ctx := context.Background()

	cache, err := reminder.New(ctx, reminder.Options{Store: store})
	require.NoError(t, err)
	require.NoError(t, cache.Clear(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	_, mr := setupTestRedis(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
