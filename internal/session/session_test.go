package session

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchkeys/ingestion/internal/models"
)

func sample(name string) *Session {
	s := New(name, SourceAPI)
	s.Scope = models.ScopeEnded
	s.SportID = 13
	s.Start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.End = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	s.Timezone = "UTC"
	s.Rows = []models.EventRow{{EventKey: "1", FetchDay: "2024-03-01"}}
	s.Errors = []models.ErrorRecord{{Day: "2024-03-02", Page: 1, Kind: models.ErrorKindUpstream, Message: "x"}}
	return s
}

func TestNew_AssignsRunID(t *testing.T) {
	a, b := New("default", SourceAPI), New("default", SourceAPI)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSession_Partition(t *testing.T) {
	s := sample("default")
	s.Timezone = " UTC "
	p := s.Partition()
	assert.Equal(t, "UTC", p.Timezone)
	assert.Equal(t, s.Start, p.Start)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	_, err := store.Load(ctx, "default")
	assert.True(t, errors.Is(err, ErrNotFound))

	s := sample("default")
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Rows, got.Rows)

	require.NoError(t, store.Delete(ctx, "default"))
	_, err = store.Load(ctx, "default")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, sample("default")))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, "default")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	store := Open(context.Background(), RedisConfig{Host: "127.0.0.1", Port: 1, TTL: time.Hour})
	defer store.Close()

	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("REDIS_TEST_PORT"))
	if port == 0 {
		port = 6379
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{Host: host, Port: port, TTL: time.Minute})
	require.NoError(t, err)
	defer store.Close()

	s := sample("redis-test")
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx, "redis-test")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Rows, got.Rows)
	assert.Equal(t, s.Errors, got.Errors)
	assert.True(t, s.Start.Equal(got.Start))

	require.NoError(t, store.Delete(ctx, "redis-test"))
	_, err = store.Load(ctx, "redis-test")
	assert.True(t, errors.Is(err, ErrNotFound))
}
