package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/jobhunter/internal/config"
)

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	r := NewRedis(config.RedisConfig{Addr: srv.Addr(), PoolSize: 2})
	t.Cleanup(func() { r.Close() })
	return r, srv
}

func TestRedisGetSet(t *testing.T) {
	r, srv := newRedis(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	srv.FastForward(2 * time.Minute)
	_, err = r.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestRedisSetMembersExpire(t *testing.T) {
	r, srv := newRedis(t)
	ctx := context.Background()

	require.NoError(t, r.AddToSet(ctx, "sent_jobs:a@b.c", 30*24*time.Hour, "1", "2"))
	require.NoError(t, r.AddToSet(ctx, "sent_jobs:a@b.c", 30*24*time.Hour, "2", "3"))

	members, err := r.Members(ctx, "sent_jobs:a@b.c")
	require.NoError(t, err)
	sort.Strings(members)
	require.Equal(t, []string{"1", "2", "3"}, members)
	require.Equal(t, 30*24*time.Hour, srv.TTL("sent_jobs:a@b.c"))

	srv.FastForward(31 * 24 * time.Hour)
	members, err = r.Members(ctx, "sent_jobs:a@b.c")
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestRedisPingAndDelete(t *testing.T) {
	r, _ := newRedis(t)
	ctx := context.Background()
	require.NoError(t, r.Ping(ctx))
	require.NoError(t, r.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, r.Delete(ctx, "a"))
	_, err := r.Get(ctx, "a")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.AddToSet(ctx, "s", time.Hour, "x", "y"))

	now = now.Add(2 * time.Minute)
	_, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
	members, _ := m.Members(ctx, "s")
	require.Equal(t, []string{"x", "y"}, members)

	now = now.Add(time.Hour)
	members, _ = m.Members(ctx, "s")
	require.Empty(t, members)
}

func TestRemember(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (map[string]int, error) {
		calls++
		return map[string]int{"jobs": 3}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Remember(ctx, m, "stats", time.Minute, load)
		require.NoError(t, err)
		require.Equal(t, 3, v["jobs"])
	}
	require.Equal(t, 1, calls)

	_, err := Remember(ctx, m, "broken", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	require.EqualError(t, err, "db down")
	_, err = m.Get(ctx, "broken")
	require.ErrorIs(t, err, ErrMiss)
}
