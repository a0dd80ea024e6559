package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return c
}

func TestGetWithCachedFetchesOnce(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	fetches := 0
	fetch := func(ctx context.Context) (int64, error) {
		fetches++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetWithCached[int64](
			context.Background(), c, "k", time.Minute, time.Minute,
			func(v int64) bool { return v == 0 },
			func(v int64) string { return strconv.FormatInt(v, 10) },
			func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) },
			fetch,
		)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != 42 {
			t.Fatalf("expected 42, got %d", got)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected 1 fetch, got %d", fetches)
	}
}

func TestGetWithCachedCachesEmpty(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	fetches := 0
	fetch := func(ctx context.Context) (int64, error) {
		fetches++
		return 0, nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetWithCached[int64](
			context.Background(), c, "missing", time.Minute, time.Minute,
			func(v int64) bool { return v == 0 },
			func(v int64) string { return strconv.FormatInt(v, 10) },
			func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) },
			fetch,
		)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != 0 {
			t.Fatalf("expected zero value, got %d", got)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected empty result to be cached, got %d fetches", fetches)
	}
}

func TestGetWithCachedPropagatesFetchError(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	wantErr := errors.New("db down")

	_, err := GetWithCached[int64](
		context.Background(), c, "k", time.Minute, time.Minute,
		func(v int64) bool { return v == 0 },
		func(v int64) string { return strconv.FormatInt(v, 10) },
		func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) },
		func(ctx context.Context) (int64, error) { return 0, wantErr },
	)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestUpdateCachedInvalidates(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	if err := c.Set(context.Background(), "k", "stale", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := UpdateCached(context.Background(), c, "k", func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("update: %v", err)
	}

	value, err := c.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "" {
		t.Fatalf("expected key invalidated, got %q", value)
	}
}

func TestJitterTTL(t *testing.T) {
	t.Parallel()

	ttl := time.Minute
	for i := 0; i < 100; i++ {
		got := JitterTTL(ttl)
		if got > ttl || got < ttl-ttl/10 {
			t.Fatalf("jitter out of range: %s", got)
		}
	}
	if got := JitterTTL(0); got != 0 {
		t.Fatalf("expected zero ttl passthrough, got %s", got)
	}
}
