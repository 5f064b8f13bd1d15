package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) *CacheHelper {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheHelper(client, "test:")
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper := newTestHelper(t)
	ctx := context.Background()

	type payload struct {
		ID    uint    `json:"id"`
		Score float64 `json:"score"`
	}

	if err := helper.Set(ctx, "score:1", payload{ID: 1, Score: 7.5}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "score:1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != 1 || got.Score != 7.5 {
		t.Errorf("Get returned %+v, want {1 7.5}", got)
	}
}

func TestCacheHelper_GetMissing(t *testing.T) {
	helper := newTestHelper(t)

	var dest map[string]any
	err := helper.Get(context.Background(), "absent", &dest)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "k", &dest); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"total": 42}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "rollup:1", &first, time.Minute, fetch); err != nil {
		t.Fatalf("first CacheOrExecute failed: %v", err)
	}
	if first["total"] != 42 {
		t.Errorf("first result = %v, want total=42", first)
	}

	var second map[string]int
	if err := helper.CacheOrExecute(ctx, "rollup:1", &second, time.Minute, fetch); err != nil {
		t.Fatalf("second CacheOrExecute failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1 (second call should hit cache)", calls)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"assessment:1:a", "assessment:1:b", "assessment:2:a"} {
		if err := helper.Set(ctx, key, "x", time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "assessment:1:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "assessment:1:a", &dest); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("assessment:1:a should be gone, got %v", err)
	}
	if err := helper.Get(ctx, "assessment:2:a", &dest); err != nil {
		t.Errorf("assessment:2:a should survive, got %v", err)
	}
}
