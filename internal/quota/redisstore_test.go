package quota

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Requires a reachable Redis, e.g. REDIS_ADDRESS=localhost:6379.
func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ns := "test_quota_" + uuid.NewString()
	defer rdb.Del(ctx, ns+".month_key", ns+".counter")

	store := NewRedisStore(rdb, ns)
	if got, err := store.Read(ctx); err != nil || got != (State{}) {
		t.Fatalf("expected zero state, got %+v err=%v", got, err)
	}
	if err := store.Write(ctx, State{MonthKey: "2026-10", Counter: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Read(ctx)
	if err != nil || got != (State{MonthKey: "2026-10", Counter: 4}) {
		t.Fatalf("expected state to round trip, got %+v err=%v", got, err)
	}
}
