package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists State under the same two string keys as FileStore.
// Like every Store it takes no lock.
type RedisStore struct {
	rdb       redis.Cmdable
	namespace string
}

// NewRedisStore creates a RedisStore. An empty namespace uses
// DefaultNamespace.
func NewRedisStore(rdb redis.Cmdable, namespace string) *RedisStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisStore{rdb: rdb, namespace: namespace}
}

func (r *RedisStore) get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (r *RedisStore) Read(ctx context.Context) (State, error) {
	month, err := r.get(ctx, r.namespace+".month_key")
	if err != nil {
		return State{}, fmt.Errorf("failed to read quota month: %w", err)
	}
	raw, err := r.get(ctx, r.namespace+".counter")
	if err != nil {
		return State{}, fmt.Errorf("failed to read quota counter: %w", err)
	}
	counter, err := strconv.Atoi(raw)
	if err != nil {
		counter = 0
	}
	return State{MonthKey: month, Counter: counter}, nil
}

func (r *RedisStore) Write(ctx context.Context, s State) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.namespace+".month_key", s.MonthKey, 0)
		pipe.Set(ctx, r.namespace+".counter", strconv.Itoa(s.Counter), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write quota state: %w", err)
	}
	return nil
}
