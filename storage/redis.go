package storage

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the weights and the iteration counter under two keys
// sharing a prefix, written in a single transaction
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = &RedisStore{}

func NewRedisStore(addr, prefix string) *RedisStore {
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}), prefix)
}

func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStore) weightsKey() string {
	return r.prefix + ":weights"
}

func (r *RedisStore) iterationsKey() string {
	return r.prefix + ":numIterations"
}

func (r *RedisStore) Save(ctx context.Context, c *Checkpoint) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.weightsKey(), c.Weights, 0)
		pipe.Set(ctx, r.iterationsKey(), c.Iteration, 0)
		return nil
	})
	return errors.Wrap(err, "saving checkpoint to redis")
}

func (r *RedisStore) Load(ctx context.Context) (*Checkpoint, error) {
	values, err := r.client.MGet(ctx, r.weightsKey(), r.iterationsKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading checkpoint from redis")
	}
	if len(values) != 2 || values[0] == nil {
		return nil, ErrNotFound
	}
	weights, ok := values[0].(string)
	if !ok {
		return nil, errors.Errorf("unexpected weights value %T", values[0])
	}
	c := &Checkpoint{Weights: []byte(weights)}
	if s, ok := values[1].(string); ok {
		c.Iteration, err = strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrap(err, "parsing iteration counter")
		}
	}
	return c, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
