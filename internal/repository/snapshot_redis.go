package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	errs "goscore/internal/errors"
)

const snapshotKeyPrefix = "scoring:"

type RedisSnapshotStorage struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewRedisSnapshotStorage(client *redis.Client, log *zap.SugaredLogger) *RedisSnapshotStorage {
	return &RedisSnapshotStorage{
		client: client,
		log:    log,
	}
}

func snapshotKey(key string) string {
	return snapshotKeyPrefix + key
}

func (r *RedisSnapshotStorage) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, snapshotKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisSnapshotStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.ErrSnapshotNotFound
		}
		r.log.Errorw("failed to read snapshot from redis", "key", key, "error", err)
		return nil, err
	}
	return data, nil
}

func (r *RedisSnapshotStorage) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, snapshotKey(key), data, ttl).Err()
}

func (r *RedisSnapshotStorage) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, snapshotKey(key), ttl).Err()
}

func (r *RedisSnapshotStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, snapshotKey(key)).Err()
}

// CompareAndSwap writes data only while the stored value still equals old. The key
// is watched, so a write landing between the read and the transaction aborts it.
func (r *RedisSnapshotStorage) CompareAndSwap(ctx context.Context, key string, old, data []byte, ttl time.Duration) error {
	k := snapshotKey(key)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if !bytes.Equal(current, old) {
			return errs.ErrSnapshotConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, data, ttl)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, k)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s", errs.ErrSnapshotConflict, key)
	}
	return err
}
