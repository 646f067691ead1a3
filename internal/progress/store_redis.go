package progress

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/lessonlab/practice-engine/internal/practice"
)

// RedisStore is the alternate progress backend for deployments that
// already run Redis. Same contract as SQLStore: one blob per key,
// whole-record writes.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(lessonID, learnerID string) string {
	return "progress:" + lessonID + ":" + learnerID
}

func (s *RedisStore) Load(ctx context.Context, lessonID, learnerID string) (*practice.ProgressRecord, error) {
	data, err := s.rdb.Get(ctx, redisKey(lessonID, learnerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return DecodeRecord(data)
}

func (s *RedisStore) Save(ctx context.Context, lessonID, learnerID string, rec *practice.ProgressRecord) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKey(lessonID, learnerID), data, 0).Err()
}
