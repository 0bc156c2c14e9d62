package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "erp:session:"

// RedisStore keeps the session under two fixed keys.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (string, []byte, error) {
	if s.client == nil {
		return "", nil, errors.New("redis_not_configured")
	}
	values, err := s.client.MGet(ctx, redisKey(TokenKey), redisKey(UserKey)).Result()
	if err != nil {
		return "", nil, err
	}
	token, _ := values[0].(string)
	user, _ := values[1].(string)
	if token == "" || user == "" {
		return "", nil, ErrNotFound
	}
	return token, []byte(user), nil
}

func (s *RedisStore) Save(ctx context.Context, token string, user []byte) error {
	if s.client == nil {
		return errors.New("redis_not_configured")
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(TokenKey), token, 0)
		pipe.Set(ctx, redisKey(UserKey), user, 0)
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if s.client == nil {
		return errors.New("redis_not_configured")
	}
	return s.client.Del(ctx, redisKey(TokenKey), redisKey(UserKey)).Err()
}

func redisKey(name string) string {
	return redisKeyPrefix + name
}
