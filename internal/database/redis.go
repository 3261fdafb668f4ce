package database

import (
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/pkg/errors"
)

type redisDb struct {
	client *redis.Client
}

func NewRedis(options *redis.Options) (Database, error) {
	client := redis.NewClient(options)

	if _, err := client.Ping().Result(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis ping '%s'", options.Addr)
	}

	return &redisDb{client: client}, nil
}

func (r *redisDb) Get(key string) (string, error) {
	data, err := r.client.Get(key).Result()

	if err == redis.Nil {
		return "", ErrNotFound
	}

	return data, errors.Wrapf(err, "redis get '%s'", key)
}

func (r *redisDb) Set(key string, data string, expiration time.Duration) error {
	return errors.Wrapf(r.client.Set(key, data, expiration).Err(), "redis set '%s'", key)
}

func (r *redisDb) Delete(key string) error {
	return errors.Wrapf(r.client.Del(key).Err(), "redis del '%s'", key)
}
