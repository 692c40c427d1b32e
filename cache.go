package main

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
)

// ResponseCache keeps raw upstream bodies so several instances (or a wiped
// database) don't spend the FMP daily request quota.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisResponseCache struct {
	pool *redis.Pool
}

func newRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(5*time.Second),
				redis.DialWriteTimeout(5*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func newRedisResponseCache(pool *redis.Pool) *redisResponseCache {
	return &redisResponseCache{pool: pool}
}

func (c *redisResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	redisConn, err := c.pool.GetContext(ctx)
	if err != nil {
		return "", false, err
	}
	defer redisConn.Close()

	response, err := redis.String(redisConn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return response, response != "", nil
}

func (c *redisResponseCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	redisConn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer redisConn.Close()

	expire := int(ttl.Seconds())
	if expire < 1 {
		expire = 1
	}
	_, err = redisConn.Do("SET", key, value, "EX", expire)
	return err
}
