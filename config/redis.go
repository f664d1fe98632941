package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis abre el cliente Redis si REDIS_ADDR está configurado.
// Retorna nil, nil cuando no hay Redis: los servicios usan sus variantes en memoria.
func (c *Config) ConnectRedis(ctx context.Context) (*redis.Client, error) {
	if c.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("no se pudo conectar a redis en %s: %w", c.RedisAddr, err)
	}
	return rdb, nil
}
