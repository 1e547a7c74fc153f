package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ledgerbank/backend/internal/config"
	"github.com/rs/zerolog"
)

// InitRedis returns a connected client, or nil when Redis is unreachable.
func InitRedis(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr()).Msg("redis connection failed, continuing without redis")
		rdb.Close()
		return nil
	}

	log.Info().Str("addr", cfg.Addr()).Msg("redis connection established")
	return rdb
}
