package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewRunLock picks the Redis lock when a client is available, else the
// process-local one. The in-memory lock only guards a single instance.
func NewRunLock(client *redis.Client, logger *zap.Logger) workflow.RunLock {
	if client != nil {
		logger.Info("using Redis workflow run lock")
		return NewRedisRunLock(client, "")
	}
	logger.Warn("Redis disabled, using in-memory workflow run lock; " +
		"concurrent runs are only prevented within this process")
	return NewInMemoryRunLock()
}
