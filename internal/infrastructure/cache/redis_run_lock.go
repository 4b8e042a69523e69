package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/redis/go-redis/v9"
)

const defaultRunLockPrefix = "workflow:lock:"

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the TTL only while the key holds the caller's token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisRunLock implements workflow.RunLock with SET NX and a TTL, so the
// guarantee holds across every instance sharing the Redis server.
type RedisRunLock struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRunLock creates a lock on an existing client
func NewRedisRunLock(client *redis.Client, keyPrefix string) *RedisRunLock {
	if keyPrefix == "" {
		keyPrefix = defaultRunLockPrefix
	}
	return &RedisRunLock{client: client, keyPrefix: keyPrefix}
}

func (l *RedisRunLock) key(workflowID uuid.UUID) string {
	return l.keyPrefix + workflowID.String()
}

// Acquire sets the lock key if absent. A false result means another owner holds it.
func (l *RedisRunLock) Acquire(ctx context.Context, workflowID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(workflowID), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return ok, nil
}

// Extend resets the TTL if owner still holds the lock
func (l *RedisRunLock) Extend(ctx context.Context, workflowID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{l.key(workflowID)}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to extend run lock: %w", err)
	}
	return n == 1, nil
}

// Release removes the lock if owner still holds it; an expired or foreign lock is left alone
func (l *RedisRunLock) Release(ctx context.Context, workflowID uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(workflowID)}, owner).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// Holder returns the current owner, or "" when unlocked
func (l *RedisRunLock) Holder(ctx context.Context, workflowID uuid.UUID) (string, error) {
	owner, err := l.client.Get(ctx, l.key(workflowID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read run lock: %w", err)
	}
	return owner, nil
}

var _ workflow.RunLock = (*RedisRunLock)(nil)
