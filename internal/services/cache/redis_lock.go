package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lockRetryInterval = 25 * time.Millisecond
	lockCallTimeout   = 3 * time.Second
)

// Deletes the key only while it still holds our token, so an expired lock
// taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Resets the TTL only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisRefundLocker serialises refunds of one purchase across every instance
// sharing the Redis server. A held lock is extended every third of its TTL
// until released, so a slow bank call cannot outlive it; the TTL only bounds
// how long a crashed holder can block other refunds.
type RedisRefundLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedisRefundLocker(client *RedisClient, ttl time.Duration, log zerolog.Logger) *RedisRefundLocker {
	return &RedisRefundLocker{client: client.Client(), ttl: ttl, log: log}
}

func lockKey(originalID int64) string {
	return fmt.Sprintf("ledger:lock:refund:%d", originalID)
}

func (l *RedisRefundLocker) Lock(ctx context.Context, originalID int64) (func(), error) {
	key := lockKey(originalID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()
	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("[cache] failed to acquire refund lock for %d: %w", originalID, err)
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("[cache] gave up waiting for refund lock on %d: %w", originalID, ctx.Err())
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, originalID, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			releaseCtx, cancel := context.WithTimeout(context.Background(), lockCallTimeout)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.log.Error().Err(err).Int64("originalTransactionId", originalID).Msg("Failed to release refund lock")
			}
		})
	}, nil
}

func (l *RedisRefundLocker) keepAlive(key, token string, originalID int64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), lockCallTimeout)
			extended, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err != nil {
				l.log.Error().Err(err).Int64("originalTransactionId", originalID).Msg("Failed to extend refund lock")
				continue
			}
			if extended == 0 {
				l.log.Error().Int64("originalTransactionId", originalID).Msg("Refund lock lost before release")
				return
			}
		}
	}
}
