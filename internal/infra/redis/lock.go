package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix     = "powerread:lock:"
	defaultRetryDelay = 50 * time.Millisecond
)

// ErrLockNotAcquired is returned when the lock stays held past the wait budget.
var ErrLockNotAcquired = errors.New("redis: lock not acquired")

// releaseScript deletes the key only while it still carries our token, so an
// expired holder cannot release a lock someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements a single-instance Redis lock (SET NX PX plus a token
// checked release).
type Locker struct {
	rdb        redis.Cmdable
	retryDelay time.Duration
}

// NewLocker returns a Locker backed by rdb.
func NewLocker(rdb redis.Cmdable) *Locker {
	return &Locker{rdb: rdb, retryDelay: defaultRetryDelay}
}

// Acquire blocks until key is free, ctx is done, or ttl elapses. The lock
// expires on its own after ttl if the release func is never called.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	fullKey := lockKeyPrefix + key
	deadline := time.Now().Add(ttl)

	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: acquire lock %q: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.rdb, []string{fullKey}, token).Err(); err != nil {
					return fmt.Errorf("redis: release lock %q: %w", key, err)
				}
				return nil
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %q", ErrLockNotAcquired, key)
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
