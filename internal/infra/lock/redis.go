package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"albergo/internal/app/policies"
)

var ErrLockHeld = errors.New("lock: reservation lock held by another request")

// releaseScript deletes the key only if it still carries our token, so an
// expired lock taken over by another request is never released from here.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// RedisLocks serializes check-then-insert per listing with a SET NX + TTL
// advisory lock. The TTL bounds how long a crashed holder can block a
// listing's calendar.
type RedisLocks struct {
	Client *redis.Client
	TTL    time.Duration

	Retries    int
	RetryDelay time.Duration
}

func NewRedisLocks(client *redis.Client, ttl time.Duration) *RedisLocks {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocks{Client: client, TTL: ttl, Retries: 3, RetryDelay: 100 * time.Millisecond}
}

func (l *RedisLocks) Acquire(ctx context.Context, listingID string) (policies.ReleaseFunc, error) {
	key := "albergo:resv-lock:" + listingID
	token := uuid.NewString()
	attempts := l.Retries + 1
	for i := 0; i < attempts; i++ {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func(ctx context.Context) {
				_ = l.Client.Eval(ctx, releaseScript, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay()):
		}
	}
	return nil, ErrLockHeld
}

func (l *RedisLocks) retryDelay() time.Duration {
	if l.RetryDelay <= 0 {
		return 100 * time.Millisecond
	}
	return l.RetryDelay
}
