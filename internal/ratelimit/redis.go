package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrAndExpire atomically increments key and, only on the first
// increment of a window, sets its TTL — the two-step INCR/EXPIRE dance
// the reference's Redis-backed algorithm performs, done here in one
// round trip via EVAL so concurrent instances never race between the
// increment and the expiry set.
var incrAndExpire = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisStore is the multi-instance Store, backing C9's distributed
// deployment mode over the same redis/go-redis/v9 client C7's cache
// storage and C8's revocation blacklist use.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Allow(ctx context.Context, key string, rule Rule, now time.Time) (Decision, error) {
	res, err := incrAndExpire.Run(ctx, r.client, []string{key}, rule.Window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, err
	}

	vals := res.([]interface{})
	count := int(vals[0].(int64))
	ttlMs := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = rule.Window.Milliseconds()
	}
	resetAfter := time.Duration(ttlMs) * time.Millisecond

	if count > rule.Limit {
		return Decision{
			Allowed:    false,
			Limit:      rule.Limit,
			Remaining:  0,
			ResetAfter: resetAfter,
			RetryAfter: resetAfter,
		}, nil
	}

	return Decision{
		Allowed:    true,
		Limit:      rule.Limit,
		Remaining:  rule.Limit - count,
		ResetAfter: resetAfter,
	}, nil
}
