package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when the counter store
// cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// fixedWindow increments the counter and starts its window on first use.
// Returns {count, milliseconds left in the window}.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// Usage is the state of one fixed window after a hit.
type Usage struct {
	Count   int64
	Limit   int
	ResetIn time.Duration
}

// Allowed reports whether the hit that produced u is within the limit.
func (u Usage) Allowed() bool { return u.Count <= int64(u.Limit) }

// Remaining is how many more hits the window accepts.
func (u Usage) Remaining() int {
	return max(u.Limit-int(u.Count), 0)
}

func rateLimitingDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CountHit records one hit on resource for id and returns the window state.
func CountHit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (Usage, error) {
	if rdb == nil {
		return Usage{Limit: limit}, errNoRedis
	}
	key := fmt.Sprintf("rl:%s:%s", resource, id)
	res, err := fixedWindow.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Usage{Limit: limit}, err
	}
	u := Usage{Count: res[0], Limit: limit}
	if len(res) > 1 && res[1] > 0 {
		u.ResetIn = time.Duration(res[1]) * time.Millisecond
	}
	return u, nil
}

// CheckRateLimit reports whether another hit on resource by id fits in the
// window. Limits are not enforced when APP_ENV is empty, "test" or
// "development".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitingDisabled() {
		return true, nil
	}
	u, err := CountHit(ctx, rdb, resource, id, limit, window)
	if err != nil {
		return false, err
	}
	return u.Allowed(), nil
}

// RateLimit limits requests per caller, keyed by user id when
// authenticated and by client IP otherwise. The store failing lets requests
// through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit store failure policy.
// The optional name groups routes under one counter; the path is used
// otherwise.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rateLimitingDisabled() {
			return c.Next()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}
		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			caller = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		u, err := CountHit(c.UserContext(), rdb, resource, caller, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(u.Remaining()))
		if !u.Allowed() {
			secs := int(u.ResetIn.Round(time.Second) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(max(secs, 1)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
