package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles the public registration endpoint per client
// IP. With a redis client the counter is shared across instances;
// without one it falls back to a per-process window.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:     rdb,
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientIP(c)

		allowed, retryAfter := rl.allow(c, key)

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again shortly.",
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context, key string) (bool, int) {
	if rl.rdb != nil {
		ok, retryAfter, err := rl.allowRedis(c, key)

		if err == nil {
			return ok, retryAfter
		}
		// redis down: fall through to the local window rather than
		// blocking registrations
	}

	return rl.allowLocal(key)
}

func (rl *RateLimiter) allowRedis(c *gin.Context, key string) (bool, int, error) {
	ctx := c.Request.Context()
	rkey := "ratelimit:" + key

	n, err := rl.rdb.Incr(ctx, rkey).Result()

	if err != nil {
		return false, 0, err
	}

	if n == 1 {
		if err := rl.rdb.Expire(ctx, rkey, rl.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if n > int64(rl.limit) {
		ttl, err := rl.rdb.TTL(ctx, rkey).Result()

		if err != nil || ttl < 0 {
			ttl = rl.window
		}

		return false, int(ttl.Seconds()), nil
	}

	return true, 0, nil
}

func (rl *RateLimiter) allowLocal(key string) (bool, int) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		return true, 0
	}

	if b.count >= rl.limit {
		retryAfter := int(time.Until(b.windowEnd).Seconds())

		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	b.count++
	return true, 0
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
