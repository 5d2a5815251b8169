package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/zyntra-exam-api/pkg/config"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/response"
)

// LoginRateLimit throttles password login endpoints with a fixed window
// counter per client IP kept in Redis. With Redis disabled the middleware is
// a no-op; rate limiting is protection, not correctness.
func LoginRateLimit(rdb *redis.Client, cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:login:%s:%s", c.ClientIP(), c.FullPath())
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Redis being down must not lock everyone out.
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, cfg.Window)
		}

		if count > int64(cfg.MaxAttempts) {
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many login attempts, try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}
