package middleware

import (
	"strconv"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/rediskey"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
)

// RateLimit allows perMinute requests per client IP for the named scope.
// A nil limiter or a non-positive limit disables it. Redis failures fail open.
func RateLimit(limiter *redis_rate.Limiter, scope string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || perMinute <= 0 {
			c.Next()
			return
		}

		key := rediskey.BuildRateLimitKey(scope, c.ClientIP())
		res, err := limiter.Allow(c.Request.Context(), key, redis_rate.PerMinute(perMinute))
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed == 0 {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			be := errutil.BaseError{Code: errutil.StatusTooManyRequests, Message: "Too many requests, please slow down"}
			c.AbortWithStatusJSON(be.Code.HTTPStatus(), be)
			return
		}

		c.Next()
	}
}
