package middleware

import (
	"fmt"
	"math"
	"strconv"
	"time"

	redisStore "seller-gateway/internal/adapter/storage/redis"
	"seller-gateway/pkg/apperror"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Rate limit groups.
const (
	GroupRegister    = "sellers_register"
	GroupPayments    = "payments"
	GroupRefunds     = "refunds"
	GroupPayouts     = "payouts"
	GroupSellerReads = "seller_reads"
	GroupAdminLogin  = "admin_login"
	GroupWebhook     = "webhook"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the per-group limits.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		GroupRegister:    {Limit: 5, Window: time.Hour},
		GroupPayments:    {Limit: 100, Window: time.Minute},
		GroupRefunds:     {Limit: 30, Window: time.Minute},
		GroupPayouts:     {Limit: 10, Window: time.Minute},
		GroupSellerReads: {Limit: 60, Window: time.Minute},
		GroupAdminLogin:  {Limit: 10, Window: time.Minute},
		GroupWebhook:     {Limit: 300, Window: time.Minute},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
// Authenticated routes should install it after SellerAuth so the budget is
// per seller rather than per address.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := extractIdentifier(c)
		key := fmt.Sprintf("%s:%s", identifier, group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int64(math.Ceil(result.RetryAfter(time.Now()).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier determines the rate limit key source.
func extractIdentifier(c *gin.Context) string {
	if sid, exists := c.Get(CtxSellerID); exists {
		return fmt.Sprintf("seller:%v", sid)
	}
	if _, exists := c.Get(CtxAdminClaims); exists {
		return "admin"
	}
	return "ip:" + c.ClientIP()
}
