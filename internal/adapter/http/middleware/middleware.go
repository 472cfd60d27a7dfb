package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderSignature      = "X-Signature"

	// Context keys
	CtxRequestID   = "request_id"
	CtxSeller      = "seller"
	CtxSellerID    = "seller_id"
	CtxAdminClaims = "admin_claims"

	bearerPrefix = "Bearer "
)

// RequestID assigns every request an id, honouring one supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// SellerAuth authenticates the Bearer API key and stores the seller in the
// context. Unknown keys get 401; sellers that are not approved get 403.
func SellerAuth(sellerSvc ports.SellerService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey, ok := bearerToken(c)
		if !ok {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}

		seller, err := sellerSvc.Authenticate(c.Request.Context(), apiKey)
		if err != nil {
			log.Debug().Err(err).Str("client_ip", c.ClientIP()).Msg("seller authentication rejected")
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxSeller, seller)
		c.Set(CtxSellerID, seller.ID)
		c.Next()
	}
}

// AdminAuth validates the admin session token and stores its claims.
func AdminAuth(adminSvc ports.AdminAuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		claims, err := adminSvc.Authorize(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("admin authorization rejected")
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxAdminClaims, claims)
		c.Next()
	}
}

// SellerFrom returns the authenticated seller, if any.
func SellerFrom(c *gin.Context) (*domain.Seller, bool) {
	v, ok := c.Get(CtxSeller)
	if !ok {
		return nil, false
	}
	seller, ok := v.(*domain.Seller)
	return seller, ok && seller != nil
}

// AdminClaimsFrom returns the admin session claims, if any.
func AdminClaimsFrom(c *gin.Context) (*ports.TokenClaims, bool) {
	v, ok := c.Get(CtxAdminClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*ports.TokenClaims)
	return claims, ok && claims != nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	return token, token != ""
}

// WebhookIPAllowList rejects deliveries whose source address is not listed.
// The address is the first X-Forwarded-For entry, then X-Real-IP. An empty
// list admits everyone.
func WebhookIPAllowList(allowed []string, log zerolog.Logger) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if len(set) == 0 {
			c.Next()
			return
		}

		ip := forwardedIP(c.Request)
		if _, ok := set[ip]; !ok {
			log.Warn().Str("source_ip", ip).Msg("webhook from unlisted address rejected")
			response.Error(c, apperror.ErrWebhookSourceRejected())
			c.Abort()
			return
		}
		c.Next()
	}
}

func forwardedIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.GetString(CtxRequestID)).
					Msg("panic recovered")
				response.Error(c, apperror.InternalError(nil))
				c.Abort()
			}
		}()
		c.Next()
	}
}
