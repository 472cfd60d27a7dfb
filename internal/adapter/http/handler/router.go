package handler

import (
	"seller-gateway/internal/adapter/http/middleware"
	redisStore "seller-gateway/internal/adapter/storage/redis"
	"seller-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SellerSvc         ports.SellerService
	PaymentSvc        ports.PaymentService
	PayoutSvc         ports.PayoutService
	FeeSvc            ports.FeeService
	WebhookSvc        ports.WebhookService
	AdminAuthSvc      ports.AdminAuthService
	RateLimitStore    *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers    []ports.HealthChecker
	AuditSvc          ports.AuditService // nil = audit logging disabled
	WebhookAllowedIPs []string
	TrustedProxies    []string
	Mode              string
	Logger            zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode == "" {
		deps.Mode = gin.ReleaseMode
	}
	gin.SetMode(deps.Mode)
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		deps.Logger.Warn().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (pings PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	sellerHandler := NewSellerHandler(deps.SellerSvc)
	v1.POST("/sellers/register", rl(middleware.GroupRegister), sellerHandler.Register)

	webhookHandler := NewWebhookHandler(deps.WebhookSvc, deps.Logger)
	v1.POST("/webhooks/sellauth",
		middleware.WebhookIPAllowList(deps.WebhookAllowedIPs, deps.Logger),
		rl(middleware.GroupWebhook),
		webhookHandler.SellAuth,
	)

	// --- Seller API (Bearer API key) ---
	sellerAuth := middleware.SellerAuth(deps.SellerSvc, deps.Logger)
	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	payoutHandler := NewPayoutHandler(deps.PayoutSvc)

	seller := v1.Group("", sellerAuth)
	{
		seller.POST("/payments", rl(middleware.GroupPayments), paymentHandler.CreatePayment)
		seller.GET("/invoices", rl(middleware.GroupSellerReads), paymentHandler.ListInvoices)
		seller.GET("/invoices/:invoiceId", rl(middleware.GroupSellerReads), paymentHandler.GetInvoice)
		seller.POST("/refunds/:invoiceId", rl(middleware.GroupRefunds), paymentHandler.Refund)
		seller.POST("/payouts", rl(middleware.GroupPayouts), payoutHandler.RequestPayout)
		seller.GET("/payouts", rl(middleware.GroupSellerReads), payoutHandler.ListPayouts)
		seller.GET("/profile", rl(middleware.GroupSellerReads), sellerHandler.GetProfile)
		seller.PUT("/profile", rl(middleware.GroupSellerReads), sellerHandler.UpdateProfile)
	}

	// --- Admin API (Bearer session token) ---
	authHandler := NewAuthHandler(deps.AdminAuthSvc)
	adminAuth := middleware.AdminAuth(deps.AdminAuthSvc, deps.Logger)
	adminHandler := NewAdminHandler(deps.SellerSvc, deps.PaymentSvc, deps.PayoutSvc, deps.FeeSvc)

	admin := v1.Group("/admin")
	admin.POST("/sessions", rl(middleware.GroupAdminLogin), authHandler.Login)

	authed := admin.Group("", adminAuth)
	{
		authed.GET("/sessions", authHandler.Verify)
		authed.DELETE("/sessions", authHandler.Logout)

		authed.GET("/sellers", adminHandler.ListSellers)
		authed.POST("/approve-seller", adminHandler.ApproveSeller)
		authed.POST("/sellers/:id/suspend", adminHandler.SuspendSeller)
		authed.POST("/sellers/:id/reinstate", adminHandler.ReinstateSeller)

		authed.GET("/transactions", adminHandler.ListTransactions)

		authed.GET("/payouts", adminHandler.ListPayouts)
		authed.POST("/payouts", adminHandler.DecidePayout)
		authed.GET("/payouts/export", adminHandler.ExportPayouts)

		authed.GET("/config/fees", adminHandler.GetFees)
		authed.POST("/config/fees", adminHandler.UpdateFees)
	}

	return r
}
