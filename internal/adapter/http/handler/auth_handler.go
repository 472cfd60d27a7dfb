package handler

import (
	"net/http"
	"time"

	"seller-gateway/internal/adapter/http/dto"
	"seller-gateway/internal/adapter/http/middleware"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin session endpoints.
type AuthHandler struct {
	adminSvc ports.AdminAuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(adminSvc ports.AdminAuthService) *AuthHandler {
	return &AuthHandler{adminSvc: adminSvc}
}

// Login handles POST /api/v1/admin/sessions.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.adminSvc.Login(c.Request.Context(), req.Secret)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.SessionResponse{
		Token:     token.Token,
		Role:      "admin",
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Verify handles GET /api/v1/admin/sessions.
func (h *AuthHandler) Verify(c *gin.Context) {
	claims, ok := middleware.AdminClaimsFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	response.OKMessage(c, dto.SessionResponse{
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.UTC().Format(time.RFC3339),
	}, "Admin verified")
}

// Logout handles DELETE /api/v1/admin/sessions.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.AdminClaimsFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	if err := h.adminSvc.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.Ack(c, "Session revoked")
}

// HealthCheck handles GET /health by pinging every dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
