package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// Routes are matched on their registered pattern, so path parameters land in
// ResourceID.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		action, resourceType := mapPathToAction(route, c.Request.Method)
		if action == "" {
			return
		}

		actor := domain.ActorSystem
		var sellerID *uuid.UUID
		if sid, exists := c.Get(CtxSellerID); exists {
			if id, ok := sid.(uuid.UUID); ok {
				sellerID = &id
				actor = domain.ActorSeller
			}
		}
		if _, exists := c.Get(CtxAdminClaims); exists || strings.HasPrefix(route, "/api/v1/admin/") {
			actor = domain.ActorAdmin
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			SellerID:     sellerID,
			Actor:        actor,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID(c),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func resourceID(c *gin.Context) string {
	if id := c.Param("invoiceId"); id != "" {
		return id
	}
	return c.Param("id")
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch method {
	case http.MethodPost:
		switch path {
		case "/api/v1/sellers/register":
			return domain.AuditActionRegister, "seller"
		case "/api/v1/payments":
			return domain.AuditActionPayment, "transaction"
		case "/api/v1/refunds/:invoiceId":
			return domain.AuditActionRefund, "transaction"
		case "/api/v1/payouts":
			return domain.AuditActionPayoutRequest, "payout"
		case "/api/v1/admin/sessions":
			return domain.AuditActionAdminLogin, "session"
		case "/api/v1/admin/approve-seller":
			return domain.AuditActionApproveSeller, "seller"
		case "/api/v1/admin/sellers/:id/suspend":
			return domain.AuditActionSuspendSeller, "seller"
		case "/api/v1/admin/sellers/:id/reinstate":
			return domain.AuditActionReinstate, "seller"
		case "/api/v1/admin/payouts":
			return domain.AuditActionPayoutDecision, "payout"
		case "/api/v1/admin/config/fees":
			return domain.AuditActionUpdateFees, "config"
		}
	case http.MethodPut:
		if path == "/api/v1/profile" {
			return domain.AuditActionUpdateProfile, "seller"
		}
	case http.MethodDelete:
		if path == "/api/v1/admin/sessions" {
			return domain.AuditActionAdminLogout, "session"
		}
	}
	return "", ""
}
