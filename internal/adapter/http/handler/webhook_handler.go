package handler

import (
	"io"

	"seller-gateway/internal/adapter/http/middleware"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives processor notifications.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
	log        zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc, log: log}
}

// SellAuth handles POST /api/v1/webhooks/sellauth. Every outcome past the
// allow-list is acknowledged with 200.
func (h *WebhookHandler) SellAuth(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read webhook body")
		response.Ack(c, "")
		return
	}

	msg := h.webhookSvc.Ingest(c.Request.Context(), body, c.GetHeader(middleware.HeaderSignature))
	response.Ack(c, msg)
}
