package sellauth

import (
	"encoding/json"
	"fmt"

	"seller-gateway/internal/core/domain"
)

// WebhookDecoder implements ports.WebhookDecoder for SellAuth callbacks of
// the form {"event": "...", "invoice": {...}} or {"event": "...", "payment": {...}}.
type WebhookDecoder struct{}

// NewWebhookDecoder creates a WebhookDecoder.
func NewWebhookDecoder() *WebhookDecoder {
	return &WebhookDecoder{}
}

type webhookBody struct {
	Event   string           `json:"event"`
	Invoice *invoiceResponse `json:"invoice"`
	Payment *invoiceResponse `json:"payment"`
}

// DecodeWebhook parses body. A missing invoice object yields an empty
// invoice, not an error.
func (WebhookDecoder) DecodeWebhook(body []byte) (*domain.WebhookNotification, error) {
	var raw webhookBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}

	n := &domain.WebhookNotification{Event: domain.ProcessorEvent(raw.Event)}
	switch {
	case raw.Invoice != nil:
		n.Invoice = *raw.Invoice.toDomain()
	case raw.Payment != nil:
		n.Invoice = *raw.Payment.toDomain()
	}
	return n, nil
}

func (r *invoiceResponse) toDomain() *domain.ProcessorInvoice {
	return &domain.ProcessorInvoice{
		ID:         string(r.ID),
		Status:     r.Status,
		CouponCode: r.CouponCode,
		PaidUSD:    r.PaidUSD.ptr(),
		Total:      r.Total.ptr(),
		Email:      r.Email,
		Gateway:    r.Gateway,
	}
}
