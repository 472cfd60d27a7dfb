package ports

//go:generate mockgen -source=processor.go -destination=mocks/mock_processor.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"seller-gateway/internal/core/domain"
)

// PaymentProcessor is the upstream checkout provider.
type PaymentProcessor interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	GetInvoice(ctx context.Context, invoiceID string) (*domain.ProcessorInvoice, error)
	RefundInvoice(ctx context.Context, invoiceID string, reason string) error
	CreateCoupon(ctx context.Context, code string) error
}

// WebhookDecoder parses a raw processor callback body.
type WebhookDecoder interface {
	DecodeWebhook(body []byte) (*domain.WebhookNotification, error)
}

// CheckoutRequest opens an invoice for Quantity units of the one-cent product,
// attributed to the seller through CouponCode.
type CheckoutRequest struct {
	Quantity   int64
	Email      string
	CouponCode string
	IP         string
	UserAgent  string
	SuccessURL *string
	CancelURL  *string
}

// CheckoutResult identifies the invoice the customer must pay.
type CheckoutResult struct {
	InvoiceID string
	URL       string
}

// GatewayError is a non-2xx or transport failure from the processor.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("processor error (%d): %s", e.Status, e.Message)
}

// IsConflict reports whether err means the resource already exists upstream.
func IsConflict(err error) bool {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return false
	}
	return gwErr.Status == http.StatusConflict ||
		strings.Contains(strings.ToLower(gwErr.Message), "already exists")
}
