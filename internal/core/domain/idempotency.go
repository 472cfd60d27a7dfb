package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog stores the checkout result returned for a client-supplied
// Idempotency-Key so retries do not open a second invoice.
type IdempotencyLog struct {
	Key           string    `json:"key"` // Format: "seller_id:checkout:client_key"
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuildCheckoutIdempotencyKey scopes a client key to one seller.
func BuildCheckoutIdempotencyKey(sellerID uuid.UUID, clientKey string) string {
	return sellerID.String() + ":checkout:" + clientKey
}

// BuildWebhookEventKey identifies one processor delivery for deduplication.
func BuildWebhookEventKey(event ProcessorEvent, invoiceID string) string {
	return string(event) + ":" + invoiceID
}
