package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a customer payment.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// TransitionSources lists the states a transaction may move to target from.
// Completed and failed are only reached from pending; refunded is reached
// from pending (no balance effect) or completed (seller debited).
func TransitionSources(target TransactionStatus) []TransactionStatus {
	switch target {
	case TransactionStatusCompleted, TransactionStatusFailed:
		return []TransactionStatus{TransactionStatusPending}
	case TransactionStatusRefunded:
		return []TransactionStatus{TransactionStatusPending, TransactionStatusCompleted}
	}
	return nil
}

var (
	MinPaymentAmount = decimal.RequireFromString("0.50")
	MaxPaymentAmount = decimal.NewFromInt(100000)
)

// MinCheckoutQuantity is the smallest cart quantity of the one-cent product
// the processor accepts.
const MinCheckoutQuantity = 50

// SupportedCurrency is the only settlement currency.
const SupportedCurrency = "usd"

// Transaction is one customer payment routed through the processor.
// NetToSeller is fixed at creation and is the amount credited on completion
// and debited on refund.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	SellerID    uuid.UUID         `json:"seller_id"`
	InvoiceID   string            `json:"invoice_id"`
	Amount      decimal.Decimal   `json:"amount"`
	CustomerFee decimal.Decimal   `json:"customer_fee"`
	NetToSeller decimal.Decimal   `json:"net_to_seller"`
	Status      TransactionStatus `json:"status"`
	Description *string           `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsRefundable returns true if the seller may refund this transaction.
func (t *Transaction) IsRefundable() bool {
	return t.Status == TransactionStatusCompleted
}

// IsTerminal returns true if no further transition is possible.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusFailed || t.Status == TransactionStatusRefunded
}

// CheckoutQuantity converts a USD total into units of the $0.01 product.
func CheckoutQuantity(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Floor().IntPart()
}
