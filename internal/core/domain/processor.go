package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProcessorEvent is the event name carried by processor webhooks.
type ProcessorEvent string

const (
	EventPaymentCompleted ProcessorEvent = "payment.completed"
	EventInvoiceCompleted ProcessorEvent = "invoice.completed"
	EventPaymentRefunded  ProcessorEvent = "payment.refunded"
	EventInvoiceRefunded  ProcessorEvent = "invoice.refunded"
	EventPaymentFailed    ProcessorEvent = "payment.failed"
	EventInvoiceFailed    ProcessorEvent = "invoice.failed"
)

func (e ProcessorEvent) IsCompletion() bool {
	return e == EventPaymentCompleted || e == EventInvoiceCompleted
}

func (e ProcessorEvent) IsRefund() bool {
	return e == EventPaymentRefunded || e == EventInvoiceRefunded
}

func (e ProcessorEvent) IsFailure() bool {
	return e == EventPaymentFailed || e == EventInvoiceFailed
}

// TargetStatus maps the event to the transaction state it drives, or "".
func (e ProcessorEvent) TargetStatus() TransactionStatus {
	switch {
	case e.IsCompletion():
		return TransactionStatusCompleted
	case e.IsRefund():
		return TransactionStatusRefunded
	case e.IsFailure():
		return TransactionStatusFailed
	}
	return ""
}

// ProcessorInvoice is the processor's view of a checkout.
type ProcessorInvoice struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	CouponCode string           `json:"coupon_code,omitempty"`
	PaidUSD    *decimal.Decimal `json:"paid_usd,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	Email      string           `json:"email,omitempty"`
	Gateway    string           `json:"gateway,omitempty"`
}

// SettledAmount is paid_usd when non-zero, else total, else zero.
func (i *ProcessorInvoice) SettledAmount() decimal.Decimal {
	if i.PaidUSD != nil && !i.PaidUSD.IsZero() {
		return *i.PaidUSD
	}
	if i.Total != nil {
		return *i.Total
	}
	return decimal.Zero
}

// LedgerStatus maps a processor invoice status onto the ledger, or "" when
// the invoice is still open.
func (i *ProcessorInvoice) LedgerStatus() TransactionStatus {
	switch strings.ToLower(i.Status) {
	case "completed", "paid":
		return TransactionStatusCompleted
	case "refunded":
		return TransactionStatusRefunded
	case "failed", "expired", "cancelled", "canceled", "voided":
		return TransactionStatusFailed
	}
	return ""
}

// WebhookNotification is a decoded processor callback.
type WebhookNotification struct {
	Event   ProcessorEvent
	Invoice ProcessorInvoice
}
