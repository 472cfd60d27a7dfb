package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"seller-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// HashService handles secret hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject string, role string) (*IssuedToken, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// IssuedToken is a freshly signed session token.
type IssuedToken struct {
	Token     string    `json:"token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject   string
	Role      string
	ID        string
	ExpiresAt time.Time
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventDedupStore remembers processor deliveries already handled.
type EventDedupStore interface {
	MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, key string) error
}

// SessionStore tracks revoked admin sessions until they expire.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// --- Service Ports (Business Logic) ---

// FeeService resolves and manages fee percentages.
type FeeService interface {
	ResolveRate(ctx context.Context, role domain.FeeRole, seller *domain.Seller) decimal.Decimal
	GetGlobal(ctx context.Context) (*domain.FeeConfig, error)
	UpdateGlobal(ctx context.Context, update FeeUpdate) (*domain.FeeConfig, error)
	UpdateSeller(ctx context.Context, sellerID uuid.UUID, update FeeUpdate) (*domain.Seller, error)
}

// FeeUpdate carries optional percentages. For seller overrides a nil field
// clears the override.
type FeeUpdate struct {
	CustomerFee *decimal.Decimal
	SellerFee   *decimal.Decimal
}

// SellerService manages the seller lifecycle.
type SellerService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Seller, error)
	Approve(ctx context.Context, sellerID uuid.UUID) (*ApprovalResult, error)
	Suspend(ctx context.Context, sellerID uuid.UUID) (*domain.Seller, error)
	Reinstate(ctx context.Context, sellerID uuid.UUID) (*domain.Seller, error)
	UpdateWallets(ctx context.Context, seller *domain.Seller, update WalletUpdate) (*domain.Seller, error)
	Profile(ctx context.Context, seller *domain.Seller) (*SellerProfile, error)
	List(ctx context.Context, status *domain.SellerStatus) ([]domain.Seller, error)
	Authenticate(ctx context.Context, apiKey string) (*domain.Seller, error)
}

// RegisterRequest holds validated input for seller registration.
type RegisterRequest struct {
	Email          string
	BusinessName   string
	URL            *string
	VolumeEstimate *decimal.Decimal
}

// ApprovalResult carries the API key, disclosed only on approval.
type ApprovalResult struct {
	Seller *domain.Seller
	APIKey string
}

// WalletUpdate holds optional payout destinations. Nil leaves a wallet
// unchanged; an empty string clears it.
type WalletUpdate struct {
	Sol *string
	Bsc *string
	Ltc *string
}

// SellerProfile is the seller's own view of their account.
type SellerProfile struct {
	Seller          *domain.Seller
	MaskedAPIKey    string
	CustomerFeeRate decimal.Decimal
	SellerFeeRate   decimal.Decimal
}

// PaymentService covers seller-initiated ledger operations.
type PaymentService interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CheckoutSession, error)
	ListInvoices(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetInvoice(ctx context.Context, sellerID uuid.UUID, invoiceID string) (*InvoiceDetail, error)
	Refund(ctx context.Context, seller *domain.Seller, invoiceID string, reason string) (*domain.Transaction, error)
	ListAll(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// CreatePaymentRequest holds validated input for a checkout.
type CreatePaymentRequest struct {
	Seller         *domain.Seller
	Amount         decimal.Decimal
	Currency       string
	CustomerEmail  string
	Description    *string
	SuccessURL     *string
	CancelURL      *string
	ClientIP       string
	UserAgent      string
	IdempotencyKey string
}

// CheckoutSession is returned to the seller after a checkout is opened.
type CheckoutSession struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	InvoiceID     string          `json:"invoice_id"`
	CheckoutURL   string          `json:"checkout_url"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerFee   decimal.Decimal `json:"customer_fee"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
}

// InvoiceDetail is a ledger row plus best-effort processor data.
type InvoiceDetail struct {
	Transaction *domain.Transaction
	Processor   *domain.ProcessorInvoice
}

// LedgerService applies processor-driven state transitions. Each call
// reports whether it changed anything; repeats are no-ops.
type LedgerService interface {
	MarkCompleted(ctx context.Context, invoiceID string) (bool, error)
	MarkRefunded(ctx context.Context, invoiceID string) (bool, error)
	MarkFailed(ctx context.Context, invoiceID string) (bool, error)
	SyncCompleted(ctx context.Context, sellerID uuid.UUID, invoiceID string, amount decimal.Decimal) (bool, error)
	// ReserveRefund marks a seller's completed invoice refunded and debits
	// its full net amount, failing when the balance cannot cover it.
	ReserveRefund(ctx context.Context, sellerID uuid.UUID, invoiceID string) (*domain.Transaction, error)
	// ReleaseRefund reverses a reservation the processor did not honour.
	ReleaseRefund(ctx context.Context, txn *domain.Transaction) error
}

// PayoutService manages withdrawal requests.
type PayoutService interface {
	Request(ctx context.Context, seller *domain.Seller, req PayoutRequest) (*domain.Payout, error)
	ListForSeller(ctx context.Context, params PayoutListParams) ([]domain.Payout, int64, error)
	ListAll(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutWithSeller, error)
	Decide(ctx context.Context, payoutID uuid.UUID, status domain.PayoutStatus, note *string) (*domain.Payout, error)
	ExportPending(ctx context.Context) ([]byte, error)
}

// PayoutRequest holds validated input for a withdrawal. A nil Amount
// withdraws the full balance.
type PayoutRequest struct {
	Crypto domain.CryptoRail
	Amount *decimal.Decimal
}

// WebhookService ingests processor notifications. It never fails the
// delivery; the returned string is the acknowledgement message.
type WebhookService interface {
	Ingest(ctx context.Context, body []byte, signature string) string
}

// AdminAuthService issues and checks admin sessions.
type AdminAuthService interface {
	Login(ctx context.Context, secret string) (*IssuedToken, error)
	Authorize(ctx context.Context, token string) (*TokenClaims, error)
	Logout(ctx context.Context, claims *TokenClaims) error
}

// AuditService defines audit logging operations.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// ReconcileService settles pending invoices the webhook never resolved.
type ReconcileService interface {
	ReconcilePending(ctx context.Context) (*ReconcileReport, error)
}

// ReconcileReport summarises one reconciliation sweep.
type ReconcileReport struct {
	Checked int `json:"checked"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}
