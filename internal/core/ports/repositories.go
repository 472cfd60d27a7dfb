package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"seller-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrDuplicateKey is returned when an insert hits a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// SellerRepository defines persistence operations for sellers.
// Methods accepting pgx.Tx are used inside transaction blocks; balance
// changes go through the stored procedures so the row never goes negative.
type SellerRepository interface {
	Create(ctx context.Context, seller *domain.Seller) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error)
	GetByEmail(ctx context.Context, email string) (*domain.Seller, error)
	GetByAPIKeyDigest(ctx context.Context, digest string) (*domain.Seller, error)
	GetByCouponCode(ctx context.Context, code string) (*domain.Seller, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Seller, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, status *domain.SellerStatus) ([]domain.Seller, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.SellerStatus) (bool, error)
	UpdateWallets(ctx context.Context, id uuid.UUID, update WalletUpdate) (*domain.Seller, error)
	UpdateFees(ctx context.Context, id uuid.UUID, customerFee, sellerFee *decimal.Decimal) error
	IncrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error
	DecrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (bool, error)
}

// TransactionRepository defines persistence operations for customer payments.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Transaction, error)
	GetByInvoiceIDForUpdate(ctx context.Context, tx pgx.Tx, invoiceID string) (*domain.Transaction, error)
	TransitionStatus(ctx context.Context, tx pgx.Tx, invoiceID string, from []domain.TransactionStatus, to domain.TransactionStatus) (bool, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Transaction, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	SellerID *uuid.UUID
	Status   *domain.TransactionStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

// PayoutRepository defines persistence operations for payouts.
type PayoutRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payout *domain.Payout) error
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error)
	Decide(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, note *string) (bool, error)
	List(ctx context.Context, params PayoutListParams) ([]domain.Payout, int64, error)
	ListWithSellers(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutWithSeller, error)
}

// PayoutListParams holds filter + pagination for a seller's payouts.
type PayoutListParams struct {
	SellerID uuid.UUID
	Status   *domain.PayoutStatus
	Page     int
	PerPage  int
}

// FeeConfigRepository persists the singleton fee row.
type FeeConfigRepository interface {
	Get(ctx context.Context) (*domain.FeeConfig, error)
	Upsert(ctx context.Context, cfg *domain.FeeConfig) error
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// IdempotencyRepository defines persistence for checkout idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
