package integration

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// The repos below hand out copies so services cannot mutate stored rows
// behind the store's back, the same as rows scanned from PostgreSQL.

// --- In-Memory Seller Repo ---

type inMemorySellerRepo struct {
	mu      sync.RWMutex
	sellers map[uuid.UUID]domain.Seller
}

func newInMemorySellerRepo() *inMemorySellerRepo {
	return &inMemorySellerRepo{sellers: make(map[uuid.UUID]domain.Seller)}
}

func (r *inMemorySellerRepo) find(match func(domain.Seller) bool) *domain.Seller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sellers {
		if match(s) {
			cp := s
			return &cp
		}
	}
	return nil
}

func (r *inMemorySellerRepo) Create(ctx context.Context, seller *domain.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sellers {
		if existing.Email == seller.Email || existing.CouponCode == seller.CouponCode {
			return ports.ErrDuplicateKey
		}
	}
	r.sellers[seller.ID] = *seller
	return nil
}

func (r *inMemorySellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	return r.find(func(s domain.Seller) bool { return s.ID == id }), nil
}

func (r *inMemorySellerRepo) GetByEmail(ctx context.Context, email string) (*domain.Seller, error) {
	return r.find(func(s domain.Seller) bool { return s.Email == email }), nil
}

func (r *inMemorySellerRepo) GetByAPIKeyDigest(ctx context.Context, digest string) (*domain.Seller, error) {
	return r.find(func(s domain.Seller) bool { return s.APIKeyDigest == digest }), nil
}

func (r *inMemorySellerRepo) GetByCouponCode(ctx context.Context, code string) (*domain.Seller, error) {
	return r.find(func(s domain.Seller) bool { return s.CouponCode == code }), nil
}

func (r *inMemorySellerRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Seller, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemorySellerRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.sellers)), nil
}

func (r *inMemorySellerRepo) List(ctx context.Context, status *domain.SellerStatus) ([]domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Seller, 0, len(r.sellers))
	for _, s := range r.sellers {
		if status != nil && s.Status != *status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemorySellerRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.SellerStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sellers[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = time.Now().UTC()
	r.sellers[id] = s
	return true, nil
}

func (r *inMemorySellerRepo) UpdateWallets(ctx context.Context, id uuid.UUID, update ports.WalletUpdate) (*domain.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sellers[id]
	if !ok {
		return nil, nil
	}
	apply := func(dst **string, v *string) {
		switch {
		case v == nil:
		case *v == "":
			*dst = nil
		default:
			addr := *v
			*dst = &addr
		}
	}
	apply(&s.SolWallet, update.Sol)
	apply(&s.BscWallet, update.Bsc)
	apply(&s.LtcWallet, update.Ltc)
	s.UpdatedAt = time.Now().UTC()
	r.sellers[id] = s
	cp := s
	return &cp, nil
}

func (r *inMemorySellerRepo) UpdateFees(ctx context.Context, id uuid.UUID, customerFee, sellerFee *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sellers[id]
	if !ok {
		return fmt.Errorf("seller %s not found", id)
	}
	s.CustomCustomerFee, s.CustomSellerFee = customerFee, sellerFee
	r.sellers[id] = s
	return nil
}

func (r *inMemorySellerRepo) IncrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sellers[id]
	if !ok {
		return fmt.Errorf("seller %s not found", id)
	}
	s.Balance = s.Balance.Add(amount)
	r.sellers[id] = s
	return nil
}

// DecrementBalance mirrors the stored procedure: it refuses to go negative.
func (r *inMemorySellerRepo) DecrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sellers[id]
	if !ok || s.Balance.LessThan(amount) {
		return false, nil
	}
	s.Balance = s.Balance.Sub(amount)
	r.sellers[id] = s
	return true, nil
}

func (r *inMemorySellerRepo) balance(id uuid.UUID) decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sellers[id].Balance
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu  sync.RWMutex
	txs map[string]domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{txs: make(map[string]domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.txs[t.InvoiceID]; exists {
		return ports.ErrDuplicateKey
	}
	r.txs[t.InvoiceID] = *t
	return nil
}

func (r *inMemoryTransactionRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.txs[invoiceID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *inMemoryTransactionRepo) GetByInvoiceIDForUpdate(ctx context.Context, tx pgx.Tx, invoiceID string) (*domain.Transaction, error) {
	return r.GetByInvoiceID(ctx, invoiceID)
}

func (r *inMemoryTransactionRepo) TransitionStatus(ctx context.Context, tx pgx.Tx, invoiceID string, from []domain.TransactionStatus, to domain.TransactionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[invoiceID]
	if !ok || !slices.Contains(from, t.Status) {
		return false, nil
	}
	now := time.Now().UTC()
	t.Status = to
	t.UpdatedAt = now
	if to == domain.TransactionStatusCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	r.txs[invoiceID] = t
	return true, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Transaction
	for _, t := range r.txs {
		if params.SellerID != nil && t.SellerID != *params.SellerID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, params.Page, params.PerPage), int64(len(matched)), nil
}

func (r *inMemoryTransactionRepo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range r.txs {
		if t.Status == domain.TransactionStatusPending && t.CreatedAt.Before(createdBefore) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// backdate moves a transaction's creation time so the reconciler sees it as stale.
func (r *inMemoryTransactionRepo) backdate(invoiceID string, age time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.txs[invoiceID]
	t.CreatedAt = t.CreatedAt.Add(-age)
	r.txs[invoiceID] = t
}

// --- In-Memory Payout Repo ---

type inMemoryPayoutRepo struct {
	mu      sync.RWMutex
	payouts map[uuid.UUID]domain.Payout
	sellers *inMemorySellerRepo
}

func newInMemoryPayoutRepo(sellers *inMemorySellerRepo) *inMemoryPayoutRepo {
	return &inMemoryPayoutRepo{payouts: make(map[uuid.UUID]domain.Payout), sellers: sellers}
}

func (r *inMemoryPayoutRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts[p.ID] = *p
	return nil
}

func (r *inMemoryPayoutRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payouts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *inMemoryPayoutRepo) Decide(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, note *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok || p.Status != domain.PayoutStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = status
	p.AdminNote = note
	p.ProcessedAt = &now
	r.payouts[id] = p
	return true, nil
}

func (r *inMemoryPayoutRepo) List(ctx context.Context, params ports.PayoutListParams) ([]domain.Payout, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Payout
	for _, p := range r.payouts {
		if p.SellerID != params.SellerID {
			continue
		}
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, params.Page, params.PerPage), int64(len(matched)), nil
}

func (r *inMemoryPayoutRepo) ListWithSellers(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutWithSeller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PayoutWithSeller, 0, len(r.payouts))
	for _, p := range r.payouts {
		if status != nil && p.Status != *status {
			continue
		}
		row := domain.PayoutWithSeller{Payout: p}
		if s, _ := r.sellers.GetByID(ctx, p.SellerID); s != nil {
			row.SellerEmail = s.Email
			row.BusinessName = s.BusinessName
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func paginate[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := min(start+perPage, len(items))
	return items[start:end]
}

// --- In-Memory Fee Config Repo ---

type inMemoryFeeConfigRepo struct {
	mu  sync.RWMutex
	cfg *domain.FeeConfig
}

func (r *inMemoryFeeConfigRepo) Get(ctx context.Context) (*domain.FeeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, nil
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *inMemoryFeeConfigRepo) Upsert(ctx context.Context, cfg *domain.FeeConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cfg
	r.cfg = &cp
	return nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.logs[log.Key]; exists {
		return ports.ErrDuplicateKey
	}
	r.logs[log.Key] = *log
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// --- Fake SellAuth ---

type fakeProcessor struct {
	mu       sync.Mutex
	seq      int
	coupons  map[string]bool
	invoices map[string]*domain.ProcessorInvoice
	refunded []string
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		coupons:  make(map[string]bool),
		invoices: make(map[string]*domain.ProcessorInvoice),
	}
}

func (p *fakeProcessor) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	id := fmt.Sprintf("INV-%04d", p.seq)
	total := decimal.NewFromInt(req.Quantity).Div(decimal.NewFromInt(100))
	p.invoices[id] = &domain.ProcessorInvoice{
		ID:         id,
		Status:     "pending",
		CouponCode: req.CouponCode,
		Total:      &total,
		Email:      req.Email,
	}
	return &ports.CheckoutResult{InvoiceID: id, URL: "https://pay.example.test/checkout/" + id}, nil
}

func (p *fakeProcessor) GetInvoice(ctx context.Context, invoiceID string) (*domain.ProcessorInvoice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	inv, ok := p.invoices[invoiceID]
	if !ok {
		return nil, &ports.GatewayError{Status: http.StatusNotFound, Message: "invoice not found"}
	}
	cp := *inv
	return &cp, nil
}

func (p *fakeProcessor) RefundInvoice(ctx context.Context, invoiceID string, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	inv, ok := p.invoices[invoiceID]
	if !ok {
		return &ports.GatewayError{Status: http.StatusNotFound, Message: "invoice not found"}
	}
	inv.Status = "refunded"
	p.refunded = append(p.refunded, invoiceID)
	return nil
}

func (p *fakeProcessor) CreateCoupon(ctx context.Context, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.coupons[code] {
		return &ports.GatewayError{Status: http.StatusConflict, Message: "coupon already exists"}
	}
	p.coupons[code] = true
	return nil
}

func (p *fakeProcessor) refundedInvoices() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.refunded)
}

// settle marks an invoice paid upstream without delivering a webhook.
func (p *fakeProcessor) settle(invoiceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if inv, ok := p.invoices[invoiceID]; ok {
		inv.Status = "completed"
		inv.PaidUSD = inv.Total
	}
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
