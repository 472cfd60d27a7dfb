package dto

import (
	"seller-gateway/internal/core/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// --- Seller API ---

// RegisterSellerRequest is the request body for seller registration.
type RegisterSellerRequest struct {
	Email          string           `json:"email" binding:"required,max=255" sanitize:"-"`
	BusinessName   string           `json:"businessName" binding:"required,max=100"`
	URL            *string          `json:"url,omitempty" binding:"omitempty,max=2048,safe_url" sanitize:"-"`
	VolumeEstimate *decimal.Decimal `json:"volumeEstimate,omitempty"`
}

// Validate applies the business rules binding tags cannot express.
func (r RegisterSellerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat.Error("Invalid email format")),
		validation.Field(&r.BusinessName,
			validation.Required,
			validation.RuneLength(3, 100).Error("Business name must be at least 3 characters"),
		),
		validation.Field(&r.VolumeEstimate,
			validation.By(decimalAtLeast(decimal.Zero, "Volume estimate must be non-negative")),
		),
	)
}

// CreatePaymentRequest is the request body for opening a checkout.
type CreatePaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" sanitize:"-"`
	CustomerEmail string          `json:"customer_email" binding:"required,max=255" sanitize:"-"`
	Description   *string         `json:"description,omitempty"`
	SuccessURL    *string         `json:"success_url,omitempty" sanitize:"-"`
	CancelURL     *string         `json:"cancel_url,omitempty" sanitize:"-"`
}

// Validate checks amount bounds and the optional redirect URLs.
func (r CreatePaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount,
			validation.By(decimalAtLeast(domain.MinPaymentAmount, "Minimum $0.50")),
			validation.By(decimalAtMost(domain.MaxPaymentAmount, "Maximum $100,000 per transaction")),
		),
		validation.Field(&r.Currency,
			validation.Required.Error("Only USD supported"),
			validation.In(domain.SupportedCurrency).Error("Only USD supported"),
		),
		validation.Field(&r.CustomerEmail, validation.Required, is.EmailFormat.Error("Invalid customer email")),
		validation.Field(&r.Description, validation.Length(0, 500).Error("Description too long")),
		validation.Field(&r.SuccessURL, validation.By(safeURL("Invalid success URL"))),
		validation.Field(&r.CancelURL, validation.By(safeURL("Invalid cancel URL"))),
	)
}

// RefundRequest is the optional body of a refund.
type RefundRequest struct {
	Reason *string `json:"reason,omitempty" sanitize:"-"`
}

// Validate enforces the reason length when one is given.
func (r RefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.When(r.Reason != nil,
			validation.Required.Error("Reason too short"),
			validation.RuneLength(5, 500).Error("Reason must be between 5 and 500 characters"),
		)),
	)
}

// PayoutRequest is the request body for a withdrawal.
type PayoutRequest struct {
	Crypto domain.CryptoRail `json:"crypto"`
	Amount *decimal.Decimal  `json:"amount,omitempty"`
}

// Validate checks the rail and the optional amount.
func (r PayoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Crypto,
			validation.Required.Error("Invalid crypto type"),
			validation.In(domain.CryptoUSDCSol, domain.CryptoUSDCBsc, domain.CryptoLTC).Error("Invalid crypto type"),
		),
		validation.Field(&r.Amount, validation.By(decimalAtLeast(domain.MinPayoutUSD, "Minimum payout $10"))),
	)
}

// UpdateProfileRequest sets payout wallets. An omitted field is left as is;
// an empty string clears the wallet.
type UpdateProfileRequest struct {
	SolWallet *string `json:"usdcSolWallet,omitempty"`
	BscWallet *string `json:"usdcBscWallet,omitempty"`
	LtcWallet *string `json:"ltcWallet,omitempty"`
}

// Validate checks each supplied address against its rail.
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SolWallet, validation.Match(domain.SolanaAddressPattern).Error("Invalid Solana address")),
		validation.Field(&r.BscWallet, validation.Match(domain.BSCAddressPattern).Error("Invalid BSC address")),
		validation.Field(&r.LtcWallet, validation.Match(domain.LitecoinAddressPattern).Error("Invalid LTC address")),
	)
}

// InvoiceURI binds the invoice id path parameter.
type InvoiceURI struct {
	InvoiceID string `uri:"invoiceId" binding:"required,max=100,safe_id"`
}

// InvoiceListQuery filters a seller's invoices.
type InvoiceListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PerPage   int    `form:"perPage" binding:"omitempty,min=1,max=100"`
	Status    string `form:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	StartDate string `form:"startDate" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndDate   string `form:"endDate" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// PayoutListQuery filters a seller's payouts.
type PayoutListQuery struct {
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"perPage" binding:"omitempty,min=1,max=100"`
	Status  string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// SellerProfileResponse is the seller's own account view.
type SellerProfileResponse struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	BusinessName    string          `json:"businessName"`
	URL             *string         `json:"url"`
	APIKey          string          `json:"apiKey"`
	SolWallet       *string         `json:"usdcSolWallet"`
	BscWallet       *string         `json:"usdcBscWallet"`
	LtcWallet       *string         `json:"ltcWallet"`
	Balance         decimal.Decimal `json:"balance"`
	CustomerFeeRate decimal.Decimal `json:"customerFeeRate"`
	SellerFeeRate   decimal.Decimal `json:"sellerFeeRate"`
	Status          string          `json:"status"`
}

// InvoiceResponse is one invoice with best-effort processor details.
type InvoiceResponse struct {
	ID          string           `json:"id"`
	InvoiceID   string           `json:"invoice_id"`
	Amount      decimal.Decimal  `json:"amount"`
	CustomerFee decimal.Decimal  `json:"customer_fee"`
	NetToSeller decimal.Decimal  `json:"net_to_seller"`
	Status      string           `json:"status"`
	Description *string          `json:"description,omitempty"`
	CreatedAt   string           `json:"created_at"`
	CompletedAt *string          `json:"completed_at,omitempty"`
	PaidUSD     *decimal.Decimal `json:"paid_usd,omitempty"`
	Email       string           `json:"email,omitempty"`
	Gateway     string           `json:"gateway,omitempty"`
}

// --- Admin API ---

// AdminLoginRequest opens an admin session.
type AdminLoginRequest struct {
	Secret string `json:"secret" binding:"required,max=256" sanitize:"-"`
}

// ApproveSellerRequest is the body of the approval endpoint.
type ApproveSellerRequest struct {
	SellerID string `json:"sellerId" binding:"required"`
}

// Validate checks the seller id format.
func (r ApproveSellerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SellerID, validation.Required, is.UUID.Error("Invalid seller ID")),
	)
}

// SellerURI binds the seller id path parameter.
type SellerURI struct {
	SellerID string `uri:"id" binding:"required,uuid"`
}

// ApprovalResponse discloses the seller's API key exactly once.
type ApprovalResponse struct {
	SellerID string `json:"seller_id"`
	Email    string `json:"email"`
	APIKey   string `json:"api_key"`
}

// PayoutDecisionRequest approves or rejects a pending payout.
type PayoutDecisionRequest struct {
	PayoutID  string              `json:"payoutId" binding:"required"`
	Status    domain.PayoutStatus `json:"status" binding:"required"`
	AdminNote *string             `json:"adminNote,omitempty"`
}

// Validate checks the id, the decision and the note length.
func (r PayoutDecisionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PayoutID, validation.Required, is.UUID.Error("Invalid payout ID")),
		validation.Field(&r.Status,
			validation.Required,
			validation.In(domain.PayoutStatusApproved, domain.PayoutStatusRejected).Error("Status must be approved or rejected"),
		),
		validation.Field(&r.AdminNote, validation.Length(0, 500).Error("Admin note too long")),
	)
}

// AdminStatusQuery filters admin lists by status.
type AdminStatusQuery struct {
	Status string `form:"status"`
}

// AdminTransactionQuery filters the platform-wide transaction list.
type AdminTransactionQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"perPage" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	SellerID string `form:"sellerId" binding:"omitempty,uuid"`
}

// FeeUpdateRequest changes the global fees or, with SellerID, one seller's
// overrides.
type FeeUpdateRequest struct {
	SellerID    *string          `json:"sellerId,omitempty"`
	CustomerFee *decimal.Decimal `json:"customerFee,omitempty"`
	SellerFee   *decimal.Decimal `json:"sellerFee,omitempty"`
}

// Validate keeps both rates inside [0, 30].
func (r FeeUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SellerID, is.UUID.Error("Invalid seller ID")),
		validation.Field(&r.CustomerFee, validation.By(feeRate("Customer fee must be between 0 and 30"))),
		validation.Field(&r.SellerFee, validation.By(feeRate("Seller fee must be between 0 and 30"))),
	)
}

// FeesResponse reports the global fee percentages.
type FeesResponse struct {
	CustomerFee decimal.Decimal `json:"customerFee"`
	SellerFee   decimal.Decimal `json:"sellerFee"`
}

// SessionResponse describes an admin session.
type SessionResponse struct {
	Token     string `json:"token,omitempty"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}
