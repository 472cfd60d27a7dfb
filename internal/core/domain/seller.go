package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SellerStatus represents the state of a seller account.
type SellerStatus string

const (
	SellerStatusPending   SellerStatus = "pending"
	SellerStatusApproved  SellerStatus = "approved"
	SellerStatusSuspended SellerStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s SellerStatus) Valid() bool {
	switch s {
	case SellerStatusPending, SellerStatusApproved, SellerStatusSuspended:
		return true
	}
	return false
}

// APIKeyPrefix marks every seller credential.
const APIKeyPrefix = "metapay_sk_"

// Seller is an onboarded merchant. Balance is the USD amount owed to the
// seller and never goes negative.
type Seller struct {
	ID                uuid.UUID        `json:"id"`
	Email             string           `json:"email"`
	BusinessName      string           `json:"business_name"`
	URL               *string          `json:"url,omitempty"`
	VolumeEstimate    *decimal.Decimal `json:"volume_estimate,omitempty"`
	Status            SellerStatus     `json:"status"`
	Balance           decimal.Decimal  `json:"balance"`
	APIKeyDigest      string           `json:"-"` // HMAC digest used for lookup
	APIKeyEnc         string           `json:"-"` // AES-GCM ciphertext, disclosed once on approval
	CouponCode        string           `json:"coupon_code"`
	CustomCustomerFee *decimal.Decimal `json:"custom_customer_fee,omitempty"`
	CustomSellerFee   *decimal.Decimal `json:"custom_seller_fee,omitempty"`
	SolWallet         *string          `json:"sol_wallet,omitempty"`
	BscWallet         *string          `json:"bsc_wallet,omitempty"`
	LtcWallet         *string          `json:"ltc_wallet,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// IsApproved returns true if the seller may use the API.
func (s *Seller) IsApproved() bool {
	return s.Status == SellerStatusApproved
}

// WalletFor returns the configured destination for a payout rail, or "".
func (s *Seller) WalletFor(rail CryptoRail) string {
	var w *string
	switch rail {
	case CryptoUSDCSol:
		w = s.SolWallet
	case CryptoUSDCBsc:
		w = s.BscWallet
	case CryptoLTC:
		w = s.LtcWallet
	}
	if w == nil {
		return ""
	}
	return *w
}

// MaskAPIKey hides all but the last 8 characters of a key.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-8:]
}
