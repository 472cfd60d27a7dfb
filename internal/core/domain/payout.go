package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CryptoRail is a supported payout network/asset pair.
type CryptoRail string

const (
	CryptoUSDCSol CryptoRail = "USDC_SOL"
	CryptoUSDCBsc CryptoRail = "USDC_BSC"
	CryptoLTC     CryptoRail = "LTC"
)

var (
	SolanaAddressPattern   = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{44}$`)
	BSCAddressPattern      = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	LitecoinAddressPattern = regexp.MustCompile(`^[LM3][1-9A-HJ-NP-Za-km-z]{26,33}$`)
)

// Valid reports whether c is a supported rail.
func (c CryptoRail) Valid() bool {
	switch c {
	case CryptoUSDCSol, CryptoUSDCBsc, CryptoLTC:
		return true
	}
	return false
}

// ValidAddress checks a destination address against the rail's format.
func (c CryptoRail) ValidAddress(addr string) bool {
	switch c {
	case CryptoUSDCSol:
		return SolanaAddressPattern.MatchString(addr)
	case CryptoUSDCBsc:
		return BSCAddressPattern.MatchString(addr)
	case CryptoLTC:
		return LitecoinAddressPattern.MatchString(addr)
	}
	return false
}

// PayoutStatus represents the admin decision on a payout.
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusRejected PayoutStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusApproved, PayoutStatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a terminal admin decision.
func (s PayoutStatus) IsDecision() bool {
	return s == PayoutStatusApproved || s == PayoutStatusRejected
}

// MinPayoutUSD is the smallest withdrawable amount.
var MinPayoutUSD = decimal.NewFromInt(10)

// Payout is a seller's withdrawal request. AmountUSD leaves the balance when
// the request is made; NetUSD is what the admin sends on-chain.
type Payout struct {
	ID            uuid.UUID       `json:"id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	AmountUSD     decimal.Decimal `json:"amount_usd"`
	SellerFee     decimal.Decimal `json:"seller_fee"`
	NetUSD        decimal.Decimal `json:"net_usd"`
	Crypto        CryptoRail      `json:"crypto"`
	WalletAddress string          `json:"wallet_address"`
	Status        PayoutStatus    `json:"status"`
	AdminNote     *string         `json:"admin_note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

// PayoutWithSeller is a payout joined with its owner for admin review.
type PayoutWithSeller struct {
	Payout
	SellerEmail  string `json:"seller_email"`
	BusinessName string `json:"business_name"`
}
