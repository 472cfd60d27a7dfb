package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeRole selects which side of a sale a percentage applies to.
type FeeRole string

const (
	FeeRoleCustomer FeeRole = "customer" // surcharge added to checkout totals
	FeeRoleSeller   FeeRole = "seller"   // deducted from payouts
)

var (
	DefaultCustomerFee = decimal.NewFromInt(15)
	DefaultSellerFee   = decimal.NewFromInt(10)
	MaxFeeRate         = decimal.NewFromInt(30)

	hundred = decimal.NewFromInt(100)
)

// FeeConfig is the singleton platform fee row.
type FeeConfig struct {
	CustomerFee decimal.Decimal `json:"customer_fee"`
	SellerFee   decimal.Decimal `json:"seller_fee"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DefaultFeeConfig returns the built-in percentages.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{CustomerFee: DefaultCustomerFee, SellerFee: DefaultSellerFee}
}

// ValidFeeRate reports whether r is inside [0, 30].
func ValidFeeRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(MaxFeeRate)
}

// ResolveFeeRate picks the seller override, then the global row, then the
// built-in default. A nil cfg means the global row is unavailable.
func ResolveFeeRate(role FeeRole, seller *Seller, cfg *FeeConfig) decimal.Decimal {
	switch role {
	case FeeRoleCustomer:
		if seller != nil && seller.CustomCustomerFee != nil {
			return *seller.CustomCustomerFee
		}
		if cfg != nil {
			return cfg.CustomerFee
		}
		return DefaultCustomerFee
	default:
		if seller != nil && seller.CustomSellerFee != nil {
			return *seller.CustomSellerFee
		}
		if cfg != nil {
			return cfg.SellerFee
		}
		return DefaultSellerFee
	}
}

// Surcharge is the customer-side fee on amount at rate percent.
func Surcharge(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// Deduction is the seller-side fee on amount at rate percent.
func Deduction(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
