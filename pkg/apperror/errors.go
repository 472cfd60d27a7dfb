package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidAPIKey() *AppError {
	return New("AUTH_001", "Invalid API key", http.StatusUnauthorized)
}

func ErrAccountNotApproved() *AppError {
	return New("AUTH_002", "Account not approved", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidAdminSecret() *AppError {
	return New("AUTH_004", "Invalid admin secret", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_005", "Forbidden", http.StatusForbidden)
}

func ErrWebhookSourceRejected() *AppError {
	return New("AUTH_006", "Forbidden", http.StatusForbidden)
}

// ---- Seller registry (SELLER) ----

func ErrEmailRegistered() *AppError {
	return New("SELLER_001", "Email already registered", http.StatusConflict)
}

func ErrSellerNotPending() *AppError {
	return New("SELLER_002", "Seller is not pending approval", http.StatusBadRequest)
}

func ErrInvalidSellerTransition(from string) *AppError {
	return New("SELLER_003", fmt.Sprintf("Seller status %s does not allow this action", from), http.StatusBadRequest)
}

func ErrInvalidWallet(rail string) *AppError {
	return New("SELLER_004", fmt.Sprintf("Invalid %s wallet address", rail), http.StatusBadRequest)
}

// ---- Payments & refunds (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_001", "Invalid amount", http.StatusBadRequest)
}

func ErrAmountTooLowAfterFee() *AppError {
	return New("PAY_003", "Amount too low after fee calculation", http.StatusBadRequest)
}

func ErrNotRefundable() *AppError {
	return New("PAY_005", "Only completed transactions can be refunded", http.StatusBadRequest)
}

func ErrRefundExceedsBalance() *AppError {
	return New("PAY_006", "Insufficient balance to cover refund", http.StatusBadRequest)
}

// ---- Payouts (PAYOUT) ----

func ErrInsufficientBalance() *AppError {
	return New("PAYOUT_001", "Insufficient balance", http.StatusBadRequest)
}

func ErrPayoutBelowMinimum() *AppError {
	return New("PAYOUT_002", "Minimum payout is $10", http.StatusBadRequest)
}

func ErrWalletNotConfigured(rail string) *AppError {
	return New("PAYOUT_003", fmt.Sprintf("No %s wallet configured", rail), http.StatusBadRequest)
}

func ErrPayoutProcessed() *AppError {
	return New("PAYOUT_004", "Payout already processed", http.StatusBadRequest)
}

// ---- Processor gateway (GW) ----

// ErrGateway surfaces an upstream processor failure with its message.
func ErrGateway(message string, err error) *AppError {
	if message == "" {
		message = "Payment processor failure"
	}
	return Wrap("GW_001", message, http.StatusInternalServerError, err)
}

// ErrGatewayRejected keeps the processor's 4xx status when it refuses the
// checkout input (e.g. an invalid customer email).
func ErrGatewayRejected(status int, message string) *AppError {
	if message == "" {
		message = "Payment processor rejected the request"
	}
	return New("GW_002", message, status)
}

// ---- Generic ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
