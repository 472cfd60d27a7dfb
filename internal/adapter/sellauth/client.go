// Package sellauth is the outbound adapter for the SellAuth storefront API,
// the payment processor customers actually pay through.
package sellauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"seller-gateway/config"
	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
	failureMessage  = "processor failure"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.PaymentProcessor.
type Client struct {
	cfg        config.ProcessorConfig
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a processor client with the configured timeout.
func NewClient(cfg config.ProcessorConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClientWithHTTP(cfg, &http.Client{Timeout: timeout}, log)
}

// NewClientWithHTTP creates a processor client over a caller-supplied transport.
func NewClientWithHTTP(cfg config.ProcessorConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.CheckoutURLBase = strings.TrimRight(cfg.CheckoutURLBase, "/")
	return &Client{cfg: cfg, httpClient: httpClient, log: log}
}

type cartItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type checkoutBody struct {
	Cart       []cartItem `json:"cart"`
	IP         string     `json:"ip"`
	UserAgent  string     `json:"user_agent"`
	Email      string     `json:"email"`
	Gateway    string     `json:"gateway"`
	Coupon     string     `json:"coupon"`
	Newsletter bool       `json:"newsletter"`
	SuccessURL *string    `json:"success_url,omitempty"`
	CancelURL  *string    `json:"cancel_url,omitempty"`
}

type checkoutResponse struct {
	ID          flexString `json:"id"`
	InvoiceID   flexString `json:"invoice_id"`
	InvoiceIDCC flexString `json:"invoiceId"`
	URL         string     `json:"url"`
	CheckoutURL string     `json:"checkout_url"`
}

type couponBody struct {
	Code         string     `json:"code"`
	Discount     int        `json:"discount"`
	DiscountType string     `json:"discount_type"`
	MaxUses      *int       `json:"max_uses"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

type refundBody struct {
	Reason string `json:"reason,omitempty"`
}

type invoiceResponse struct {
	ID         flexString `json:"id"`
	Status     string     `json:"status"`
	CouponCode string     `json:"coupon_code"`
	PaidUSD    flexAmount `json:"paid_usd"`
	Total      flexAmount `json:"total"`
	Email      string     `json:"email"`
	Gateway    string     `json:"gateway"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateCheckout opens an invoice for the one-cent product.
func (c *Client) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutResult, error) {
	body := checkoutBody{
		Cart: []cartItem{{
			ProductID: c.cfg.ProductID,
			VariantID: c.cfg.VariantID,
			Quantity:  req.Quantity,
		}},
		IP:         req.IP,
		UserAgent:  req.UserAgent,
		Email:      req.Email,
		Gateway:    c.cfg.Gateway,
		Coupon:     req.CouponCode,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	}

	var resp checkoutResponse
	if err := c.call(ctx, http.MethodPost, c.shopPath("/checkout"), body, &resp); err != nil {
		return nil, err
	}

	invoiceID := firstNonEmpty(string(resp.ID), string(resp.InvoiceID), string(resp.InvoiceIDCC))
	if invoiceID == "" {
		c.log.Error().Str("coupon", req.CouponCode).Msg("processor checkout response carried no invoice id")
		return nil, &ports.GatewayError{Status: http.StatusInternalServerError, Message: "Failed to create checkout - no invoice ID"}
	}

	url := firstNonEmpty(resp.URL, resp.CheckoutURL)
	if url == "" {
		url = c.cfg.CheckoutURLBase + "/" + invoiceID
	}

	return &ports.CheckoutResult{InvoiceID: invoiceID, URL: url}, nil
}

// GetInvoice fetches the processor's view of an invoice.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*domain.ProcessorInvoice, error) {
	var resp invoiceResponse
	if err := c.call(ctx, http.MethodGet, c.shopPath("/invoices/"+invoiceID), nil, &resp); err != nil {
		return nil, err
	}

	inv := resp.toDomain()
	if inv.ID == "" {
		inv.ID = invoiceID
	}
	return inv, nil
}

// RefundInvoice asks the processor to refund a paid invoice.
func (c *Client) RefundInvoice(ctx context.Context, invoiceID string, reason string) error {
	return c.call(ctx, http.MethodPost, c.shopPath("/invoices/"+invoiceID+"/refund"), refundBody{Reason: reason}, nil)
}

// CreateCoupon provisions a zero-discount, unlimited coupon used purely for
// attributing invoices to a seller.
func (c *Client) CreateCoupon(ctx context.Context, code string) error {
	body := couponBody{Code: code, Discount: 0, DiscountType: "percentage"}
	return c.call(ctx, http.MethodPost, c.shopPath("/coupons"), body, nil)
}

func (c *Client) shopPath(suffix string) string {
	return "/shops/" + c.cfg.ShopID + suffix
}

// call performs one request. Non-2xx responses and transport failures come
// back as *ports.GatewayError.
func (c *Client) call(ctx context.Context, method, path string, payload any, out any) error {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal processor request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build processor request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("processor request failed")
		return &ports.GatewayError{Status: http.StatusInternalServerError, Message: failureMessage}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("processor response unreadable")
		return &ports.GatewayError{Status: http.StatusInternalServerError, Message: failureMessage}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("processor call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := failureMessage
		var e errorResponse
		if json.Unmarshal(data, &e) == nil {
			msg = firstNonEmpty(e.Error, e.Message, msg)
		}
		c.log.Warn().Str("path", path).Int("status", resp.StatusCode).Str("error", msg).Msg("processor rejected request")
		return &ports.GatewayError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("processor response malformed")
		return &ports.GatewayError{Status: http.StatusInternalServerError, Message: failureMessage}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
