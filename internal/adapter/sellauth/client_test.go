package sellauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seller-gateway/config"
	"seller-gateway/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.ProcessorConfig{
		BaseURL:         srv.URL + "/",
		Token:           "tok_test",
		ShopID:          "77",
		ProductID:       "p-1",
		VariantID:       "v-1",
		Gateway:         "NMI",
		CheckoutURLBase: "https://checkout.example/invoice/",
		Timeout:         2 * time.Second,
	}, zerolog.Nop())
}

func TestCreateCheckout_RequestShape(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shops/77/checkout", r.URL.Path)
		assert.Equal(t, "Bearer tok_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"inv_1","url":"https://pay.example/inv_1"}`)
	})

	res, err := client.CreateCheckout(context.Background(), ports.CheckoutRequest{
		Quantity:   11500,
		Email:      "buyer@example.com",
		CouponCode: "SELLER_000001_ABCDEF12",
		IP:         "203.0.113.9",
		UserAgent:  "curl/8",
	})
	require.NoError(t, err)
	assert.Equal(t, "inv_1", res.InvoiceID)
	assert.Equal(t, "https://pay.example/inv_1", res.URL)

	cart := got["cart"].([]any)[0].(map[string]any)
	assert.Equal(t, "p-1", cart["product_id"])
	assert.Equal(t, "v-1", cart["variant_id"])
	assert.Equal(t, float64(11500), cart["quantity"])
	assert.Equal(t, "NMI", got["gateway"])
	assert.Equal(t, "SELLER_000001_ABCDEF12", got["coupon"])
	assert.Equal(t, false, got["newsletter"])
	assert.NotContains(t, got, "success_url")
}

func TestCreateCheckout_InvoiceIDFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  string
		wantURL string
	}{
		{"numeric id", `{"id":12345}`, "12345", "https://checkout.example/invoice/12345"},
		{"invoice_id", `{"invoice_id":"inv_2","checkout_url":"https://c/2"}`, "inv_2", "https://c/2"},
		{"camel case", `{"invoiceId":"inv_3"}`, "inv_3", "https://checkout.example/invoice/inv_3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			res, err := client.CreateCheckout(context.Background(), ports.CheckoutRequest{Quantity: 100})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.InvoiceID)
			assert.Equal(t, tt.wantURL, res.URL)
		})
	}
}

func TestCreateCheckout_NoInvoiceID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})

	_, err := client.CreateCheckout(context.Background(), ports.CheckoutRequest{Quantity: 100})
	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Contains(t, gwErr.Message, "no invoice ID")
}

func TestCall_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", http.StatusBadRequest, `{"error":"Invalid coupon"}`, "Invalid coupon"},
		{"message field", http.StatusConflict, `{"message":"Coupon already exists"}`, "Coupon already exists"},
		{"unparseable body", http.StatusBadGateway, `<html>`, "processor failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.CreateCoupon(context.Background(), "SELLER_000001_ABCDEF12")
			var gwErr *ports.GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.status, gwErr.Status)
			assert.Equal(t, tt.wantMsg, gwErr.Message)
		})
	}
}

func TestCreateCoupon_Conflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/shops/77/coupons", r.URL.Path)
		assert.Equal(t, float64(0), body["discount"])
		assert.Equal(t, "percentage", body["discount_type"])
		assert.Nil(t, body["max_uses"])
		assert.Nil(t, body["expires_at"])

		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"duplicate"}`)
	})

	err := client.CreateCoupon(context.Background(), "SELLER_000001_ABCDEF12")
	assert.True(t, ports.IsConflict(err))
}

func TestGetInvoice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/shops/77/invoices/inv_9", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"inv_9","status":"completed","paid_usd":"57.50","total":57.5,
			"email":"buyer@example.com","gateway":"NMI","coupon_code":"SELLER_000002_00FF00FF"}`)
	})

	inv, err := client.GetInvoice(context.Background(), "inv_9")
	require.NoError(t, err)
	assert.Equal(t, "inv_9", inv.ID)
	assert.Equal(t, "completed", inv.Status)
	require.NotNil(t, inv.PaidUSD)
	assert.Equal(t, "57.5", inv.PaidUSD.String())
	require.NotNil(t, inv.Total)
	assert.Equal(t, "57.5", inv.Total.String())
	assert.Equal(t, "SELLER_000002_00FF00FF", inv.CouponCode)
}

func TestGetInvoice_NullAmounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"pending","paid_usd":null}`)
	})

	inv, err := client.GetInvoice(context.Background(), "inv_10")
	require.NoError(t, err)
	assert.Equal(t, "inv_10", inv.ID)
	assert.Nil(t, inv.PaidUSD)
	assert.Nil(t, inv.Total)
}

func TestRefundInvoice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shops/77/invoices/inv_5/refund", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "customer request", body["reason"])
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.RefundInvoice(context.Background(), "inv_5", "customer request"))
}

type failingTransport struct{}

func (failingTransport) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestCall_TransportFailure(t *testing.T) {
	client := NewClientWithHTTP(config.ProcessorConfig{BaseURL: "http://processor.invalid"}, failingTransport{}, zerolog.Nop())

	_, err := client.GetInvoice(context.Background(), "inv_1")
	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Equal(t, "processor failure", gwErr.Message)
}
