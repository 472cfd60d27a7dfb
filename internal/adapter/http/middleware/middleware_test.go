package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/internal/core/ports/mocks"
	"seller-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ==================== SellerAuth Tests ====================

func TestSellerAuth_MissingHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sellerSvc := mocks.NewMockSellerService(ctrl)

	router := gin.New()
	router.GET("/api/v1/profile", SellerAuth(sellerSvc, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	for _, header := range []string{"", "Basic abc", "Bearer ", "metapay_sk_raw"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Equal(t, "AUTH_001", decodeError(t, w)["error_code"])
	}
}

func TestSellerAuth_RejectedByService(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown key", apperror.ErrInvalidAPIKey(), http.StatusUnauthorized},
		{"pending seller", apperror.ErrAccountNotApproved(), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			sellerSvc := mocks.NewMockSellerService(ctrl)
			sellerSvc.EXPECT().Authenticate(gomock.Any(), "metapay_sk_abc").Return(nil, tt.err)

			router := gin.New()
			router.GET("/api/v1/profile", SellerAuth(sellerSvc, zerolog.Nop()), func(c *gin.Context) {
				c.JSON(200, gin.H{"ok": true})
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
			req.Header.Set("Authorization", "Bearer metapay_sk_abc")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSellerAuth_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	seller := &domain.Seller{ID: uuid.New(), Status: domain.SellerStatusApproved}
	sellerSvc := mocks.NewMockSellerService(ctrl)
	sellerSvc.EXPECT().Authenticate(gomock.Any(), "metapay_sk_abc").Return(seller, nil)

	var captured *domain.Seller
	var capturedID interface{}
	router := gin.New()
	router.GET("/api/v1/profile", SellerAuth(sellerSvc, zerolog.Nop()), func(c *gin.Context) {
		captured, _ = SellerFrom(c)
		capturedID, _ = c.Get(CtxSellerID)
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "bearer metapay_sk_abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Same(t, seller, captured)
	assert.Equal(t, seller.ID, capturedID)
}

// ==================== AdminAuth Tests ====================

func TestAdminAuth_MissingHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := gin.New()
	router.GET("/api/v1/admin/sellers", AdminAuth(mocks.NewMockAdminAuthService(ctrl), zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sellers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_003", decodeError(t, w)["error_code"])
}

func TestAdminAuth_Forbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adminSvc := mocks.NewMockAdminAuthService(ctrl)
	adminSvc.EXPECT().Authorize(gomock.Any(), "jwt-token").Return(nil, apperror.ErrForbidden())

	router := gin.New()
	router.GET("/api/v1/admin/sellers", AdminAuth(adminSvc, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sellers", nil)
	req.Header.Set("Authorization", "Bearer jwt-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAuth_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	claims := &ports.TokenClaims{Subject: "admin", Role: "admin", ID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}
	adminSvc := mocks.NewMockAdminAuthService(ctrl)
	adminSvc.EXPECT().Authorize(gomock.Any(), "jwt-token").Return(claims, nil)

	var captured *ports.TokenClaims
	router := gin.New()
	router.GET("/api/v1/admin/sellers", AdminAuth(adminSvc, zerolog.Nop()), func(c *gin.Context) {
		captured, _ = AdminClaimsFrom(c)
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sellers", nil)
	req.Header.Set("Authorization", "Bearer jwt-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Same(t, claims, captured)
}

// ==================== Webhook Allow-List Tests ====================

func TestWebhookIPAllowList(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		headers map[string]string
		status  int
	}{
		{"empty list admits all", nil, nil, http.StatusOK},
		{"forwarded first entry", []string{"203.0.113.7"}, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, http.StatusOK},
		{"forwarded later entry ignored", []string{"10.0.0.1"}, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, http.StatusForbidden},
		{"real ip fallback", []string{"198.51.100.2"}, map[string]string{"X-Real-IP": "198.51.100.2"}, http.StatusOK},
		{"no headers", []string{"198.51.100.2"}, nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/api/v1/webhooks/sellauth", WebhookIPAllowList(tt.allowed, zerolog.Nop()), func(c *gin.Context) {
				c.JSON(200, gin.H{"success": true})
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/sellauth", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, "AUTH_006", decodeError(t, w)["error_code"])
			}
		})
	}
}

// ==================== Request ID / Recovery Tests ====================

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	generated := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "trace-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "trace-123", w.Body.String())
}

func TestRecovery_PanicRecovered(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), Recovery(zerolog.Nop()))
	router.GET("/panic", func(c *gin.Context) {
		panic("something went wrong")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(HeaderRequestID, "req-panic")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "SYS_001", resp["error_code"])
	assert.Equal(t, "req-panic", resp["request_id"])
	assert.Equal(t, false, resp["success"])
}
