package handler

import (
	"seller-gateway/internal/adapter/http/dto"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// SellerHandler handles seller onboarding and profile endpoints.
type SellerHandler struct {
	sellerSvc ports.SellerService
}

// NewSellerHandler creates a new SellerHandler.
func NewSellerHandler(sellerSvc ports.SellerService) *SellerHandler {
	return &SellerHandler{sellerSvc: sellerSvc}
}

// Register handles POST /api/v1/sellers/register.
func (h *SellerHandler) Register(c *gin.Context) {
	var req dto.RegisterSellerRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	url := req.URL
	if url != nil && *url == "" {
		url = nil
	}

	if _, err := h.sellerSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Email:          req.Email,
		BusinessName:   req.BusinessName,
		URL:            url,
		VolumeEstimate: req.VolumeEstimate,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.CreatedMessage(c, "Registration successful! Your account is pending approval.")
}

// GetProfile handles GET /api/v1/profile.
func (h *SellerHandler) GetProfile(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	profile, err := h.sellerSvc.Profile(c.Request.Context(), seller)
	if err != nil {
		response.Error(c, err)
		return
	}

	s := profile.Seller
	response.OK(c, dto.SellerProfileResponse{
		ID:              s.ID.String(),
		Email:           s.Email,
		BusinessName:    s.BusinessName,
		URL:             s.URL,
		APIKey:          profile.MaskedAPIKey,
		SolWallet:       s.SolWallet,
		BscWallet:       s.BscWallet,
		LtcWallet:       s.LtcWallet,
		Balance:         s.Balance,
		CustomerFeeRate: profile.CustomerFeeRate,
		SellerFeeRate:   profile.SellerFeeRate,
		Status:          string(s.Status),
	})
}

// UpdateProfile handles PUT /api/v1/profile.
func (h *SellerHandler) UpdateProfile(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateProfileRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.sellerSvc.UpdateWallets(c.Request.Context(), seller, ports.WalletUpdate{
		Sol: req.SolWallet,
		Bsc: req.BscWallet,
		Ltc: req.LtcWallet,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.Ack(c, "Profile updated successfully")
}
