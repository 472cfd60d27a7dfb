package handler

import (
	"seller-gateway/internal/adapter/http/dto"
	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// PayoutHandler handles seller withdrawal endpoints.
type PayoutHandler struct {
	payoutSvc ports.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutSvc ports.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutSvc: payoutSvc}
}

// RequestPayout handles POST /api/v1/payouts.
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.PayoutRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	payout, err := h.payoutSvc.Request(c.Request.Context(), seller, ports.PayoutRequest{
		Crypto: req.Crypto,
		Amount: req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKMessage(c, payout, "Payout request submitted. Admin will process manually and approve.")
}

// ListPayouts handles GET /api/v1/payouts.
func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var q dto.PayoutListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	page, perPage := pageDefaults(q.Page, q.PerPage, defaultSellerPerPage)
	params := ports.PayoutListParams{SellerID: seller.ID, Page: page, PerPage: perPage}
	if q.Status != "" {
		status := domain.PayoutStatus(q.Status)
		params.Status = &status
	}

	payouts, total, err := h.payoutSvc.ListForSeller(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	if payouts == nil {
		payouts = []domain.Payout{}
	}

	response.Paginated(c, payouts, response.NewPagination(page, perPage, total))
}
