package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"seller-gateway/internal/adapter/http/dto"
	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler handles the operator endpoints under /api/v1/admin.
type AdminHandler struct {
	sellerSvc  ports.SellerService
	paymentSvc ports.PaymentService
	payoutSvc  ports.PayoutService
	feeSvc     ports.FeeService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	sellerSvc ports.SellerService,
	paymentSvc ports.PaymentService,
	payoutSvc ports.PayoutService,
	feeSvc ports.FeeService,
) *AdminHandler {
	return &AdminHandler{
		sellerSvc:  sellerSvc,
		paymentSvc: paymentSvc,
		payoutSvc:  payoutSvc,
		feeSvc:     feeSvc,
	}
}

// ListSellers handles GET /api/v1/admin/sellers.
func (h *AdminHandler) ListSellers(c *gin.Context) {
	var q dto.AdminStatusQuery
	_ = c.ShouldBindQuery(&q)

	var status *domain.SellerStatus
	if q.Status != "" {
		s := domain.SellerStatus(q.Status)
		if !s.Valid() {
			response.Error(c, apperror.Validation("Invalid seller status"))
			return
		}
		status = &s
	}

	sellers, err := h.sellerSvc.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	if sellers == nil {
		sellers = []domain.Seller{}
	}
	response.OK(c, sellers)
}

// ApproveSeller handles POST /api/v1/admin/approve-seller.
func (h *AdminHandler) ApproveSeller(c *gin.Context) {
	var req dto.ApproveSellerRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.sellerSvc.Approve(c.Request.Context(), uuid.MustParse(req.SellerID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKMessage(c, dto.ApprovalResponse{
		SellerID: result.Seller.ID.String(),
		Email:    result.Seller.Email,
		APIKey:   result.APIKey,
	}, "Seller approved")
}

// SuspendSeller handles POST /api/v1/admin/sellers/:id/suspend.
func (h *AdminHandler) SuspendSeller(c *gin.Context) {
	h.transitionSeller(c, h.sellerSvc.Suspend, "Seller suspended")
}

// ReinstateSeller handles POST /api/v1/admin/sellers/:id/reinstate.
func (h *AdminHandler) ReinstateSeller(c *gin.Context) {
	h.transitionSeller(c, h.sellerSvc.Reinstate, "Seller reinstated")
}

func (h *AdminHandler) transitionSeller(
	c *gin.Context,
	apply func(ctx context.Context, id uuid.UUID) (*domain.Seller, error),
	message string,
) {
	var uri dto.SellerURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Validation("Invalid seller ID"))
		return
	}

	seller, err := apply(c.Request.Context(), uuid.MustParse(uri.SellerID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKMessage(c, seller, message)
}

// ListTransactions handles GET /api/v1/admin/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	var q dto.AdminTransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	page, perPage := pageDefaults(q.Page, q.PerPage, defaultAdminPerPage)
	params := ports.TransactionListParams{Page: page, PerPage: perPage}
	if q.Status != "" {
		status := domain.TransactionStatus(q.Status)
		params.Status = &status
	}
	if q.SellerID != "" {
		id := uuid.MustParse(q.SellerID)
		params.SellerID = &id
	}

	txns, total, err := h.paymentSvc.ListAll(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	response.Paginated(c, txns, response.NewPagination(page, perPage, total))
}

// ListPayouts handles GET /api/v1/admin/payouts.
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	var q dto.AdminStatusQuery
	_ = c.ShouldBindQuery(&q)

	var status *domain.PayoutStatus
	if q.Status != "" {
		s := domain.PayoutStatus(q.Status)
		if !s.Valid() {
			response.Error(c, apperror.Validation("Invalid payout status"))
			return
		}
		status = &s
	}

	payouts, err := h.payoutSvc.ListAll(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	if payouts == nil {
		payouts = []domain.PayoutWithSeller{}
	}
	response.OK(c, payouts)
}

// DecidePayout handles POST /api/v1/admin/payouts.
func (h *AdminHandler) DecidePayout(c *gin.Context) {
	var req dto.PayoutDecisionRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	payout, err := h.payoutSvc.Decide(c.Request.Context(), uuid.MustParse(req.PayoutID), req.Status, req.AdminNote)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKMessage(c, payout, fmt.Sprintf("Payout %s successfully", req.Status))
}

// ExportPayouts handles GET /api/v1/admin/payouts/export.
func (h *AdminHandler) ExportPayouts(c *gin.Context) {
	sheet, err := h.payoutSvc.ExportPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("pending-payouts-%s.xlsx", time.Now().UTC().Format("20060102-1504"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, sheet)
}

// GetFees handles GET /api/v1/admin/config/fees.
func (h *AdminHandler) GetFees(c *gin.Context) {
	cfg, err := h.feeSvc.GetGlobal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FeesResponse{CustomerFee: cfg.CustomerFee, SellerFee: cfg.SellerFee})
}

// UpdateFees handles POST /api/v1/admin/config/fees. With sellerId the
// seller's overrides are replaced; otherwise the global row is.
func (h *AdminHandler) UpdateFees(c *gin.Context) {
	var req dto.FeeUpdateRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	update := ports.FeeUpdate{CustomerFee: req.CustomerFee, SellerFee: req.SellerFee}

	if req.SellerID != nil && *req.SellerID != "" {
		seller, err := h.feeSvc.UpdateSeller(c.Request.Context(), uuid.MustParse(*req.SellerID), update)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OKMessage(c, seller, "Fees updated successfully")
		return
	}

	cfg, err := h.feeSvc.UpdateGlobal(c.Request.Context(), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKMessage(c, dto.FeesResponse{CustomerFee: cfg.CustomerFee, SellerFee: cfg.SellerFee}, "Fees updated successfully")
}
