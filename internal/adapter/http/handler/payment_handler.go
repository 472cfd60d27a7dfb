package handler

import (
	"time"

	"seller-gateway/internal/adapter/http/dto"
	"seller-gateway/internal/adapter/http/middleware"
	"seller-gateway/internal/core/domain"
	"seller-gateway/internal/core/ports"
	"seller-gateway/pkg/apperror"
	"seller-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles checkout, invoice and refund endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreatePaymentRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}

	session, err := h.paymentSvc.CreatePayment(c.Request.Context(), ports.CreatePaymentRequest{
		Seller:         seller,
		Amount:         req.Amount,
		Currency:       req.Currency,
		CustomerEmail:  req.CustomerEmail,
		Description:    req.Description,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
		ClientIP:       c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
		IdempotencyKey: c.GetHeader(middleware.HeaderIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, session)
}

// ListInvoices handles GET /api/v1/invoices.
func (h *PaymentHandler) ListInvoices(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var q dto.InvoiceListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	page, perPage := pageDefaults(q.Page, q.PerPage, defaultSellerPerPage)
	params := ports.TransactionListParams{
		SellerID: &seller.ID,
		Page:     page,
		PerPage:  perPage,
	}
	if q.Status != "" {
		status := domain.TransactionStatus(q.Status)
		params.Status = &status
	}
	if q.StartDate != "" {
		from, _ := time.Parse(time.RFC3339, q.StartDate)
		params.From = &from
	}
	if q.EndDate != "" {
		to, _ := time.Parse(time.RFC3339, q.EndDate)
		params.To = &to
	}

	txns, total, err := h.paymentSvc.ListInvoices(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.InvoiceResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toInvoiceResponse(&txns[i], nil))
	}
	response.Paginated(c, items, response.NewPagination(page, perPage, total))
}

// GetInvoice handles GET /api/v1/invoices/:invoiceId.
func (h *PaymentHandler) GetInvoice(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var uri dto.InvoiceURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	detail, err := h.paymentSvc.GetInvoice(c.Request.Context(), seller.ID, uri.InvoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toInvoiceResponse(detail.Transaction, detail.Processor))
}

// Refund handles POST /api/v1/refunds/:invoiceId.
func (h *PaymentHandler) Refund(c *gin.Context) {
	seller, err := currentSeller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var uri dto.InvoiceURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	var req dto.RefundRequest
	if err := bindJSON(c, &req, true); err != nil {
		response.Error(c, err)
		return
	}

	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}

	txn, err := h.paymentSvc.Refund(c.Request.Context(), seller, uri.InvoiceID, reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKMessage(c, toInvoiceResponse(txn, nil), "Refund processed successfully")
}

// toInvoiceResponse converts a ledger row (and optional processor view) to DTO.
func toInvoiceResponse(tx *domain.Transaction, inv *domain.ProcessorInvoice) dto.InvoiceResponse {
	resp := dto.InvoiceResponse{
		ID:          tx.ID.String(),
		InvoiceID:   tx.InvoiceID,
		Amount:      tx.Amount,
		CustomerFee: tx.CustomerFee,
		NetToSeller: tx.NetToSeller,
		Status:      string(tx.Status),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.CompletedAt != nil {
		s := tx.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	if inv != nil {
		resp.PaidUSD = inv.PaidUSD
		resp.Email = inv.Email
		resp.Gateway = inv.Gateway
	}
	return resp
}
