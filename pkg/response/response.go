package response

import (
	"errors"
	"net/http"
	"time"

	"seller-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	RequestID  string      `json:"request_id"`
	Timestamp  string      `json:"timestamp"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, perPage int, total int64) *Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Pagination{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, success(c, data))
}

// OKMessage sends a 200 response with data and a human-readable message.
func OKMessage(c *gin.Context, data interface{}, message string) {
	resp := success(c, data)
	resp.Message = message
	c.JSON(http.StatusOK, resp)
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, success(c, data))
}

// CreatedMessage sends a 201 response carrying only a message.
func CreatedMessage(c *gin.Context, message string) {
	resp := success(c, nil)
	resp.Message = message
	c.JSON(http.StatusCreated, resp)
}

// Paginated sends a 200 response with a page of data.
func Paginated(c *gin.Context, data interface{}, p *Pagination) {
	resp := success(c, data)
	resp.Pagination = p
	c.JSON(http.StatusOK, resp)
}

// Ack sends a 200 acknowledgement with an optional message.
func Ack(c *gin.Context, message string) {
	resp := success(c, nil)
	resp.Message = message
	c.JSON(http.StatusOK, resp)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			Error:     appErr.Message,
			ErrorCode: appErr.Code,
			RequestID: getRequestID(c),
			Timestamp: now(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "Internal server error",
		ErrorCode: "SYS_000",
		RequestID: getRequestID(c),
		Timestamp: now(),
	})
}

func success(c *gin.Context, data interface{}) SuccessResponse {
	return SuccessResponse{
		Success:   true,
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: now(),
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
