package handler

import (
	"errors"
	"io"
	"sort"

	"seller-gateway/internal/adapter/http/dto"
	"seller-gateway/internal/adapter/http/middleware"
	"seller-gateway/internal/core/domain"
	"seller-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	defaultSellerPerPage = 10
	defaultAdminPerPage  = 20
)

// bindJSON binds, sanitizes and validates a request body. With optional set,
// an empty body is accepted and leaves req at its zero value.
func bindJSON(c *gin.Context, req interface{}, optional bool) error {
	if err := c.ShouldBindJSON(req); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return apperror.Validation(err.Error())
		}
	}
	dto.SanitizeStruct(req)

	if v, ok := req.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return apperror.Validation(firstMessage(err))
		}
	}
	return nil
}

// firstMessage reports the first failing field, the way clients expect a
// single error string.
func firstMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err.Error()
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return errs[keys[0]].Error()
}

func currentSeller(c *gin.Context) (*domain.Seller, error) {
	seller, ok := middleware.SellerFrom(c)
	if !ok {
		return nil, apperror.ErrInvalidAPIKey()
	}
	return seller, nil
}

func pageDefaults(page, perPage, defaultPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}
