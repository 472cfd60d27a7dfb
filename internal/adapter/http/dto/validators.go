package dto

import (
	"errors"
	"html"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"seller-gateway/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("safe_url", validateSafeURL)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validateSafeURL accepts only http/https URLs.
func validateSafeURL(fl validator.FieldLevel) bool {
	return isSafeURL(fl.Field().String())
}

func isSafeURL(raw string) bool {
	if raw == "" {
		return true // optional field; use "required" tag to enforce presence
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// safeURL is the ozzo form of safe_url for optional *string fields.
func safeURL(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		s, ok := value.(*string)
		if !ok || s == nil {
			return nil
		}
		if !isSafeURL(*s) {
			return errors.New(msg)
		}
		return nil
	}
}

// decimalAtLeast fails when a decimal (or non-nil *decimal) is below min.
func decimalAtLeast(min decimal.Decimal, msg string) validation.RuleFunc {
	return func(value interface{}) error {
		d, ok := asDecimal(value)
		if ok && d.LessThan(min) {
			return errors.New(msg)
		}
		return nil
	}
}

// decimalAtMost fails when a decimal (or non-nil *decimal) is above max.
func decimalAtMost(max decimal.Decimal, msg string) validation.RuleFunc {
	return func(value interface{}) error {
		d, ok := asDecimal(value)
		if ok && d.GreaterThan(max) {
			return errors.New(msg)
		}
		return nil
	}
}

func feeRate(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		d, ok := asDecimal(value)
		if ok && !domain.ValidFeeRate(d) {
			return errors.New(msg)
		}
		return nil
	}
}

func asDecimal(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Decimal{}, false
		}
		return *v, true
	}
	return decimal.Decimal{}, false
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer. Fields tagged
// `sanitize:"-"` are only trimmed.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		clean := sanitize
		if rt.Field(i).Tag.Get("sanitize") == "-" {
			clean = strings.TrimSpace
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(clean(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(clean(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
