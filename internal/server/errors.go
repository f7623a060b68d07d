package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ventrahq/ventra/internal/authorization"
	billingdomain "github.com/ventrahq/ventra/internal/billing/domain"
	orgdomain "github.com/ventrahq/ventra/internal/organization/domain"
	"github.com/ventrahq/ventra/internal/payment/stripe"
	"github.com/ventrahq/ventra/internal/plan"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type            string            `json:"type"`
	Message         string            `json:"message"`
	Errors          []ValidationError `json:"errors,omitempty"`
	CurrentCurrency string            `json:"currentCurrency,omitempty"`
	NewCurrency     string            `json:"newCurrency,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyRequests = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var validation *ValidationErrors
	if errors.As(err, &validation) {
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
			Errors:  validation.Errors,
		}
	}

	var mismatch *billingdomain.CurrencyMismatchError
	if errors.As(err, &mismatch) {
		return http.StatusBadRequest, errorPayload{
			Type:            "currency_mismatch",
			Message:         mismatch.Error(),
			CurrentCurrency: mismatch.Current,
			NewCurrency:     mismatch.Requested,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, authorization.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "authentication required",
		}
	case errors.Is(err, ErrForbidden), errors.Is(err, authorization.ErrPermissionDenied):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "insufficient permissions",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many checkout attempts, retry later",
		}
	case errors.Is(err, billingdomain.ErrInvalidPrice), errors.Is(err, plan.ErrUnknownPrice):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_price",
			Message: "unknown price id",
		}
	case errors.Is(err, billingdomain.ErrOrgNotFound),
		errors.Is(err, orgdomain.ErrNotFound),
		errors.Is(err, stripe.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "resource not found",
		}
	case errors.Is(err, stripe.ErrTimeout):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "provider_unavailable",
			Message: "billing provider did not respond in time",
		}
	}

	var provider *stripe.Error
	if errors.As(err, &provider) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "provider_error",
			Message: "billing provider rejected the request",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
