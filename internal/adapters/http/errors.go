package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/ports"
)

const ownerContextKey = "owner"

// SetOwner stores the authenticated owner on the request context
func SetOwner(c echo.Context, ownerID string) {
	c.Set(ownerContextKey, ownerID)
}

// OwnerFromContext returns the authenticated owner, or "" when there is none
func OwnerFromContext(c echo.Context) string {
	ownerID, _ := c.Get(ownerContextKey).(string)
	return ownerID
}

func requireOwner(c echo.Context) (string, error) {
	ownerID := OwnerFromContext(c)
	if ownerID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing owner")
	}
	return ownerID, nil
}

// Validator adapts go-playground/validator to echo
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates the request validator
func NewValidator() *Validator {
	return &Validator{validator: validator.New()}
}

// Validate validates structs
func (v *Validator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// ErrorHandler maps service and validation errors to JSON responses
func ErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := statusFor(err)
		if code >= http.StatusInternalServerError {
			logger.Errorw("Request failed", "error", err, "path", c.Request().URL.Path, "status", code)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Errorw("Error sending response", "error", err)
		}
	}
}

func statusFor(err error) (int, ports.ErrorResponse) {
	var (
		he          *echo.HTTPError
		validation  validator.ValidationErrors
		storeFailed *entities.StoreError
	)

	switch {
	case errors.As(err, &he):
		return he.Code, ports.ErrorResponse{Message: fmt.Sprint(he.Message)}
	case errors.As(err, &validation):
		details := make(map[string]interface{}, len(validation))
		for _, fe := range validation {
			details[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, ports.ErrorResponse{Message: "validation failed", Details: details}
	case errors.Is(err, entities.ErrBlankTitle),
		errors.Is(err, entities.ErrInvalidMonth),
		errors.Is(err, entities.ErrInvalidPageSize),
		errors.Is(err, entities.ErrUnknownTag):
		return http.StatusBadRequest, ports.ErrorResponse{Message: rootMessage(err)}
	case errors.Is(err, entities.ErrTaskNotFound):
		return http.StatusNotFound, ports.ErrorResponse{Message: entities.ErrTaskNotFound.Error()}
	case errors.As(err, &storeFailed):
		return http.StatusServiceUnavailable, ports.ErrorResponse{
			Message: "task store unavailable",
			Details: map[string]interface{}{"backend": storeFailed.Backend, "op": storeFailed.Op},
		}
	default:
		return http.StatusInternalServerError, ports.ErrorResponse{Message: http.StatusText(http.StatusInternalServerError)}
	}
}

// rootMessage strips wrapping context so clients see the sentinel text.
func rootMessage(err error) string {
	for _, sentinel := range []error{entities.ErrBlankTitle, entities.ErrInvalidMonth, entities.ErrInvalidPageSize, entities.ErrUnknownTag} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
