package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/middleware"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindValidation:        http.StatusBadRequest,
	apperrors.KindForbidden:         http.StatusForbidden,
	apperrors.KindUnauthorized:      http.StatusUnauthorized,
	apperrors.KindNotFound:          http.StatusNotFound,
	apperrors.KindInsufficientFunds: http.StatusUnprocessableEntity,
	apperrors.KindConflict:          http.StatusConflict,
	apperrors.KindInternal:          http.StatusInternalServerError,
}

// respondError writes the error body for err. Internal causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		kind, status = apperrors.KindInternal, http.StatusInternalServerError
	}
	message := apperrors.MessageOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		message = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": kind})
}

// bindJSON binds the body and writes a 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperrors.Validation("%s", bindingMessage(err)))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)
	}
	return "invalid request body"
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "numeric":
		return field + " must contain digits only"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid":
		return field + " must be a UUID"
	default:
		return field + " is invalid"
	}
}

// caller returns the authenticated identity, writing a 401 when absent
func caller(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("authentication required"))
	}
	return identity, ok
}
