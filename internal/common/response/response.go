// Package response renders the service's uniform JSON envelope. Every
// response carries a success flag and a human-readable message; internal
// error detail is never exposed to clients.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/torque-rentals/service-rental/internal/common/domain"
)

// Envelope is the JSON body shape shared by all endpoints.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a 200 response.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Message: message})
}

// Unauthorized writes a 401 response with the given message.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Envelope{Success: false, Message: message})
}

// Paginated writes a 200 response wrapping a page of items.
func Paginated[T any](c *gin.Context, message string, items []T, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    domain.NewPaginatedResult(items, total, page, limit),
	})
}

// Error maps an application error onto the HTTP status and envelope.
// Unclassified errors are treated as internal failures and rendered
// without detail.
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.NewInternalError(err)
	}
	c.JSON(statusFor(appErr.Code), Envelope{Success: false, Message: appErr.Message})
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
