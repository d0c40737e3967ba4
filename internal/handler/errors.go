package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/service"
)

// statusFor maps service error kinds to HTTP statuses. The zero value means
// the error is internal and its message must not reach the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrPaymentProvider):
		return http.StatusBadGateway
	}
	return 0
}

func respondError(c *gin.Context, err error) {
	if status := statusFor(err); status != 0 {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	slog.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bindJSON decodes the body and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}
