package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabkeeper/tabkeeper/internal/auth"
	"github.com/tabkeeper/tabkeeper/internal/service"
	"github.com/tabkeeper/tabkeeper/internal/storage"
)

// statusFor maps service-layer errors onto HTTP status codes. Anything not
// recognized, including a settlement invariant violation, is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoParticipants),
		errors.Is(err, service.ErrNegativeAmount),
		errors.Is(err, service.ErrUnbalancedExpense),
		errors.Is(err, service.ErrUnknownMember),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(c.Error(err))
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
