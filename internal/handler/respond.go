package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fileshare-service/internal/apperr"
)

// statusFor maps the service error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden),
		errors.Is(err, apperr.ErrExpired),
		errors.Is(err, apperr.ErrViewOnly):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrDuplicateName),
		errors.Is(err, apperr.ErrInvalidRecipients),
		errors.Is(err, apperr.ErrNotAUserShare):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"message": msg})
}
