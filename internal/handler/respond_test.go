package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"fileshare-service/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrForbidden, http.StatusForbidden},
		{apperr.ErrExpired, http.StatusForbidden},
		{apperr.ErrViewOnly, http.StatusForbidden},
		{apperr.ErrDuplicateName, http.StatusBadRequest},
		{apperr.ErrInvalidRecipients, http.StatusBadRequest},
		{apperr.ErrNotAUserShare, http.StatusBadRequest},
		{apperr.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "error %v", tc.err)
	}

	// Wrapped errors still map through errors.Is.
	wrapped := fmt.Errorf("loading share: %w", apperr.ErrExpired)
	assert.Equal(t, http.StatusForbidden, statusFor(wrapped))
}
