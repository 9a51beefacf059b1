package response

import (
	"ctchen222/Todo-Tracker/internal/api/errs"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{errs.FieldError("title", "The title field is required."), http.StatusUnprocessableEntity, "The title field is required."},
		{fmt.Errorf("register: %w", errs.EmailTaken()), http.StatusUnprocessableEntity, "The email has already been taken."},
		{errs.ErrInvalidCredentials, http.StatusUnauthorized, "The provided credentials are incorrect."},
		{errs.ErrUnauthorized, http.StatusUnauthorized, "Unauthenticated."},
		{errs.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{fmt.Errorf("lookup: %w", errs.ErrNotFound), http.StatusNotFound, "Not Found"},
		{errors.New("sql: connection refused on 10.0.0.3"), http.StatusInternalServerError, "Server Error"},
	}
	for _, tt := range tests {
		status, body := StatusFor(tt.err)
		assert.Equal(t, tt.status, status, "status for %v", tt.err)
		assert.Equal(t, tt.message, body.Message, "message for %v", tt.err)
	}
}

func TestStatusFor_ValidationFields(t *testing.T) {
	_, body := StatusFor(errs.FieldError("email", "bad"))
	assert.Equal(t, map[string][]string{"email": {"bad"}}, body.Errors)

	_, body = StatusFor(errs.ErrForbidden)
	assert.Nil(t, body.Errors)
}
