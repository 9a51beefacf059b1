package validator

import (
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_RegisterRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    models.RegisterRequest
		fields map[string][]string
	}{
		{
			name: "valid",
			req:  models.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret"},
		},
		{
			name:   "missing everything",
			req:    models.RegisterRequest{},
			fields: map[string][]string{"name": {"The name field is required."}, "email": {"The email field is required."}, "password": {"The password field is required."}},
		},
		{
			name:   "malformed email and short password",
			req:    models.RegisterRequest{Name: "Ann", Email: "not-an-email", Password: "12345"},
			fields: map[string][]string{"email": {"The email field must be a valid email address."}, "password": {"The password field must be at least 6 characters."}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			v, ok := errs.AsValidation(err)
			require.True(t, ok, "expected a ValidationError, got %v", err)
			assert.Equal(t, tt.fields, v.Fields)
		})
	}
}

func TestStruct_UpdateTodoRequestNilFields(t *testing.T) {
	assert.NoError(t, Struct(&models.UpdateTodoRequest{}))
}
