package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-api/internal/model"
	"user-management-api/pkg/apierror"
)

func TestValidatorCheck(t *testing.T) {
	v := NewValidator()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.Check(model.RegisterRequest{FullName: "Ada", Email: "a@b.com", Password: "secret123"}))
	})

	t.Run("field messages use json names", func(t *testing.T) {
		err := v.Check(model.RegisterRequest{Email: "nope", Password: "short"})

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.HTTPStatus)
		assert.Equal(t, []string{"full_name is required."}, apiErr.Fields["full_name"])
		assert.Equal(t, []string{"email must be a valid email address."}, apiErr.Fields["email"])
		assert.Equal(t, []string{"password must be at least 8 characters long."}, apiErr.Fields["password"])
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		err := v.Check(model.ResetPasswordRequest{Password: "secret123", ConfirmPassword: "secret124"})

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, []string{"Password confirmation does not match."}, apiErr.Fields["confirm_password"])
		assert.NotContains(t, apiErr.Fields, "password")
	})
}

func TestUniqueFieldError(t *testing.T) {
	err := uniqueFieldError("email")
	assert.Equal(t, []string{"email has already been taken."}, err.Fields["email"])
}
