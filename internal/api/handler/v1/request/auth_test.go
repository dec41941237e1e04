package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignup() SignupRequest {
	return SignupRequest{
		Email:           "ada@example.com",
		Password:        "password1",
		ConfirmPassword: "password1",
		Name:            "Ada",
		Role:            "participant",
	}
}

func TestSignupRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := validSignup()
		require.NoError(t, req.Validate())
	})

	t.Run("role is optional", func(t *testing.T) {
		req := validSignup()
		req.Role = ""
		require.NoError(t, req.Validate())
	})

	t.Run("unknown role", func(t *testing.T) {
		req := validSignup()
		req.Role = "admin"
		require.Error(t, req.Validate())
	})

	t.Run("weak passwords", func(t *testing.T) {
		for _, password := range []string{"short1", "allletters", "12345678"} {
			req := validSignup()
			req.Password = password
			req.ConfirmPassword = password

			err := req.Validate()
			require.Error(t, err, password)
			assert.ErrorIs(t, err, errInvalidPassword)
		}
	})

	t.Run("confirm mismatch", func(t *testing.T) {
		req := validSignup()
		req.ConfirmPassword = "password2"
		require.ErrorIs(t, req.Validate(), errConfirmPasswordMismatch)
	})

	t.Run("invalid email", func(t *testing.T) {
		req := validSignup()
		req.Email = "not-an-email"
		require.Error(t, req.Validate())
	})
}
