package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpForm struct {
	Email    string `validate:"required,email,min=5,max=100"`
	Username string `validate:"omitempty,min=3,max=50"`
	Password string `validate:"required,min=6"`
	Role     string `validate:"omitempty,oneof=user admin"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(signUpForm{
		Email:    "a@x.com",
		Username: "alice",
		Password: "secret1",
		Role:     "user",
	})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(signUpForm{Username: "alice"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Email"])
	assert.Equal(t, "is required", fields["Password"])
}

func TestValidate_BadEmail(t *testing.T) {
	err := Validate(signUpForm{Email: "not-an-email", Password: "secret1"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["Email"])
}

func TestValidate_MinLength(t *testing.T) {
	err := Validate(signUpForm{Email: "a@x.com", Username: "ab", Password: "secret1"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at least 3 characters", valErr.Fields()["Username"])
}

func TestValidate_OneOf(t *testing.T) {
	err := Validate(signUpForm{Email: "a@x.com", Password: "secret1", Role: "root"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Role"], "must be one of")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(signUpForm{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Email' is required")
}
