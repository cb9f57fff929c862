package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCredentials(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"password only", User{PasswordHash: "$2a$10$x"}, true},
		{"google only", User{GoogleID: "sub-123"}, true},
		{"both", User{PasswordHash: "$2a$10$x", GoogleID: "sub-123"}, true},
		{"neither", User{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasCredentials())
		})
	}
}

func TestUserJSONHidesSecrets(t *testing.T) {
	u := User{
		ID:                 "u-1",
		Email:              "alice@example.com",
		PasswordHash:       "$2a$10$secret",
		GoogleID:           "sub-123",
		RefreshToken:       "refresh.jwt",
		PasswordResetToken: "reset.jwt",
	}

	raw, err := json.Marshal(u)
	assert.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "alice@example.com")
	assert.NotContains(t, s, "secret")
	assert.NotContains(t, s, "refresh.jwt")
	assert.NotContains(t, s, "reset.jwt")
	assert.NotContains(t, s, "sub-123")
}

func TestTokenPairJSONHidesRefreshToken(t *testing.T) {
	raw, err := json.Marshal(TokenPair{AccessToken: "access.jwt", RefreshToken: "refresh.jwt"})
	assert.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "access.jwt")
	assert.NotContains(t, s, "refresh.jwt")
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole(""))
}
