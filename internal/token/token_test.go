package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(
		"access-secret-for-tests",
		"refresh-secret-for-tests",
		"reset-secret-for-tests",
		30*time.Minute,
		168*time.Hour,
		15*time.Minute,
	)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	signed, err := m.GenerateAccessToken("u-1", "alice@example.com", "admin")
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "account-service", claims.Issuer)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	signed, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	claims, err := m.VerifyRefreshToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestResetTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	signed, err := m.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	claims, err := m.VerifyResetToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
}

// A token signed for one class must never verify as another: the classes use
// distinct secrets.
func TestClassIsolation(t *testing.T) {
	m := newTestManager()

	access, err := m.GenerateAccessToken("u-1", "alice@example.com", "user")
	require.NoError(t, err)
	refresh, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)
	reset, err := m.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = m.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = m.VerifyAccessToken(reset)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = m.VerifyResetToken(refresh)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestExpiredToken(t *testing.T) {
	m := NewManager(
		"access-secret-for-tests",
		"refresh-secret-for-tests",
		"reset-secret-for-tests",
		-1*time.Minute,
		-1*time.Minute,
		-1*time.Minute,
	)

	signed, err := m.GenerateAccessToken("u-1", "alice@example.com", "user")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, ErrExpired)

	reset, err := m.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	_, err = m.VerifyResetToken(reset)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestGarbageToken(t *testing.T) {
	m := newTestManager()

	_, err := m.VerifyAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = m.VerifyRefreshToken("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTamperedSignature(t *testing.T) {
	m := newTestManager()
	other := NewManager("a-completely-different-secret", "b", "c", time.Hour, time.Hour, time.Hour)

	signed, err := other.GenerateAccessToken("u-1", "alice@example.com", "user")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}
