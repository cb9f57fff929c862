package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "account-service"

// ErrExpired is returned when a token parsed cleanly but is past its expiry.
// Every other parse or signature failure maps to ErrInvalid.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// AccessClaims represents the JWT claims for an access token.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims represents the JWT claims for a refresh token.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ResetClaims represents the JWT claims for a password reset token. Reset
// tokens identify the account by email rather than ID.
type ResetClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and verifies the three token classes. Each class is signed
// with a distinct secret, so a token of one class never verifies as another.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	resetSecret   []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
}

// NewManager creates a token manager from per-class secrets and lifetimes.
func NewManager(accessSecret, refreshSecret, resetSecret string, accessTTL, refreshTTL, resetTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		resetSecret:   []byte(resetSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      resetTTL,
	}
}

// GenerateAccessToken creates a signed access token carrying userID, email, and role.
func (m *Manager) GenerateAccessToken(userID, email, role string) (string, error) {
	now := time.Now().UTC()
	claims := &AccessClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			Issuer:    issuer,
		},
	}
	return m.sign(claims, m.accessSecret, "access")
}

// GenerateRefreshToken creates a signed refresh token carrying only the userID.
func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := &RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			Issuer:    issuer,
		},
	}
	return m.sign(claims, m.refreshSecret, "refresh")
}

// GenerateResetToken creates a signed, short-lived password reset token
// identifying the account by email.
func (m *Manager) GenerateResetToken(email string) (string, error) {
	now := time.Now().UTC()
	claims := &ResetClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.resetTTL)),
			Issuer:    issuer,
		},
	}
	return m.sign(claims, m.resetSecret, "reset")
}

func (m *Manager) sign(claims jwt.Claims, secret []byte, class string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", class, err)
	}
	return signed, nil
}

// VerifyAccessToken parses and validates an access token, returning the claims.
func (m *Manager) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.verify(tokenString, claims, m.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token, returning the claims.
func (m *Manager) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.verify(tokenString, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyResetToken parses and validates a password reset token, returning the claims.
func (m *Manager) VerifyResetToken(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := m.verify(tokenString, claims, m.resetSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalid
	}
	if !token.Valid {
		return ErrInvalid
	}
	return nil
}
