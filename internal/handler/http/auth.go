package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ledgerly/account-service/internal/oauth"
	"github.com/ledgerly/account-service/internal/service"
	"github.com/ledgerly/account-service/pkg/middleware"
	"github.com/ledgerly/account-service/pkg/validator"
)

const oauthStateCookieName = "oauthState"

// GoogleExchanger is the part of the Google provider the handler needs.
// Separate from oauth.GoogleProvider so tests can substitute a fake.
type GoogleExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Profile, error)
}

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service     *service.AuthService
	google      GoogleExchanger
	environment string
	frontendURL string
	refreshTTL  time.Duration
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. google may be nil when the
// OAuth routes are not mounted.
func NewAuthHandler(
	svc *service.AuthService,
	google GoogleExchanger,
	environment, frontendURL string,
	refreshTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		google:      google,
		environment: environment,
		frontendURL: frontendURL,
		refreshTTL:  refreshTTL,
		logger:      logger,
	}
}

// --- Request DTOs ---

// SignUpRequest is the JSON request body for account registration.
type SignUpRequest struct {
	Email        string `json:"email" validate:"required,email,min=5,max=100"`
	Username     string `json:"username" validate:"omitempty,min=3,max=50"`
	Password     string `json:"password" validate:"required,min=6"`
	Role         string `json:"role" validate:"omitempty,oneof=user admin"`
	DisplayName  string `json:"display_name" validate:"omitempty,max=100"`
	BusinessName string `json:"business_name" validate:"omitempty,max=100"`
	Address      string `json:"address" validate:"omitempty,max=200"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,max=15"`
}

// LoginRequest is the JSON request body for login. Identifier is an email
// address or a username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the JSON request body for forgot password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the JSON request body for password reset. The
// reset token itself travels in the query string.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// --- Response types ---

// AuthResponse wraps account data with the access token. The refresh token
// travels only in the http-only session cookie.
type AuthResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token"`
}

// --- Handlers ---

// SignUp handles POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	input := service.SignUpInput{
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		Role:         req.Role,
		DisplayName:  req.DisplayName,
		BusinessName: req.BusinessName,
		Address:      req.Address,
		PhoneNumber:  req.PhoneNumber,
	}

	user, tokens, err := h.service.SignUp(r.Context(), input)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken, h.refreshTTL)
	writeJSON(w, http.StatusCreated, response{
		Data: AuthResponse{User: user, AccessToken: tokens.AccessToken},
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken, h.refreshTTL)
	writeJSON(w, http.StatusOK, response{
		Data: AuthResponse{User: user, AccessToken: tokens.AccessToken},
	})
}

// Logout handles DELETE /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "user identity is required"},
		})
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"message": "logged out successfully"},
	})
}

// Refresh handles GET /api/v1/auth/refresh-token. The refresh token is read
// from the session cookie and only a new access token is issued.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "refresh token is required"},
		})
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"access_token": accessToken},
	})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"message": "a password reset link has been sent"},
	})
}

// ResetPassword handles POST /api/v1/auth/reset-password?token=...
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	resetToken := r.URL.Query().Get("token")
	if resetToken == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "reset token is required"},
		})
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), resetToken, req.Password); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"message": "password has been reset successfully"},
	})
}

// GoogleRedirect handles GET /api/v1/auth/google. It drops a short-lived
// state cookie and sends the client to Google's consent screen.
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/api/v1/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.environment != "development",
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback handles GET /api/v1/auth/google/callback. On success the
// session cookie is set and the client is sent back to the frontend.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "OAuth state mismatch"},
		})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "authorization code is required"},
		})
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "google code exchange failed",
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "Google sign-in failed"},
		})
		return
	}

	_, tokens, err := h.service.GoogleSignIn(r.Context(), profile)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken, h.refreshTTL)
	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
