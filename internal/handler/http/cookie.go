package http

import (
	"net/http"
	"time"
)

const refreshCookieName = "refreshToken"

// setRefreshCookie stores the refresh token in an HTTP-only cookie scoped to
// the whole API. Secure is dropped only in development so local HTTP works.
func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.environment != "development",
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh token cookie.
func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.environment != "development",
		SameSite: http.SameSiteStrictMode,
	})
}
