package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerly/account-service/internal/config"
	"github.com/ledgerly/account-service/internal/service"
	"github.com/ledgerly/account-service/internal/token"
	"github.com/ledgerly/account-service/pkg/health"
	"github.com/ledgerly/account-service/pkg/middleware"
)

// NewRouter creates a chi router with all account service routes registered.
// google may be nil, in which case the Google sign-in routes are not mounted.
func NewRouter(
	authService *service.AuthService,
	tokens *token.Manager,
	google GoogleExchanger,
	healthHandler *health.Handler,
	limiter *middleware.IPRateLimiter,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins, Environment: cfg.Environment}))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("account"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, google, cfg.Environment, cfg.FrontendURL, cfg.RefreshTTL, logger)

	// Token validator that bridges to the internal token manager.
	tokenValidator := func(raw string) (*middleware.Claims, error) {
		claims, err := tokens.VerifyAccessToken(raw)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	// Public auth endpoints, rate limited per client IP.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(limiter.Handler())

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/sign-up", authHandler.SignUp)
			r.Post("/login", authHandler.Login)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		r.Get("/refresh-token", authHandler.Refresh)

		if google != nil {
			r.Get("/google", authHandler.GoogleRedirect)
			r.Get("/google/callback", authHandler.GoogleCallback)
		}

		// Logout needs the caller's identity from a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Delete("/logout", authHandler.Logout)
		})
	})

	return r
}
