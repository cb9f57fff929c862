package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerly/account-service/internal/config"
	"github.com/ledgerly/account-service/internal/domain"
	"github.com/ledgerly/account-service/internal/event"
	"github.com/ledgerly/account-service/internal/mail"
	"github.com/ledgerly/account-service/internal/oauth"
	"github.com/ledgerly/account-service/internal/repository"
	"github.com/ledgerly/account-service/internal/resolver"
	"github.com/ledgerly/account-service/internal/token"
	apperrors "github.com/ledgerly/account-service/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// AuthService implements the account and session business logic.
type AuthService struct {
	repo     repository.UserRepository
	resolver *resolver.Resolver
	tokens   *token.Manager
	mailer   mail.Mailer
	producer *event.Producer
	cfg      *config.Config
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	repo repository.UserRepository,
	res *resolver.Resolver,
	tokens *token.Manager,
	mailer mail.Mailer,
	producer *event.Producer,
	cfg *config.Config,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		repo:     repo,
		resolver: res,
		tokens:   tokens,
		mailer:   mailer,
		producer: producer,
		cfg:      cfg,
		logger:   logger,
	}
}

// SignUpInput holds the parameters for registering a new account.
type SignUpInput struct {
	Email        string
	Username     string
	Password     string
	Role         string
	DisplayName  string
	BusinessName string
	Address      string
	PhoneNumber  string
}

// LoginInput holds the parameters for logging in. Identifier is an email
// address or a username.
type LoginInput struct {
	Identifier string
	Password   string
}

// SignUp registers a new account and opens a session for it.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*domain.User, *domain.TokenPair, error) {
	email := resolver.NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, nil, apperrors.InvalidInput("invalid role")
	}
	// The admin role is reserved for allow-listed emails.
	if role == domain.RoleAdmin && !s.cfg.AdminAllowed(email) {
		return nil, nil, apperrors.Forbidden("You are not allowed to sign up as admin")
	}

	// Report which field collides before attempting the insert; the unique
	// indexes still back this up under concurrent sign-ups.
	field, err := s.resolver.Conflict(ctx, email, username)
	if err != nil {
		return nil, nil, fmt.Errorf("check sign-up conflict: %w", err)
	}
	switch field {
	case "email":
		return nil, nil, apperrors.Conflict("Email is already in use")
	case "username":
		return nil, nil, apperrors.Conflict("Username is already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
		DisplayName:  input.DisplayName,
		BusinessName: input.BusinessName,
		Address:      input.Address,
		PhoneNumber:  input.PhoneNumber,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishAccountRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login authenticates an account by email or username. All credential
// failures return the same generic message so callers cannot probe which
// identifiers exist.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	user, err := s.resolver.Resolve(ctx, input.Identifier)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("Invalid email or password")
	}

	// Google-only accounts have no password hash; they fail the same way.
	if user.PasswordHash == "" {
		return nil, nil, apperrors.Unauthorized("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("Invalid email or password")
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "account logged in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

// Logout closes the account's session by clearing its stored refresh token.
// Logging out an account with no live session succeeds.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user ID is required")
	}

	if err := s.repo.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged out",
		slog.String("user_id", userID),
	)

	return nil
}

// Refresh verifies a refresh token against the stored session and reissues
// an access token. The refresh token itself is not rotated; it stays valid
// until logout or its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.Unauthorized("refresh token is required")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.repo.GetByIDWithSession(ctx, claims.UserID)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	// The presented token must byte-match the single stored session token;
	// a token that verified but was superseded by a newer login is dead.
	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "access token reissued",
		slog.String("user_id", user.ID),
	)

	return accessToken, nil
}

// GoogleSignIn logs in or provisions an account from a verified Google
// profile. Matching prefers the Google subject ID; an existing account with
// the same email gets the Google identity linked; otherwise a new
// password-less account is created.
func (s *AuthService) GoogleSignIn(ctx context.Context, profile *oauth.Profile) (*domain.User, *domain.TokenPair, error) {
	email := resolver.NormalizeEmail(profile.Email)

	user, err := s.repo.GetByGoogleID(ctx, profile.Subject)
	switch {
	case err == nil:
		// Known Google identity.

	case apperrors.HTTPStatus(err) == 404:
		user, err = s.linkOrCreate(ctx, profile, email)
		if err != nil {
			return nil, nil, err
		}

	default:
		return nil, nil, fmt.Errorf("lookup google identity: %w", err)
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "google sign-in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

func (s *AuthService) linkOrCreate(ctx context.Context, profile *oauth.Profile, email string) (*domain.User, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		if err := s.repo.LinkGoogleID(ctx, existing.ID, profile.Subject); err != nil {
			return nil, fmt.Errorf("link google identity: %w", err)
		}
		existing.GoogleID = profile.Subject
		s.logger.InfoContext(ctx, "google identity linked",
			slog.String("user_id", existing.ID),
		)
		return existing, nil
	}
	if apperrors.HTTPStatus(err) != 404 {
		return nil, fmt.Errorf("lookup account by email: %w", err)
	}

	user := &domain.User{
		ID:          uuid.New().String(),
		Email:       email,
		GoogleID:    profile.Subject,
		Role:        domain.RoleUser,
		DisplayName: profile.DisplayName,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create google account: %w", err)
	}

	if err := s.producer.PublishAccountRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "google account created",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// ForgotPassword issues a reset token for the account and mails the reset
// link. Unknown emails are reported as not found.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = resolver.NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.HTTPStatus(err) == 404 {
			return apperrors.NotFound("No account found with that email")
		}
		return fmt.Errorf("lookup account for reset: %w", err)
	}

	resetToken, err := s.tokens.GenerateResetToken(user.Email)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	// The mailer returns the provider's message ID; anything short of an
	// accepted message is a hard failure so the caller knows no email went
	// out. The token is persisted only after delivery is confirmed.
	messageID, err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURL(resetToken))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return apperrors.Internal(fmt.Errorf("send password reset email: %w", err))
	}

	if err := s.repo.SetPasswordResetToken(ctx, user.ID, resetToken); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
		slog.String("message_id", messageID),
	)

	return nil
}

// ResetPassword completes a password reset. The token must verify as a
// reset token and the account must still have an outstanding reset request;
// completing the reset invalidates both the reset token and any live session.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return apperrors.InvalidInput("reset token is required")
	}

	claims, err := s.tokens.VerifyResetToken(resetToken)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}
	if claims.Email == "" {
		return apperrors.InvalidInput("reset token is missing the account email")
	}

	user, err := s.repo.GetByEmail(ctx, claims.Email)
	if err != nil {
		if apperrors.HTTPStatus(err) == 404 {
			return apperrors.NotFound("No account found with that email")
		}
		return fmt.Errorf("lookup account for reset: %w", err)
	}

	if user.PasswordResetToken == "" {
		return apperrors.InvalidInput("no outstanding password reset request")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Publish reset event (non-blocking on failure).
	if err := s.producer.PublishAccountPasswordReset(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.password_reset event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	// Confirmation mail is best effort; the reset already succeeded.
	if _, err := s.mailer.SendPasswordChanged(ctx, user.Email); err != nil {
		s.logger.WarnContext(ctx, "failed to send password changed email",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// --- Helpers ---

// openSession issues a token pair and stores the refresh token as the
// account's single live session, replacing any previous one.
func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) resetURL(resetToken string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, url.QueryEscape(resetToken))
}
