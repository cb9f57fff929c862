package repository

import (
	"context"

	"github.com/ledgerly/account-service/internal/domain"
)

// UserRepository defines the interface for account persistence operations.
// Methods that read accounts exclude the password hash, refresh token, and
// reset token unless documented otherwise.
type UserRepository interface {
	// Create inserts a new account into the store. Returns a conflict
	// error when the email or username is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves an account by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIdentifier retrieves an account whose email or username equals
	// identifier, including the password hash and stored refresh token so
	// the caller can verify credentials.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// GetByEmail retrieves an account by email, including the stored
	// password reset token.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByGoogleID retrieves an account by its Google subject ID.
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)

	// GetByIDWithSession retrieves an account by ID including the stored
	// refresh token.
	GetByIDWithSession(ctx context.Context, id string) (*domain.User, error)

	// FindConflict reports which of email or username is already taken.
	// Returns ("", nil) when both are free.
	FindConflict(ctx context.Context, email, username string) (string, error)

	// SetRefreshToken replaces the account's stored refresh token. An
	// empty token clears it.
	SetRefreshToken(ctx context.Context, userID, token string) error

	// SetPasswordResetToken replaces the account's stored reset token.
	SetPasswordResetToken(ctx context.Context, userID, token string) error

	// UpdatePassword sets a new password hash and clears the stored reset
	// and refresh tokens in the same write.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// LinkGoogleID attaches a Google subject ID to an existing account.
	LinkGoogleID(ctx context.Context, userID, googleID string) error
}
