package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ledgerly/account-service/internal/domain"
	apperrors "github.com/ledgerly/account-service/pkg/errors"
)

const usersCollection = "users"

// publicProjection excludes credential and session material from reads that
// don't need it.
var publicProjection = bson.M{
	"password_hash":        0,
	"refresh_token":        0,
	"password_reset_token": 0,
}

// UserRepository implements repository.UserRepository using MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

// NewUserRepository creates a MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes the repository relies on. Email is
// always present; username and google_id are optional, so their indexes are
// sparse to keep absent values from colliding.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyConflict(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID, excluding credential material.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(publicProjection))
}

// GetByIdentifier retrieves an account whose email or username matches,
// including the password hash and refresh token for credential checks.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": identifier},
		bson.M{"username": identifier},
	}}
	return r.findOne(ctx, filter, options.FindOne())
}

// GetByEmail retrieves an account by email, including the stored reset token.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne())
}

// GetByGoogleID retrieves an account by Google subject ID.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"google_id": googleID}, options.FindOne().SetProjection(publicProjection))
}

// GetByIDWithSession retrieves an account by ID including its refresh token.
func (r *UserRepository) GetByIDWithSession(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, options.FindOne())
}

// FindConflict reports which of email or username is already taken.
func (r *UserRepository) FindConflict(ctx context.Context, email, username string) (string, error) {
	or := bson.A{bson.M{"email": email}}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}

	var u domain.User
	opts := options.FindOne().SetProjection(bson.M{"email": 1, "username": 1})
	err := r.col.FindOne(ctx, bson.M{"$or": or}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find conflict: %w", err)
	}

	if u.Email == email {
		return "email", nil
	}
	return "username", nil
}

// SetRefreshToken replaces the account's stored refresh token; empty clears
// it. The caller already holds a verified identity, so an acknowledged write
// that matched no account is an internal failure, not a missing resource.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	var update bson.M
	if token == "" {
		update = bson.M{
			"$unset": bson.M{"refresh_token": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{
			"$set": bson.M{"refresh_token": token, "updated_at": time.Now().UTC()},
		}
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update refresh_token: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.Internal(fmt.Errorf("refresh token write matched no account %s", userID))
	}
	return nil
}

// SetPasswordResetToken replaces the account's stored reset token.
func (r *UserRepository) SetPasswordResetToken(ctx context.Context, userID, token string) error {
	return r.setField(ctx, userID, "password_reset_token", token)
}

// UpdatePassword sets a new hash and invalidates the outstanding reset token
// and any live session in the same write.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{
			"password_reset_token": "",
			"refresh_token":        "",
		},
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// LinkGoogleID attaches a Google subject ID to an existing account.
func (r *UserRepository) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	return r.setField(ctx, userID, "google_id", googleID)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.User, error) {
	var u domain.User
	err := r.col.FindOne(ctx, filter, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) setField(ctx context.Context, userID, field, value string) error {
	var update bson.M
	if value == "" {
		update = bson.M{
			"$unset": bson.M{field: ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{
			"$set": bson.M{field: value, "updated_at": time.Now().UTC()},
		}
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyConflict(err)
		}
		return fmt.Errorf("update %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// duplicateKeyConflict maps a Mongo duplicate key error (code 11000) to a
// conflict naming the offending field where it can be read off the message.
func duplicateKeyConflict(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return apperrors.Conflict("Email is already in use")
	case strings.Contains(msg, "username"):
		return apperrors.Conflict("Username is already in use")
	case strings.Contains(msg, "google_id"):
		return apperrors.Conflict("Google account is already linked")
	default:
		return apperrors.Conflict("account already exists")
	}
}
