package domain

import (
	"time"
)

// User represents a registered account. Local accounts carry a password
// hash, Google-only accounts carry a Google subject ID; an account always
// has at least one of the two.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Username     string    `json:"username,omitempty" bson:"username,omitempty"`
	GoogleID     string    `json:"-" bson:"google_id,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	Role         string    `json:"role" bson:"role"`
	DisplayName  string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	BusinessName string    `json:"business_name,omitempty" bson:"business_name,omitempty"`
	Address      string    `json:"address,omitempty" bson:"address,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`

	// Session and reset state. At most one refresh token is live per
	// account; it is overwritten, never appended. Both fields are excluded
	// from default repository reads and must be requested explicitly.
	RefreshToken       string `json:"-" bson:"refresh_token,omitempty"`
	PasswordResetToken string `json:"-" bson:"password_reset_token,omitempty"`
}

// HasCredentials reports whether the account can authenticate at all.
func (u *User) HasCredentials() bool {
	return u.PasswordHash != "" || u.GoogleID != ""
}

// TokenPair holds an access and refresh token pair. The refresh token is
// delivered only through the session cookie, never in a response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
}
