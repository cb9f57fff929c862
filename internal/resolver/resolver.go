// Package resolver maps login identifiers onto stored accounts. An
// identifier is either an email address or a username; emails are
// normalized before any lookup so the same address always hits the same
// document.
package resolver

import (
	"context"
	"strings"

	"github.com/ledgerly/account-service/internal/domain"
	"github.com/ledgerly/account-service/internal/repository"
)

// Resolver resolves identifiers against the account store.
type Resolver struct {
	repo repository.UserRepository
}

// New creates a resolver backed by the given repository.
func New(repo repository.UserRepository) *Resolver {
	return &Resolver{repo: repo}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEmail reports whether the identifier looks like an email address.
// Usernames cannot contain "@", so the check is unambiguous.
func IsEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// Resolve finds the account whose email or username matches identifier,
// with credential material included. Identifiers that look like emails are
// normalized first.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if IsEmail(identifier) {
		identifier = NormalizeEmail(identifier)
	}
	return r.repo.GetByIdentifier(ctx, identifier)
}

// Conflict reports which of email or username is already claimed by another
// account. Returns "" when both are available.
func (r *Resolver) Conflict(ctx context.Context, email, username string) (string, error) {
	return r.repo.FindConflict(ctx, NormalizeEmail(email), strings.TrimSpace(username))
}
