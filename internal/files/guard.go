package files

import (
	"context"
	"errors"
	"fmt"
)

// Guard resolves who is making a request and whether they may see an entry.
// Identity resolution and resource authorization are separate steps.
type Guard struct {
	sessions SessionStore
	users    UserStore
}

// NewGuard creates a new access guard
func NewGuard(sessions SessionStore, users UserStore) *Guard {
	return &Guard{
		sessions: sessions,
		users:    users,
	}
}

// Authenticate maps a session token to the user ID it was issued for.
func (g *Guard) Authenticate(ctx context.Context, token string) (ID, error) {
	if token == "" {
		return RootID, ErrInvalidSession
	}

	raw, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return RootID, fmt.Errorf("failed to resolve session: %w", err)
	}
	if raw == "" || !IsValidID(raw) {
		return RootID, ErrInvalidSession
	}

	return ParseID(raw)
}

// LookupUser checks that an authenticated user still exists.
func (g *Guard) LookupUser(ctx context.Context, userID ID) (*User, error) {
	user, err := g.users.FindUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// RequireUser authenticates the token and loads its user.
func (g *Guard) RequireUser(ctx context.Context, token string) (*User, error) {
	userID, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return g.LookupUser(ctx, userID)
}

// CanAccess reports whether userID may read the entry. Anonymous callers
// pass the zero ID and only see public entries.
func CanAccess(entry *Entry, userID ID) bool {
	if entry.IsPublic {
		return true
	}
	return !userID.IsZero() && entry.UserID == userID
}
