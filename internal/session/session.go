// Package session stores the token to user mapping issued at login.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pavel-fokin/files-manager/internal/files"
)

const (
	// KeyPrefix namespaces session keys in the cache.
	KeyPrefix = "auth_"

	// DefaultTTL is how long a session stays valid.
	DefaultTTL = 24 * time.Hour
)

// Store issues, resolves and revokes session tokens
type Store interface {
	files.SessionStore

	// Create issues a new token for userID
	Create(ctx context.Context, userID files.ID) (string, error)

	// Delete revokes token
	Delete(ctx context.Context, token string) error

	Close() error
}

func key(token string) string {
	return KeyPrefix + token
}

func newToken() string {
	return uuid.NewString()
}
