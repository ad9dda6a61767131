package files

import "context"

// Repository defines the interface for file entry metadata persistence
type Repository interface {
	// Create validates and stores a new entry, assigning its ID
	Create(ctx context.Context, entry *Entry) error

	// FindByID retrieves an entry regardless of owner
	FindByID(ctx context.Context, id ID) (*Entry, error)

	// FindOwned retrieves an entry only if it belongs to userID
	FindOwned(ctx context.Context, id, userID ID) (*Entry, error)

	// ListByParent returns one page of the parent's children in insertion order
	ListByParent(ctx context.Context, parentID ID, page int) ([]*Entry, error)

	// SetPublic updates the visibility flag of an owned entry
	SetPublic(ctx context.Context, id, userID ID, public bool) (*Entry, error)

	// CountFiles returns the number of stored entries
	CountFiles(ctx context.Context) (int64, error)

	// Ping checks the connection to the store
	Ping(ctx context.Context) error
}

// UserStore defines the interface for account lookups
type UserStore interface {
	// FindUser retrieves a user by ID
	FindUser(ctx context.Context, id ID) (*User, error)

	// FindUserByEmail retrieves a user by email
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser stores a new user, assigning its ID
	CreateUser(ctx context.Context, user *User) error

	// CountUsers returns the number of stored users
	CountUsers(ctx context.Context) (int64, error)
}

// ContentStore defines the interface for the raw content storage
type ContentStore interface {
	// Write persists data under a generated name and returns its location
	Write(ctx context.Context, data []byte, name string) (string, error)

	// Read returns the content at localPath, or its size variant when size is set
	Read(ctx context.Context, localPath, size string) ([]byte, error)

	// Delete removes the content at localPath
	Delete(ctx context.Context, localPath string) error
}

// SessionStore resolves session tokens
type SessionStore interface {
	// Resolve returns the user ID bound to token, or "" when there is none
	Resolve(ctx context.Context, token string) (string, error)

	// Ping checks the connection to the cache
	Ping(ctx context.Context) error
}

// Dispatcher hands thumbnail jobs to the worker queue
type Dispatcher interface {
	Enqueue(ctx context.Context, job ThumbnailJob) error
}
