package files

import (
	"encoding/json"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the number of entries returned per listing page.
const PageSize = 20

// PageOffset returns the number of entries to skip for page. ok is false
// when page is negative or the offset does not fit in an int.
func PageOffset(page int) (offset int, ok bool) {
	if page < 0 || page > math.MaxInt/PageSize {
		return 0, false
	}
	return page * PageSize, true
}

// ID identifies users and file entries. It is a MongoDB ObjectID in every
// metadata backend and travels as a 24 character hex string.
type ID = primitive.ObjectID

// RootID is the parent of top-level entries. It is rendered as 0.
var RootID = primitive.NilObjectID

// NewID returns a fresh identifier.
func NewID() ID {
	return primitive.NewObjectID()
}

// ParseID converts a hex string into an ID.
func ParseID(s string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return RootID, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

// IsValidID reports whether s is a well-formed identifier.
func IsValidID(s string) bool {
	return primitive.IsValidObjectID(s)
}

// ParseParentID parses a parent reference. Only the literal "0" means root;
// every other value must be a valid identifier.
func ParseParentID(s string) (ID, error) {
	if s == "0" {
		return RootID, nil
	}
	return ParseID(s)
}

// Type is the kind of a file entry.
type Type string

const (
	TypeFolder Type = "folder"
	TypeFile   Type = "file"
	TypeImage  Type = "image"
)

// Valid reports whether t is one of the known entry types.
func (t Type) Valid() bool {
	switch t {
	case TypeFolder, TypeFile, TypeImage:
		return true
	}
	return false
}

// HasContent reports whether entries of this type carry bytes.
func (t Type) HasContent() bool {
	return t == TypeFile || t == TypeImage
}

// Entry represents the metadata of a stored file, image or folder
type Entry struct {
	ID        ID
	UserID    ID
	Name      string
	Type      Type
	ParentID  ID
	IsPublic  bool
	LocalPath string
}

// IsRoot reports whether the entry lives at the top level.
func (e *Entry) IsRoot() bool {
	return e.ParentID.IsZero()
}

// Validate checks the invariants every stored entry must hold.
func (e *Entry) Validate() error {
	if e.Name == "" {
		return &ValidationError{Field: "name", Message: "Missing name"}
	}
	if !e.Type.Valid() {
		return &ValidationError{Field: "type", Message: "Missing type"}
	}
	if e.UserID.IsZero() {
		return &ValidationError{Field: "userId", Message: "Missing owner"}
	}
	if e.Type == TypeFolder && e.LocalPath != "" {
		return &ValidationError{Field: "localPath", Message: "A folder doesn't have content"}
	}
	if e.Type.HasContent() && e.LocalPath == "" {
		return &ValidationError{Field: "data", Message: "Missing data"}
	}
	return nil
}

// entryView is the public projection of an entry. The local path never
// leaves the service.
type entryView struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID any    `json:"parentId"`
}

// MarshalJSON renders the public projection of the entry.
func (e *Entry) MarshalJSON() ([]byte, error) {
	var parent any = 0
	if !e.IsRoot() {
		parent = e.ParentID.Hex()
	}
	return json.Marshal(entryView{
		ID:       e.ID.Hex(),
		UserID:   e.UserID.Hex(),
		Name:     e.Name,
		Type:     e.Type,
		IsPublic: e.IsPublic,
		ParentID: parent,
	})
}

// User is the read-only view of an account owned by the authentication
// subsystem.
type User struct {
	ID           ID
	Email        string
	PasswordHash string
}

// ThumbnailJob asks the worker to render size variants of an image. The
// zero value is the empty job sent for anonymous image uploads.
type ThumbnailJob struct {
	FileID string `json:"fileId,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// Stats holds document counts.
type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

// Status reports backend liveness.
type Status struct {
	Redis bool `json:"redis"`
	DB    bool `json:"db"`
}
