package files

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UploadRequest represents a file upload request. A ParentID of "0" means
// root; anything else must name an existing folder.
type UploadRequest struct {
	Name     string `validate:"required"`
	Type     Type   `validate:"required,oneof=folder file image"`
	Data     string `validate:"required_unless=Type folder"`
	ParentID string
	IsPublic bool
}

// uploadErrors maps request fields to the error reported when they fail.
var uploadErrors = map[string]*ValidationError{
	"Name": {Field: "name", Message: "Missing name"},
	"Type": {Field: "type", Message: "Missing type"},
	"Data": {Field: "data", Message: "Missing data"},
}

// Validate reports the first missing or malformed field.
func (r *UploadRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		if verr, ok := uploadErrors[errs[0].StructField()]; ok {
			return &ValidationError{Field: verr.Field, Message: verr.Message}
		}
	}
	return err
}

// decodeData decodes the base64 payload of a non-folder upload.
func (r *UploadRequest) decodeData() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, &ValidationError{Field: "data", Message: "Invalid data"}
	}
	return data, nil
}

// CheckParent verifies that parentID is root or an existing folder.
func CheckParent(ctx context.Context, repo Repository, parentID ID) error {
	if parentID.IsZero() {
		return nil
	}

	parent, err := repo.FindByID(ctx, parentID)
	if errors.Is(err, ErrNotFound) {
		return &ValidationError{Field: "parentId", Message: "Parent not found"}
	}
	if err != nil {
		return err
	}

	if parent.Type != TypeFolder {
		return &ValidationError{Field: "parentId", Message: "Parent is not a folder"}
	}
	return nil
}
