package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pavel-fokin/files-manager/internal/files"
)

// Storage implements files.ContentStore using the filesystem
type Storage struct {
	dataDir string
}

// NewStorage creates a new filesystem storage
func NewStorage(dataDir string) *Storage {
	return &Storage{
		dataDir: dataDir,
	}
}

// Write stores data under a fresh UUID and returns the file path. The
// user supplied name is not part of the path.
func (s *Storage) Write(ctx context.Context, data []byte, name string) (string, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create data directory: %w", files.ErrStorage, err)
	}

	filePath := filepath.Join(s.dataDir, uuid.NewString())

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create file: %w", files.ErrStorage, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		// Clean up file if write fails
		os.Remove(filePath)
		return "", fmt.Errorf("%w: failed to write file content: %w", files.ErrStorage, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("%w: failed to close file: %w", files.ErrStorage, err)
	}

	return filePath, nil
}

// Read returns the content at localPath. A non-empty size selects the
// variant stored next to it as <localPath>_<size>.
func (s *Storage) Read(ctx context.Context, localPath, size string) ([]byte, error) {
	if size != "" {
		localPath = localPath + "_" + size
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, files.ErrContentNotFound
		}
		return nil, fmt.Errorf("%w: failed to read file: %w", files.ErrStorage, err)
	}

	return data, nil
}

// Delete removes the content at localPath
func (s *Storage) Delete(ctx context.Context, localPath string) error {
	if err := os.Remove(localPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // File already deleted
		}
		return fmt.Errorf("%w: failed to delete file: %w", files.ErrStorage, err)
	}

	return nil
}
