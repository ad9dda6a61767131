package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "files_manager")
	storage := NewStorage(dataDir)

	localPath, err := storage.Write(ctx, []byte("hello"), "a.txt")
	require.NoError(t, err)

	assert.Equal(t, dataDir, filepath.Dir(localPath))
	assert.NotContains(t, filepath.Base(localPath), "a.txt")
	assert.FileExists(t, localPath)

	data, err := storage.Read(ctx, localPath, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestStorage_WriteGeneratesDistinctNames(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage(t.TempDir())

	first, err := storage.Write(ctx, []byte("one"), "same.txt")
	require.NoError(t, err)
	second, err := storage.Write(ctx, []byte("two"), "same.txt")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStorage_ReadVariant(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage(t.TempDir())

	localPath, err := storage.Write(ctx, []byte("original"), "img.png")
	require.NoError(t, err)

	t.Run("missing variant", func(t *testing.T) {
		_, err := storage.Read(ctx, localPath, "250")
		assert.ErrorIs(t, err, files.ErrContentNotFound)
		assert.ErrorIs(t, err, files.ErrNotFound)
	})

	t.Run("existing variant", func(t *testing.T) {
		require.NoError(t, os.WriteFile(localPath+"_250", []byte("thumb"), 0644))

		data, err := storage.Read(ctx, localPath, "250")
		require.NoError(t, err)
		assert.Equal(t, []byte("thumb"), data)
	})
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage(t.TempDir())

	localPath, err := storage.Write(ctx, []byte("bye"), "bye.txt")
	require.NoError(t, err)

	require.NoError(t, storage.Delete(ctx, localPath))
	assert.NoFileExists(t, localPath)

	_, err = storage.Read(ctx, localPath, "")
	assert.ErrorIs(t, err, files.ErrContentNotFound)

	// Deleting twice is not an error
	assert.NoError(t, storage.Delete(ctx, localPath))
}

func TestStorage_WriteFailsOnUnwritableRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(root, []byte("not a dir"), 0644))

	storage := NewStorage(root)
	_, err := storage.Write(context.Background(), []byte("x"), "x.txt")
	assert.ErrorIs(t, err, files.ErrStorage)
}
