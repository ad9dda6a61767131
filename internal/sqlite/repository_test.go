package sqlite

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func createUser(t *testing.T, repo *Repository, email string) *files.User {
	t.Helper()

	user := &files.User{Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	owner := createUser(t, repo, "bob@dylan.com")

	folder := &files.Entry{UserID: owner.ID, Name: "docs", Type: files.TypeFolder}
	require.NoError(t, repo.Create(ctx, folder))
	assert.False(t, folder.ID.IsZero())

	file := &files.Entry{
		UserID:    owner.ID,
		Name:      "a.txt",
		Type:      files.TypeFile,
		ParentID:  folder.ID,
		LocalPath: "/tmp/files_manager/abc",
	}
	require.NoError(t, repo.Create(ctx, file))

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, file, found)
	})

	t.Run("folder has no local path", func(t *testing.T) {
		found, err := repo.FindByID(ctx, folder.ID)
		require.NoError(t, err)
		assert.Empty(t, found.LocalPath)
		assert.True(t, found.IsRoot())
	})

	t.Run("owned", func(t *testing.T) {
		found, err := repo.FindOwned(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, file.ID, found.ID)
	})

	t.Run("owned by someone else", func(t *testing.T) {
		_, err := repo.FindOwned(ctx, file.ID, files.NewID())
		assert.ErrorIs(t, err, files.ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.FindByID(ctx, files.NewID())
		assert.ErrorIs(t, err, files.ErrNotFound)
	})
}

func TestRepository_CreateChecksParent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	owner := createUser(t, repo, "bob@dylan.com")

	file := &files.Entry{UserID: owner.ID, Name: "a.txt", Type: files.TypeFile, LocalPath: "/x"}
	require.NoError(t, repo.Create(ctx, file))

	tests := []struct {
		name     string
		parentID files.ID
		message  string
	}{
		{"missing parent", files.NewID(), "Parent not found"},
		{"parent is a file", file.ID, "Parent is not a folder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &files.Entry{UserID: owner.ID, Name: "b", Type: files.TypeFolder, ParentID: tt.parentID}
			err := repo.Create(ctx, entry)

			var verr *files.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
		})
	}

	count, err := repo.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_CreateRejectsInvalidEntry(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	err := repo.Create(ctx, &files.Entry{UserID: files.NewID(), Name: "a.txt", Type: files.TypeFile})

	var verr *files.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Missing data", verr.Message)
}

func TestRepository_ListByParent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	owner := createUser(t, repo, "bob@dylan.com")

	folder := &files.Entry{UserID: owner.ID, Name: "big", Type: files.TypeFolder}
	require.NoError(t, repo.Create(ctx, folder))

	var names []string
	for i := 0; i < 45; i++ {
		name := fmt.Sprintf("file-%02d", i)
		names = append(names, name)
		require.NoError(t, repo.Create(ctx, &files.Entry{
			UserID:    owner.ID,
			Name:      name,
			Type:      files.TypeFile,
			ParentID:  folder.ID,
			LocalPath: "/tmp/" + name,
		}))
	}

	pages := [][]string{names[0:20], names[20:40], names[40:45], {}}
	for page, want := range pages {
		t.Run(fmt.Sprintf("page %d", page), func(t *testing.T) {
			entries, err := repo.ListByParent(ctx, folder.ID, page)
			require.NoError(t, err)
			require.NotNil(t, entries)

			got := make([]string, 0, len(entries))
			for _, entry := range entries {
				got = append(got, entry.Name)
			}
			assert.Equal(t, want, got)
		})
	}

	t.Run("page beyond the offset range", func(t *testing.T) {
		entries, err := repo.ListByParent(ctx, folder.ID, math.MaxInt/files.PageSize+1)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("root", func(t *testing.T) {
		entries, err := repo.ListByParent(ctx, files.RootID, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, folder.ID, entries[0].ID)
	})
}

func TestRepository_SetPublic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	owner := createUser(t, repo, "bob@dylan.com")
	other := createUser(t, repo, "joan@baez.com")

	file := &files.Entry{UserID: owner.ID, Name: "a.txt", Type: files.TypeFile, LocalPath: "/x"}
	require.NoError(t, repo.Create(ctx, file))

	t.Run("owner publishes", func(t *testing.T) {
		updated, err := repo.SetPublic(ctx, file.ID, owner.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)
	})

	t.Run("other user cannot unpublish", func(t *testing.T) {
		_, err := repo.SetPublic(ctx, file.ID, other.ID, false)
		assert.ErrorIs(t, err, files.ErrNotFound)

		found, err := repo.FindByID(ctx, file.ID)
		require.NoError(t, err)
		assert.True(t, found.IsPublic)
	})

	t.Run("owner unpublishes", func(t *testing.T) {
		updated, err := repo.SetPublic(ctx, file.ID, owner.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.IsPublic)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := repo.SetPublic(ctx, files.NewID(), owner.ID, true)
		assert.ErrorIs(t, err, files.ErrNotFound)
	})
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	user := createUser(t, repo, "bob@dylan.com")
	assert.False(t, user.ID.IsZero())

	found, err := repo.FindUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, found)

	byEmail, err := repo.FindUserByEmail(ctx, "bob@dylan.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindUser(ctx, files.NewID())
	assert.ErrorIs(t, err, files.ErrNotFound)

	err = repo.CreateUser(ctx, &files.User{Email: "bob@dylan.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, files.ErrUpstream)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_Ping(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
