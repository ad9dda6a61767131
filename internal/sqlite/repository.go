package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavel-fokin/files-manager/internal/files"
	_ "modernc.org/sqlite"
)

// Repository implements files.Repository and files.UserStore using SQLite
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer, and every ":memory:" connection would
	// otherwise see its own database.
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}

	// Initialize database schema
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// initSchema creates the necessary database tables
func (r *Repository) initSchema() error {
	createTablesQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS files (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		is_public INTEGER NOT NULL DEFAULT 0,
		parent_id TEXT NOT NULL,
		local_path TEXT
	);`
	if _, err := r.db.Exec(createTablesQuery); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	createIndexesQuery := `
	CREATE INDEX IF NOT EXISTS idx_files_parent_id ON files(parent_id, seq);
	CREATE INDEX IF NOT EXISTS idx_files_user_id ON files(user_id);
	`
	if _, err := r.db.Exec(createIndexesQuery); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// parentKey is the stored form of a parent reference; root is "0".
func parentKey(id files.ID) string {
	if id.IsZero() {
		return "0"
	}
	return id.Hex()
}

const selectFile = `SELECT id, user_id, name, type, is_public, parent_id, local_path FROM files`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*files.Entry, error) {
	var entry files.Entry
	var id, userID, parentID, kind string
	var localPath sql.NullString

	if err := row.Scan(&id, &userID, &entry.Name, &kind, &entry.IsPublic, &parentID, &localPath); err != nil {
		return nil, err
	}

	var err error
	if entry.ID, err = files.ParseID(id); err != nil {
		return nil, err
	}
	if entry.UserID, err = files.ParseID(userID); err != nil {
		return nil, err
	}
	if entry.ParentID, err = files.ParseParentID(parentID); err != nil {
		return nil, err
	}
	entry.Type = files.Type(kind)
	if localPath.Valid {
		entry.LocalPath = localPath.String
	}

	return &entry, nil
}

// Create stores a new entry after checking its invariants
func (r *Repository) Create(ctx context.Context, entry *files.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := files.CheckParent(ctx, r, entry.ParentID); err != nil {
		return err
	}

	if entry.ID.IsZero() {
		entry.ID = files.NewID()
	}

	var localPath sql.NullString
	if entry.LocalPath != "" {
		localPath = sql.NullString{String: entry.LocalPath, Valid: true}
	}

	query := `
	INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID.Hex(),
		entry.UserID.Hex(),
		entry.Name,
		string(entry.Type),
		entry.IsPublic,
		parentKey(entry.ParentID),
		localPath,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to create file record: %w", files.ErrUpstream, err)
	}

	return nil
}

// FindByID retrieves an entry by ID
func (r *Repository) FindByID(ctx context.Context, id files.ID) (*files.Entry, error) {
	row := r.db.QueryRowContext(ctx, selectFile+` WHERE id = ?`, id.Hex())
	return r.findOne(row)
}

// FindOwned retrieves an entry by ID and owner
func (r *Repository) FindOwned(ctx context.Context, id, userID files.ID) (*files.Entry, error) {
	row := r.db.QueryRowContext(ctx, selectFile+` WHERE id = ? AND user_id = ?`, id.Hex(), userID.Hex())
	return r.findOne(row)
}

func (r *Repository) findOne(row *sql.Row) (*files.Entry, error) {
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, files.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find file: %w", files.ErrUpstream, err)
	}
	return entry, nil
}

// ListByParent retrieves one page of children of parentID
func (r *Repository) ListByParent(ctx context.Context, parentID files.ID, page int) ([]*files.Entry, error) {
	offset, ok := files.PageOffset(page)
	if !ok {
		return []*files.Entry{}, nil
	}

	query := selectFile + `
	WHERE parent_id = ?
	ORDER BY seq
	LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, parentKey(parentID), files.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query files: %w", files.ErrUpstream, err)
	}
	defer rows.Close()

	entries := []*files.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating file rows: %w", files.ErrUpstream, err)
	}

	return entries, nil
}

// SetPublic updates the visibility of an entry owned by userID
func (r *Repository) SetPublic(ctx context.Context, id, userID files.ID, public bool) (*files.Entry, error) {
	query := `UPDATE files SET is_public = ? WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, public, id.Hex(), userID.Hex())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update file record: %w", files.ErrUpstream, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, files.ErrNotFound
	}

	return r.FindOwned(ctx, id, userID)
}

// CountFiles returns the number of entries
func (r *Repository) CountFiles(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM files`)
}

// CountUsers returns the number of users
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *Repository) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count: %w", files.ErrUpstream, err)
	}
	return n, nil
}

// CreateUser stores a new user
func (r *Repository) CreateUser(ctx context.Context, user *files.User) error {
	if user.ID.IsZero() {
		user.ID = files.NewID()
	}

	query := `INSERT INTO users (id, email, password) VALUES (?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, user.ID.Hex(), user.Email, user.PasswordHash); err != nil {
		return fmt.Errorf("%w: failed to create user record: %w", files.ErrUpstream, err)
	}

	return nil
}

// FindUser retrieves a user by ID
func (r *Repository) FindUser(ctx context.Context, id files.ID) (*files.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, password FROM users WHERE id = ?`, id.Hex())
	return r.findUser(row)
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*files.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, password FROM users WHERE email = ?`, email)
	return r.findUser(row)
}

func (r *Repository) findUser(row *sql.Row) (*files.User, error) {
	var (
		user files.User
		id   string
	)

	if err := row.Scan(&id, &user.Email, &user.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, files.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find user: %w", files.ErrUpstream, err)
	}

	userID, err := files.ParseID(id)
	if err != nil {
		return nil, err
	}
	user.ID = userID

	return &user, nil
}
