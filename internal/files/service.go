package files

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Service provides application-level file operations
type Service struct {
	repo     Repository
	users    UserStore
	content  ContentStore
	jobs     Dispatcher
	sessions SessionStore
	guard    *Guard
	sizes    map[string]bool
}

// ServiceDependencies holds the handles a Service is built from
type ServiceDependencies struct {
	Repository     Repository
	Users          UserStore
	Content        ContentStore
	Dispatcher     Dispatcher
	Sessions       SessionStore
	ThumbnailSizes []int
}

// NewService creates a new file service
func NewService(deps ServiceDependencies) *Service {
	sizes := make(map[string]bool, len(deps.ThumbnailSizes))
	for _, size := range deps.ThumbnailSizes {
		sizes[strconv.Itoa(size)] = true
	}

	return &Service{
		repo:     deps.Repository,
		users:    deps.Users,
		content:  deps.Content,
		jobs:     deps.Dispatcher,
		sessions: deps.Sessions,
		guard:    NewGuard(deps.Sessions, deps.Users),
		sizes:    sizes,
	}
}

// Upload stores a folder, file or image for the token's user
func (s *Service) Upload(ctx context.Context, token string, req *UploadRequest) (*Entry, error) {
	userID, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) && req.Type == TypeImage {
			// Anonymous image uploads still signal the worker pipeline with
			// an empty job before being rejected.
			if qerr := s.jobs.Enqueue(ctx, ThumbnailJob{}); qerr != nil {
				log.Warn().Err(qerr).Msg("Failed to queue empty thumbnail job")
			}
		}
		return nil, err
	}

	if _, err := s.guard.LookupUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	parentRef := req.ParentID
	if parentRef == "" {
		parentRef = "0"
	}
	parentID, err := ParseParentID(parentRef)
	if err != nil {
		return nil, &ValidationError{Field: "parentId", Message: "Parent not found"}
	}
	// Checked before any content is written; Create checks again.
	if err := CheckParent(ctx, s.repo, parentID); err != nil {
		return nil, err
	}

	entry := &Entry{
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		ParentID: parentID,
		IsPublic: req.IsPublic,
	}

	if entry.Type.HasContent() {
		data, err := req.decodeData()
		if err != nil {
			return nil, err
		}

		localPath, err := s.content.Write(ctx, data, req.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to save content: %w", err)
		}
		entry.LocalPath = localPath
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		// Clean up content if metadata save fails
		if entry.LocalPath != "" {
			if derr := s.content.Delete(ctx, entry.LocalPath); derr != nil {
				log.Error().Err(derr).Str("local_path", entry.LocalPath).Msg("Failed to remove orphaned content")
			}
		}
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}

	log.Info().
		Str("file_id", entry.ID.Hex()).
		Str("user_id", userID.Hex()).
		Str("type", string(entry.Type)).
		Msg("File uploaded")

	if entry.Type == TypeImage {
		job := ThumbnailJob{FileID: entry.ID.Hex(), UserID: userID.Hex()}
		if err := s.jobs.Enqueue(ctx, job); err != nil {
			return entry, &DispatchError{Entry: entry, Err: err}
		}
	}

	return entry, nil
}

// Show returns one entry owned by the token's user
func (s *Service) Show(ctx context.Context, token, id string) (*Entry, error) {
	user, err := s.guard.RequireUser(ctx, token)
	if err != nil {
		return nil, err
	}

	fileID, err := ParseID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	return s.repo.FindOwned(ctx, fileID, user.ID)
}

// Index lists one page of children of a folder. parentID "" or "0" means
// root; a parent that is missing or not a folder yields an empty list.
func (s *Service) Index(ctx context.Context, token, parentID string, page int) ([]*Entry, error) {
	if _, err := s.guard.RequireUser(ctx, token); err != nil {
		return nil, err
	}

	if parentID == "" {
		parentID = "0"
	}
	if page < 0 {
		page = 0
	}

	parent, err := ParseParentID(parentID)
	if err != nil {
		return nil, ErrInvalidParent
	}

	if !parent.IsZero() {
		folder, err := s.repo.FindByID(ctx, parent)
		if errors.Is(err, ErrNotFound) {
			return []*Entry{}, nil
		}
		if err != nil {
			return nil, err
		}
		if folder.Type != TypeFolder {
			return []*Entry{}, nil
		}
	}

	if _, ok := PageOffset(page); !ok {
		return []*Entry{}, nil
	}

	entries, err := s.repo.ListByParent(ctx, parent, page)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return entries, nil
}

// Publish makes an owned entry public
func (s *Service) Publish(ctx context.Context, token, id string) (*Entry, error) {
	return s.setPublic(ctx, token, id, true)
}

// Unpublish makes an owned entry private
func (s *Service) Unpublish(ctx context.Context, token, id string) (*Entry, error) {
	return s.setPublic(ctx, token, id, false)
}

func (s *Service) setPublic(ctx context.Context, token, id string, public bool) (*Entry, error) {
	user, err := s.guard.RequireUser(ctx, token)
	if err != nil {
		return nil, err
	}

	fileID, err := ParseID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	entry, err := s.repo.SetPublic(ctx, fileID, user.ID, public)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file_id", entry.ID.Hex()).
		Bool("is_public", public).
		Msg("File visibility changed")

	return entry, nil
}

// Content returns the bytes of a visible file or image. An empty token is
// allowed and only grants access to public entries.
func (s *Service) Content(ctx context.Context, token, id, size string) (*Entry, []byte, error) {
	userID, err := s.guard.Authenticate(ctx, token)
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		// Public entries stay readable while the session cache is down.
		log.Warn().Err(err).Msg("Session lookup failed, serving content anonymously")
		userID = RootID
	}

	fileID, err := ParseID(id)
	if err != nil {
		return nil, nil, ErrNotFound
	}

	entry, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !CanAccess(entry, userID) {
		return nil, nil, ErrNotFound
	}
	if entry.Type == TypeFolder {
		return nil, nil, ErrFolderHasNoContent
	}

	if size == "0" {
		size = ""
	}
	if size != "" && !s.sizes[size] {
		return nil, nil, ErrContentNotFound
	}

	data, err := s.content.Read(ctx, entry.LocalPath, size)
	if err != nil {
		return nil, nil, err
	}

	return entry, data, nil
}

// Stats counts users and files
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	files, err := s.repo.CountFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}

	return &Stats{Users: users, Files: files}, nil
}

// Status checks whether the cache and the document store respond
func (s *Service) Status(ctx context.Context) Status {
	return Status{
		Redis: s.sessions.Ping(ctx) == nil,
		DB:    s.repo.Ping(ctx) == nil,
	}
}
