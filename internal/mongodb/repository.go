package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/rs/zerolog/log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	filesCollection = "files"
)

// Repository implements files.Repository and files.UserStore using MongoDB
type Repository struct {
	database *mongo.Database
	files    *mongo.Collection
	users    *mongo.Collection
}

// Connect opens a client for uri and returns a repository on database
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to mongodb: %w", files.ErrUpstream, err)
	}

	return New(client.Database(database)), nil
}

// New creates a new MongoDB repository with the given database
func New(database *mongo.Database) *Repository {
	repo := &Repository{
		database: database,
		files:    database.Collection(filesCollection),
		users:    database.Collection(usersCollection),
	}
	repo.ensureIndexes()
	return repo
}

// ensureIndexes creates the indexes listing and login rely on
func (r *Repository) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.files.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes for files")
	}

	_, err = r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes for users")
	}
}

// Close disconnects the underlying client
func (r *Repository) Close(ctx context.Context) error {
	return r.database.Client().Disconnect(ctx)
}

// Ping checks the connection to the primary
func (r *Repository) Ping(ctx context.Context) error {
	return r.database.Client().Ping(ctx, readpref.Primary())
}

// fileDocument is the stored shape of an entry. Top-level entries keep
// parentId as the number 0.
type fileDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"userId"`
	Name      string             `bson:"name"`
	Type      string             `bson:"type"`
	IsPublic  bool               `bson:"isPublic"`
	ParentID  interface{}        `bson:"parentId"`
	LocalPath string             `bson:"localPath,omitempty"`
}

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
}

func parentValue(id files.ID) interface{} {
	if id.IsZero() {
		return 0
	}
	return id
}

func parentFromValue(v interface{}) (files.ID, error) {
	switch p := v.(type) {
	case nil:
		return files.RootID, nil
	case primitive.ObjectID:
		return p, nil
	case string:
		return files.ParseParentID(p)
	case int32:
		if p == 0 {
			return files.RootID, nil
		}
	case int64:
		if p == 0 {
			return files.RootID, nil
		}
	case float64:
		if p == 0 {
			return files.RootID, nil
		}
	}
	return files.RootID, fmt.Errorf("unexpected parentId %v", v)
}

func fromEntry(entry *files.Entry) fileDocument {
	return fileDocument{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Name:      entry.Name,
		Type:      string(entry.Type),
		IsPublic:  entry.IsPublic,
		ParentID:  parentValue(entry.ParentID),
		LocalPath: entry.LocalPath,
	}
}

func (d *fileDocument) toEntry() (*files.Entry, error) {
	parentID, err := parentFromValue(d.ParentID)
	if err != nil {
		return nil, err
	}

	return &files.Entry{
		ID:        d.ID,
		UserID:    d.UserID,
		Name:      d.Name,
		Type:      files.Type(d.Type),
		ParentID:  parentID,
		IsPublic:  d.IsPublic,
		LocalPath: d.LocalPath,
	}, nil
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

	if _, err := r.files.InsertOne(ctx, fromEntry(entry)); err != nil {
		return fmt.Errorf("%w: failed to insert file: %w", files.ErrUpstream, err)
	}

	return nil
}

// FindByID retrieves an entry by ID
func (r *Repository) FindByID(ctx context.Context, id files.ID) (*files.Entry, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindOwned retrieves an entry by ID and owner
func (r *Repository) FindOwned(ctx context.Context, id, userID files.ID) (*files.Entry, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*files.Entry, error) {
	var doc fileDocument
	if err := r.files.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, files.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find file: %w", files.ErrUpstream, err)
	}
	return doc.toEntry()
}

// ListByParent retrieves one page of children of parentID
func (r *Repository) ListByParent(ctx context.Context, parentID files.ID, page int) ([]*files.Entry, error) {
	offset, ok := files.PageOffset(page)
	if !ok {
		return []*files.Entry{}, nil
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(files.PageSize)

	cursor, err := r.files.Find(ctx, bson.M{"parentId": parentValue(parentID)}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find files: %w", files.ErrUpstream, err)
	}
	defer cursor.Close(ctx)

	var docs []fileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: failed to decode files: %w", files.ErrUpstream, err)
	}

	entries := make([]*files.Entry, 0, len(docs))
	for i := range docs {
		entry, err := docs[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// SetPublic updates the visibility of an entry owned by userID
func (r *Repository) SetPublic(ctx context.Context, id, userID files.ID, public bool) (*files.Entry, error) {
	filter := bson.M{"_id": id, "userId": userID}
	update := bson.M{"$set": bson.M{"isPublic": public}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc fileDocument
	if err := r.files.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, files.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to update file: %w", files.ErrUpstream, err)
	}

	return doc.toEntry()
}

// CountFiles returns the number of entries
func (r *Repository) CountFiles(ctx context.Context) (int64, error) {
	n, err := r.files.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count files: %w", files.ErrUpstream, err)
	}
	return n, nil
}

// CountUsers returns the number of users
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count users: %w", files.ErrUpstream, err)
	}
	return n, nil
}

// CreateUser stores a new user
func (r *Repository) CreateUser(ctx context.Context, user *files.User) error {
	if user.ID.IsZero() {
		user.ID = files.NewID()
	}

	doc := userDocument{ID: user.ID, Email: user.Email, Password: user.PasswordHash}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: failed to insert user: %w", files.ErrUpstream, err)
	}

	return nil
}

// FindUser retrieves a user by ID
func (r *Repository) FindUser(ctx context.Context, id files.ID) (*files.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*files.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

func (r *Repository) findUser(ctx context.Context, filter bson.M) (*files.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, files.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find user: %w", files.ErrUpstream, err)
	}

	return &files.User{ID: doc.ID, Email: doc.Email, PasswordHash: doc.Password}, nil
}
