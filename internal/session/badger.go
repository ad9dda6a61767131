package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pavel-fokin/files-manager/internal/files"
)

// BadgerStore keeps sessions in an embedded Badger database. Keys expire
// through Badger's own TTL.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens the database at dir. An empty dir keeps everything in
// memory.
func OpenBadger(dir string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

// Resolve returns the user ID bound to token, or "" if the key is absent
func (s *BadgerStore) Resolve(ctx context.Context, token string) (string, error) {
	var userID []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key(token)))
		if err != nil {
			return err
		}
		userID, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read session: %w", files.ErrUpstream, err)
	}

	return string(userID), nil
}

// Create stores a fresh token for userID
func (s *BadgerStore) Create(ctx context.Context, userID files.ID) (string, error) {
	token := newToken()
	return token, s.put(token, userID.Hex(), s.ttl)
}

func (s *BadgerStore) put(token, userID string, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key(token)), []byte(userID)).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to write session: %w", files.ErrUpstream, err)
	}
	return nil
}

// Delete removes token
func (s *BadgerStore) Delete(ctx context.Context, token string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key(token)))
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete session: %w", files.ErrUpstream, err)
	}
	return nil
}

// Ping reports whether the database is open
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("%w: session database is closed", files.ErrUpstream)
	}
	return nil
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
