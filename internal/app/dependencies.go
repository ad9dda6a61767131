// Package app wires the configured backends into the file service.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/pavel-fokin/files-manager/internal/config"
	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/pavel-fokin/files-manager/internal/fs"
	"github.com/pavel-fokin/files-manager/internal/mongodb"
	"github.com/pavel-fokin/files-manager/internal/queue"
	"github.com/pavel-fokin/files-manager/internal/s3store"
	"github.com/pavel-fokin/files-manager/internal/session"
	"github.com/pavel-fokin/files-manager/internal/sqlite"
	"github.com/rs/zerolog/log"
)

// MetadataStore persists entries and users
type MetadataStore interface {
	files.Repository
	files.UserStore
}

type dispatcher interface {
	files.Dispatcher
	Close() error
}

// Dependencies holds every handle the commands need
type Dependencies struct {
	Service  *files.Service
	Metadata MetadataStore
	Sessions session.Store
	Content  files.ContentStore

	closers []func() error
}

// Build opens the backends selected by cfg. Close releases them.
func Build(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log.Info().
		Str("metadata", cfg.Metadata).
		Str("sessions", cfg.Sessions).
		Str("queue", cfg.Queue).
		Str("content", cfg.Content).
		Msg("Building dependencies")

	deps := &Dependencies{}

	metadata, err := deps.openMetadata(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Metadata = metadata

	sessions, err := openSessions(cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Sessions = sessions
	deps.closers = append(deps.closers, sessions.Close)

	jobs, err := openQueue(cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.closers = append(deps.closers, jobs.Close)

	content, err := openContent(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Content = content

	deps.Service = files.NewService(files.ServiceDependencies{
		Repository:     metadata,
		Users:          metadata,
		Content:        content,
		Dispatcher:     jobs,
		Sessions:       sessions,
		ThumbnailSizes: cfg.ThumbnailSizes,
	})

	return deps, nil
}

// Close releases the backends in reverse order of opening
func (d *Dependencies) Close() error {
	var errs []error
	for _, closeFn := range slices.Backward(d.closers) {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func (d *Dependencies) openMetadata(ctx context.Context, cfg *config.Config) (MetadataStore, error) {
	switch cfg.Metadata {
	case "mongo":
		repo, err := mongodb.Connect(ctx, cfg.MongoURI(), cfg.DBDatabase)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() error {
			return repo.Close(context.Background())
		})
		return repo, nil
	case "sqlite":
		repo, err := sqlite.NewRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, repo.Close)
		return repo, nil
	}
	return nil, fmt.Errorf("unknown metadata backend %q", cfg.Metadata)
}

func openSessions(cfg *config.Config) (session.Store, error) {
	switch cfg.Sessions {
	case "redis":
		return session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL), nil
	case "badger":
		return session.OpenBadger(cfg.BadgerPath, cfg.SessionTTL)
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Sessions)
}

func openQueue(cfg *config.Config) (dispatcher, error) {
	switch cfg.Queue {
	case "redis":
		return queue.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QueueName), nil
	case "discard":
		return queue.Discard{}, nil
	}
	return nil, fmt.Errorf("unknown queue backend %q", cfg.Queue)
}

func openContent(ctx context.Context, cfg *config.Config) (files.ContentStore, error) {
	switch cfg.Content {
	case "fs":
		return fs.NewStorage(cfg.FolderPath), nil
	case "s3":
		return s3store.New(ctx, s3store.Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	}
	return nil, fmt.Errorf("unknown content backend %q", cfg.Content)
}
