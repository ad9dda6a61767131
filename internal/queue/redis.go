// Package queue hands thumbnail jobs to the worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultName is the list thumbnail jobs are pushed onto.
const DefaultName = "fileQueue"

type pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisQueue appends JSON encoded jobs to a Redis list
type RedisQueue struct {
	client pusher
	closer func() error
	name   string
}

// NewRedisQueue connects to the Redis server at addr
func NewRedisQueue(addr, password string, db int, name string) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	q := newRedisQueue(client, name)
	q.closer = client.Close
	return q
}

func newRedisQueue(client pusher, name string) *RedisQueue {
	if name == "" {
		name = DefaultName
	}
	return &RedisQueue{client: client, name: name}
}

// Enqueue pushes job onto the list
func (q *RedisQueue) Enqueue(ctx context.Context, job files.ThumbnailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	if err := q.client.RPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("%w: failed to push job: %w", files.ErrUpstream, err)
	}

	log.Debug().Str("queue", q.name).Str("file_id", job.FileID).Msg("Thumbnail job queued")
	return nil
}

// Close releases the client
func (q *RedisQueue) Close() error {
	if q.closer == nil {
		return nil
	}
	return q.closer()
}

// Discard drops every job. It is used when no worker is deployed.
type Discard struct{}

// Enqueue logs and drops job
func (Discard) Enqueue(ctx context.Context, job files.ThumbnailJob) error {
	log.Debug().Str("file_id", job.FileID).Msg("Thumbnail job discarded")
	return nil
}

// Close does nothing
func (Discard) Close() error {
	return nil
}
