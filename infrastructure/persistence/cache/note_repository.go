// Package cache provides a Redis read-through cache in front of a note
// repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maswada-backend/application/ports"
	"maswada-backend/domain/note"
	"maswada-backend/infrastructure/observability"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long a cached note can be served.
const DefaultTTL = 5 * time.Minute

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NoteRepository caches single-note lookups. Lists always go to the inner
// repository. Cache failures are logged and never fail a request.
type NoteRepository struct {
	inner     ports.NoteRepository
	client    *redis.Client
	ttl       time.Duration
	prefix    string
	logger    *zap.Logger
	collector *observability.Collector
}

// NewNoteRepository wraps inner. A zero ttl selects DefaultTTL; collector may be nil.
func NewNoteRepository(inner ports.NoteRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger, collector *observability.Collector) *NoteRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteRepository{
		inner:     inner,
		client:    client,
		ttl:       ttl,
		prefix:    "note:",
		logger:    logger,
		collector: collector,
	}
}

func (r *NoteRepository) key(id, ownerID string) string {
	return r.prefix + ownerID + ":" + id
}

func (r *NoteRepository) hit() {
	if r.collector != nil {
		r.collector.CacheHits.Inc()
	}
}

func (r *NoteRepository) miss() {
	if r.collector != nil {
		r.collector.CacheMisses.Inc()
	}
}

func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*note.Note, error) {
	return r.inner.ListByOwner(ctx, ownerID)
}

// GetByIDAndOwner serves from Redis when possible and fills it on a miss.
func (r *NoteRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*note.Note, error) {
	key := r.key(id, ownerID)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached note.Note
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			r.hit()
			return &cached, nil
		}
		r.logger.Warn("Discarding unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	r.miss()

	n, err := r.inner.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(n); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return n, nil
}

// GetByIDAndOwnerDirect skips Redis entirely, for reads that precede a write.
func (r *NoteRepository) GetByIDAndOwnerDirect(ctx context.Context, id, ownerID string) (*note.Note, error) {
	return r.inner.GetByIDAndOwner(ctx, id, ownerID)
}

func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	return r.inner.Create(ctx, n)
}

// Update writes through and drops the cached copy.
func (r *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	if err := r.inner.Update(ctx, n); err != nil {
		return err
	}
	r.invalidate(ctx, n.ID, n.OwnerID)
	return nil
}

// Delete removes the note and its cached copy.
func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := r.inner.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	r.invalidate(ctx, id, ownerID)
	return nil
}

func (r *NoteRepository) invalidate(ctx context.Context, id, ownerID string) {
	key := r.key(id, ownerID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

// Ping checks the inner store only; the cache is optional.
func (r *NoteRepository) Ping(ctx context.Context) error {
	if hc, ok := r.inner.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
