package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetsync/internal/fleet/domain"
	sharedlogger "fleetsync/internal/shared/logger"
)

var _ domain.Cache = (*RedisCache)(nil)

// DefaultNamespace prefixes cache keys when none is configured.
const DefaultNamespace = "fleetsync"

// SnapshotKey returns the key of the "all entities" view inside namespace.
// Deployments sharing one Redis keep apart by using distinct namespaces.
func SnapshotKey(namespace string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":entities:all"
}

// RedisCache stores the snapshot in an external Redis. Any Redis failure is
// logged and reported to callers as a miss.
type RedisCache struct {
	client  redis.Cmdable
	key     string
	timeout time.Duration
	logger  sharedlogger.Logger
}

// cachedEntity is the wire form of an entity inside the cache value.
type cachedEntity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisCache creates a cache backed by client under namespace. Every call
// is bounded by timeout.
func NewRedisCache(client redis.Cmdable, logger sharedlogger.Logger, namespace string, timeout time.Duration) *RedisCache {
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	return &RedisCache{
		client:  client,
		key:     SnapshotKey(namespace),
		timeout: timeout,
		logger:  logger,
	}
}

func (c *RedisCache) Get(ctx context.Context) (domain.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Cache unavailable, falling through to store", "op", "get", "err", err)
		return nil, false
	}

	var cached []cachedEntity
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", "key", c.key, "err", err)
		return nil, false
	}

	snapshot := make(domain.Snapshot, len(cached))
	for i, e := range cached {
		snapshot[i] = domain.Entity{
			ID:        e.ID,
			Name:      e.Name,
			Position:  domain.Position{Lat: e.Lat, Lon: e.Lon},
			Status:    domain.Status(e.Status),
			UpdatedAt: e.UpdatedAt,
		}
	}
	return snapshot, true
}

func (c *RedisCache) Set(ctx context.Context, snapshot domain.Snapshot, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	cached := make([]cachedEntity, len(snapshot))
	for i, e := range snapshot {
		cached[i] = cachedEntity{
			ID:        e.ID,
			Name:      e.Name,
			Status:    string(e.Status),
			Lat:       e.Position.Lat,
			Lon:       e.Position.Lon,
			UpdatedAt: e.UpdatedAt,
		}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		c.logger.Error("Failed to encode cache entry", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		c.logger.Warn("Cache unavailable, snapshot not stored", "op", "set", "err", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.logger.Warn("Cache unavailable, invalidation not applied", "op", "del", "err", err)
	}
}
