// Package cache stores aggregated viewer responses in redis so repeated
// requests for the same event and options skip the rebuild.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
)

// KeyPrefix is prepended to every cache key
const KeyPrefix = "grosbeak:viewer:"

// ErrCacheMiss is returned when no view is cached for the key
var ErrCacheMiss = errors.New("cache miss")

//go:generate mockgen -destination=mocks/mock_cache.go -package=mocks -source=cache.go ViewCache

// ViewCache caches aggregated views by event and build options
type ViewCache interface {
	// Get returns the cached view or ErrCacheMiss
	Get(ctx context.Context, eventKey string, opts aggregate.Options) (aggregate.View, error)

	// Set caches a view for the configured TTL
	Set(ctx context.Context, eventKey string, opts aggregate.Options, view aggregate.View) error

	// Invalidate drops every cached view of an event
	Invalidate(ctx context.Context, eventKey string) error

	// Close releases the connection
	Close() error
}

// RedisCache implements ViewCache on go-redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ViewCache = (*RedisCache)(nil)

// NewRedisCache connects to the redis server at url (e.g. "redis://localhost:6379/0")
// and verifies the connection.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("View cache connected", "addr", opts.Addr, "ttl", ttl)
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Key returns the cache key for an event and options. Options that select
// the same view produce the same key regardless of set iteration order.
func Key(eventKey string, opts aggregate.Options) string {
	canonical := struct {
		UseStrings                  bool     `json:"use_strings"`
		IgnoredCollections          []string `json:"ignored_collections"`
		IgnoredStringifyFields      []string `json:"itsd"`
		IgnoredStringifyCollections []string `json:"itsc"`
	}{
		UseStrings:                  opts.UseStrings,
		IgnoredCollections:          sortedSet(opts.IgnoredCollections),
		IgnoredStringifyFields:      sortedSet(opts.IgnoredStringifyFields),
		IgnoredStringifyCollections: sortedSet(opts.IgnoredStringifyCollections),
	}
	// marshalling a struct of bools and string slices cannot fail
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return KeyPrefix + eventKey + ":" + hex.EncodeToString(sum[:])
}

func sortedSet(s aggregate.Set) []string {
	return slices.Sorted(maps.Keys(s))
}

// Get returns the cached view or ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, eventKey string, opts aggregate.Options) (aggregate.View, error) {
	data, err := c.client.Get(ctx, Key(eventKey, opts)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached view: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var view aggregate.View
	if err := dec.Decode(&view); err != nil {
		return nil, fmt.Errorf("failed to decode cached view: %w", err)
	}
	return view, nil
}

// Set caches a view for the configured TTL
func (c *RedisCache) Set(ctx context.Context, eventKey string, opts aggregate.Options, view aggregate.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	if err := c.client.Set(ctx, Key(eventKey, opts), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache view: %w", err)
	}
	return nil
}

// Invalidate drops every cached view of an event
func (c *RedisCache) Invalidate(ctx context.Context, eventKey string) error {
	pattern := KeyPrefix + strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`).Replace(eventKey) + ":*"

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached views: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to drop cached views: %w", err)
	}
	slog.Debug("Invalidated cached views", "event", eventKey, "count", len(keys))
	return nil
}

// Close releases the connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
