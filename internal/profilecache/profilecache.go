// Package profilecache caches assignee profiles in Redis so enrichment
// does not hit the user table on every board refresh.
package profilecache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// DefaultPrefix namespaces profile keys.
const DefaultPrefix = "taskboard:user:"

// Cache stores task.User values keyed by user id.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  Stats
}

// Stats counts cache traffic.
type Stats struct {
	Hits   atomic.Uint64
	Misses atomic.Uint64
	Sets   atomic.Uint64
	Errors atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Sets   uint64 `json:"sets"`
	Errors uint64 `json:"errors"`
}

// Open connects to the Redis server at url (redis://host:port/db).
func Open(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, DefaultPrefix, ttl), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// GetMany returns the cached profiles among ids and the ids that missed.
func (c *Cache) GetMany(ctx context.Context, ids []string) (map[string]task.User, []string, error) {
	if len(ids) == 0 {
		return map[string]task.User{}, nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.prefix + id
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.stats.Errors.Add(1)
		return nil, ids, fmt.Errorf("cache mget: %w", err)
	}

	found := make(map[string]task.User, len(ids))
	var missing []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var u task.User
		if err := json.Unmarshal([]byte(s), &u); err != nil {
			c.stats.Errors.Add(1)
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = u
	}
	c.stats.Hits.Add(uint64(len(found)))
	c.stats.Misses.Add(uint64(len(missing)))
	return found, missing, nil
}

// SetMany stores users in one pipeline.
func (c *Cache) SetMany(ctx context.Context, users []task.User) error {
	if len(users) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range users {
			data, err := json.Marshal(u)
			if err != nil {
				return fmt.Errorf("cache marshal: %w", err)
			}
			pipe.Set(ctx, c.prefix+u.ID, data, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.stats.Errors.Add(1)
		return fmt.Errorf("cache set: %w", err)
	}
	c.stats.Sets.Add(uint64(len(users)))
	return nil
}

// Invalidate drops the cached profile for id.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		c.stats.Errors.Add(1)
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Stats returns the current counters.
func (c *Cache) Stats() StatsSnapshot {
	return StatsSnapshot{
		Hits:   c.stats.Hits.Load(),
		Misses: c.stats.Misses.Load(),
		Sets:   c.stats.Sets.Load(),
		Errors: c.stats.Errors.Load(),
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
