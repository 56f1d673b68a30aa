package music

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fhsourav/sorcery/internal/lavalink"
)

const cacheOpTimeout = 2 * time.Second

// CachedResult is one resolvable autocomplete entry. Exactly one of Track and
// Playlist is set.
type CachedResult struct {
	Track    *lavalink.Track    `json:"track,omitempty"`
	Playlist *lavalink.Playlist `json:"playlist,omitempty"`
}

// SearchCache maps autocomplete display strings back to the tracks they stand
// for, keyed per guild and user. Each new query overwrites the user's previous
// results; entries expire after the TTL, and a guild's entries are dropped
// when its session disconnects.
//
// Backed by Redis when a client is available, an in-process map otherwise.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger

	mu    sync.Mutex
	local map[string]localEntry
}

type localEntry struct {
	entries map[string]CachedResult
	expires time.Time
}

func NewSearchCache(client *redis.Client, ttl time.Duration, log *logrus.Logger) *SearchCache {
	if log == nil {
		log = logrus.New()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &SearchCache{
		client: client,
		ttl:    ttl,
		log:    log,
		local:  make(map[string]localEntry),
	}
}

func cacheKey(guildID, userID string) string {
	return fmt.Sprintf("music:search:%s:%s", guildID, userID)
}

func guildIndexKey(guildID string) string {
	return fmt.Sprintf("music:search:index:%s", guildID)
}

// Save replaces the user's cached results with a fresh set.
func (c *SearchCache) Save(guildID, userID string, entries map[string]CachedResult) {
	if c.client == nil {
		c.mu.Lock()
		c.local[cacheKey(guildID, userID)] = localEntry{
			entries: entries,
			expires: time.Now().Add(c.ttl),
		}
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	key := cacheKey(guildID, userID)
	fields := make(map[string]interface{}, len(entries))
	for display, result := range entries {
		payload, err := json.Marshal(result)
		if err != nil {
			continue
		}
		fields[display] = payload
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, c.ttl)
	}
	pipe.SAdd(ctx, guildIndexKey(guildID), key)
	pipe.Expire(ctx, guildIndexKey(guildID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warnf("failed to cache search results: %v", err)
	}
}

// Resolve looks up one display string from the user's latest search.
func (c *SearchCache) Resolve(guildID, userID, display string) (CachedResult, bool) {
	if c.client == nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		entry, ok := c.local[cacheKey(guildID, userID)]
		if !ok || time.Now().After(entry.expires) {
			delete(c.local, cacheKey(guildID, userID))
			return CachedResult{}, false
		}
		result, ok := entry.entries[display]
		return result, ok
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	payload, err := c.client.HGet(ctx, cacheKey(guildID, userID), display).Bytes()
	if err != nil {
		return CachedResult{}, false
	}

	var result CachedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		c.log.Warnf("corrupt cached search result: %v", err)
		return CachedResult{}, false
	}
	return result, true
}

// ClearGuild drops every user's cached results for the guild.
func (c *SearchCache) ClearGuild(guildID string) {
	if c.client == nil {
		c.mu.Lock()
		prefix := fmt.Sprintf("music:search:%s:", guildID)
		for key := range c.local {
			if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
				delete(c.local, key)
			}
		}
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	keys, err := c.client.SMembers(ctx, guildIndexKey(guildID)).Result()
	if err != nil {
		return
	}
	keys = append(keys, guildIndexKey(guildID))
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warnf("failed to clear search cache for guild %s: %v", guildID, err)
	}
}
