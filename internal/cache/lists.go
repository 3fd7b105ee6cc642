// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// lists.go caches the serialized category list of each owner in Valkey.
// Every write that can change what the list shows (category changes and
// link changes, since the list carries link counts) bumps the owner's
// generation. Entries are stored under the generation that was current
// before the list was read from PostgreSQL, so a list built from rows
// older than the last write is never served.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// listKeyPrefix is the Valkey key prefix for cached category lists.
	listKeyPrefix = "categories:list:"

	// genKeyPrefix is the Valkey key prefix for per-owner generations.
	// Generation keys never expire: a counter that restarted could reach
	// an old value again while entries stored under it are still live.
	genKeyPrefix = "categories:gen:"

	// DefaultListTTL is how long a cached list survives without writes.
	DefaultListTTL = 5 * time.Minute
)

// ListCache stores one JSON document per owner and generation. A nil
// *ListCache is valid and behaves as an always-empty cache, so callers
// need not check whether Valkey is configured.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListCache creates a list cache backed by the given Valkey client.
func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	if ttl == 0 {
		ttl = DefaultListTTL
	}
	return &ListCache{client: client, ttl: ttl}
}

// ListKey returns the Valkey key for an owner's category list at gen.
func ListKey(owner uuid.UUID, gen int64) string {
	return listKeyPrefix + owner.String() + ":" + strconv.FormatInt(gen, 10)
}

// GenKey returns the Valkey key holding an owner's generation.
func GenKey(owner uuid.UUID) string {
	return genKeyPrefix + owner.String()
}

// Get returns the cached list for the owner's current generation. The
// generation is returned even on a miss and must be passed to Set. It is
// negative when Valkey failed, and Set then stores nothing.
func (lc *ListCache) Get(ctx context.Context, owner uuid.UUID) (body []byte, gen int64, ok bool) {
	if lc == nil {
		return nil, -1, false
	}
	gen, err := lc.client.Get(ctx, GenKey(owner)).Int64()
	if err == redis.Nil {
		gen = 0
	} else if err != nil {
		slog.Warn("list cache generation error", "owner", owner, "error", err)
		return nil, -1, false
	}

	val, err := lc.client.Get(ctx, ListKey(owner, gen)).Bytes()
	if err == redis.Nil {
		return nil, gen, false
	}
	if err != nil {
		slog.Warn("list cache get error", "owner", owner, "error", err)
		return nil, -1, false
	}
	slog.Debug("list cache hit", "owner", owner, "gen", gen)
	return val, gen, true
}

// Set stores the serialized list under gen, the generation Get returned
// before the list was loaded. If the owner has been invalidated since,
// the entry lands under a retired generation and is never read.
func (lc *ListCache) Set(ctx context.Context, owner uuid.UUID, gen int64, body []byte) {
	if lc == nil || gen < 0 {
		return
	}
	if err := lc.client.Set(ctx, ListKey(owner, gen), body, lc.ttl).Err(); err != nil {
		slog.Warn("list cache set error", "owner", owner, "error", err)
	}
}

// Invalidate retires the owner's current generation.
func (lc *ListCache) Invalidate(ctx context.Context, owner uuid.UUID) {
	if lc == nil {
		return
	}
	gen, err := lc.client.Incr(ctx, GenKey(owner)).Result()
	if err != nil {
		slog.Warn("list cache invalidate error", "owner", owner, "error", err)
		return
	}
	slog.Debug("list cache invalidated", "owner", owner, "gen", gen)
}

// InvalidateAll removes every cached list by scanning for the prefix.
// Generations are left alone. Used at startup after migrations, since the
// row shape may have changed.
func (lc *ListCache) InvalidateAll(ctx context.Context) {
	if lc == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := lc.client.Scan(ctx, cursor, listKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("list cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("list cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("list cache cleared", "deleted", deleted)
	}
}
