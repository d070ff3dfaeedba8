package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Signed-in and anonymous sessions live under separate prefixes so an
// anonymous session ID can never name a user's entry.
const (
	userSearchKeyPrefix = "search:last:uid:%s"
	anonSearchKeyPrefix = "search:last:anon:%s"
)

// RedisHistory stores the most recent search URL of one session so it can
// be restored from another device or after a reload. Each session has a
// single entry that every ReplaceState overwrites.
type RedisHistory struct {
	redis    *redis.Client
	key      string
	path     string
	ttl      time.Duration
	location string
}

// UserHistory is the history of a signed-in user.
func UserHistory(client *redis.Client, uid, path string, ttl time.Duration) *RedisHistory {
	return newRedisHistory(client, userSearchKey(uid), path, ttl)
}

// AnonymousHistory is the history of a browser identified only by a client
// chosen session ID.
func AnonymousHistory(client *redis.Client, session, path string, ttl time.Duration) *RedisHistory {
	return newRedisHistory(client, anonSearchKey(session), path, ttl)
}

// NoHistory keeps the location in memory only.
func NoHistory(path string) *RedisHistory {
	return newRedisHistory(nil, "", path, 0)
}

func newRedisHistory(client *redis.Client, key, path string, ttl time.Duration) *RedisHistory {
	return &RedisHistory{redis: client, key: key, path: path, ttl: ttl, location: path}
}

func (h *RedisHistory) Path() string {
	return h.path
}

// ReplaceState records url for the session. A Redis failure is logged and
// the in-memory location is still updated.
func (h *RedisHistory) ReplaceState(ctx context.Context, url string) {
	h.location = url
	if h.redis == nil || h.key == "" {
		return
	}
	if err := h.redis.Set(ctx, h.key, url, h.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "search history write failed", "key", h.key, "error", err)
	}
}

// Location is the URL written by the last ReplaceState on this value.
func (h *RedisHistory) Location() string {
	return h.location
}

// Load returns the stored URL for the session, or the bare path when the
// session has none.
func (h *RedisHistory) Load(ctx context.Context) (string, error) {
	if h.redis == nil || h.key == "" {
		return h.path, nil
	}
	val, err := h.redis.Get(ctx, h.key).Result()
	if errors.Is(err, redis.Nil) {
		return h.path, nil
	}
	if err != nil {
		return "", fmt.Errorf("search history: %w", err)
	}
	return val, nil
}

func userSearchKey(uid string) string {
	if uid == "" {
		return ""
	}
	return fmt.Sprintf(userSearchKeyPrefix, uid)
}

func anonSearchKey(session string) string {
	if session == "" {
		return ""
	}
	return fmt.Sprintf(anonSearchKeyPrefix, session)
}
