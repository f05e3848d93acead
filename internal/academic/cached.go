package academic

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const defaultCacheTTL = 60 * time.Second

// CachedSource is a read-through cache in front of a Source. Records are
// immutable for the duration of a conversation turn, so a short TTL saves a
// round trip when one message needs both grades and syllabus data.
type CachedSource struct {
	source Source
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSource wraps source with a Redis-backed cache. A zero ttl uses
// the default of one minute.
func NewCachedSource(source Source, client *redis.Client, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedSource{source: source, client: client, ttl: ttl}
}

func (c *CachedSource) Enrollments(ctx context.Context, token string) ([]Enrollment, error) {
	var enrollments []Enrollment
	err := c.readThrough(ctx, cacheKey("enrollments", token), &enrollments, func(ctx context.Context) (any, error) {
		fresh, err := c.source.Enrollments(ctx, token)
		if err != nil {
			return nil, err
		}
		enrollments = fresh
		return fresh, nil
	})
	return enrollments, err
}

func (c *CachedSource) SyllabusRecords(ctx context.Context, token string) ([]SyllabusRecord, error) {
	var records []SyllabusRecord
	err := c.readThrough(ctx, cacheKey("syllabus", token), &records, func(ctx context.Context) (any, error) {
		fresh, err := c.source.SyllabusRecords(ctx, token)
		if err != nil {
			return nil, err
		}
		records = fresh
		return fresh, nil
	})
	return records, err
}

// readThrough fills dest from cache when possible, otherwise calls fetch and
// stores the result. Cache failures degrade to a direct fetch.
func (c *CachedSource) readThrough(ctx context.Context, key string, dest any, fetch func(context.Context) (any, error)) error {
	if c.client != nil {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			if jsonErr := json.Unmarshal(data, dest); jsonErr == nil {
				return nil
			}
			// Stale or corrupt entry; refetch below.
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("academic cache read failed", "error", err)
		}
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return err
	}

	if c.client != nil {
		if data, err := json.Marshal(fresh); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				slog.Warn("academic cache write failed", "error", err)
			}
		}
	}
	return nil
}

// cacheKey derives a key from the bearer token so raw credentials are never
// written into Redis.
func cacheKey(kind, token string) string {
	sum := blake2b.Sum256([]byte(token))
	return "academic:" + kind + ":" + hex.EncodeToString(sum[:16])
}
