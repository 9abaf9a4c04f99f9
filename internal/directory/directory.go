// Package directory loads the employee directory shown on the public
// submission form and searches it.
//
// A Directory is an immutable snapshot. Callers load a fresh one per request;
// when Redis is configured the snapshot is shared between requests for a
// short TTL so the form does not hit the record store on every page view.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/kudos/internal/metrics"
	"github.com/sakif/kudos/internal/model"
)

const (
	CacheKey   = "kudos:directory"
	DefaultTTL = 60 * time.Second
)

// Lister is the part of the record store the loader needs.
type Lister interface {
	ListDirectory(ctx context.Context) ([]model.DirectoryEntry, error)
}

// Directory is one snapshot of every employee, in fetch order.
type Directory struct {
	entries []model.DirectoryEntry
}

// New builds a snapshot from entries. The slice is copied.
func New(entries []model.DirectoryEntry) *Directory {
	return &Directory{entries: append([]model.DirectoryEntry(nil), entries...)}
}

func (d *Directory) Entries() []model.DirectoryEntry {
	return d.Search("")
}

func (d *Directory) Len() int {
	return len(d.entries)
}

// Search returns the entries whose full name or email contains query,
// ignoring case. Order is preserved; an empty query matches everything.
// The result is never nil.
func (d *Directory) Search(query string) []model.DirectoryEntry {
	q := strings.ToLower(query)
	out := make([]model.DirectoryEntry, 0, len(d.entries))
	for _, e := range d.entries {
		if q == "" ||
			strings.Contains(strings.ToLower(e.FullName), q) ||
			strings.Contains(strings.ToLower(e.Email), q) {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the entry with the given id, or nil.
func (d *Directory) Find(id string) *model.DirectoryEntry {
	if id == "" {
		return nil
	}
	for i := range d.entries {
		if d.entries[i].ID == id {
			e := d.entries[i]
			return &e
		}
	}
	return nil
}

// Loader fetches snapshots, through the Redis cache when one is set.
type Loader struct {
	lister Lister
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewLoader returns a loader. rdb may be nil, which disables caching.
func NewLoader(lister Lister, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader{lister: lister, redis: rdb, ttl: ttl, logger: logger}
}

// Load returns the current snapshot. Cache failures are logged and the
// record store is used instead; only a record store failure is returned.
func (l *Loader) Load(ctx context.Context) (*Directory, error) {
	if l.redis != nil {
		if d, ok := l.fromCache(ctx); ok {
			return d, nil
		}
	}

	entries, err := l.lister.ListDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading directory: %w", err)
	}

	if l.redis != nil {
		l.store(ctx, entries)
	}
	return New(entries), nil
}

// Invalidate drops the cached snapshot, e.g. after a new employee signs up.
func (l *Loader) Invalidate(ctx context.Context) {
	if l.redis == nil {
		return
	}
	if err := l.redis.Del(ctx, CacheKey).Err(); err != nil {
		l.logger.Warn("directory cache invalidate failed", "error", err)
	}
}

func (l *Loader) fromCache(ctx context.Context) (*Directory, bool) {
	val, err := l.redis.Get(ctx, CacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.DirectoryCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.DirectoryCache.WithLabelValues("error").Inc()
		l.logger.Warn("directory cache read failed", "error", err)
		return nil, false
	}

	var entries []model.DirectoryEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		metrics.DirectoryCache.WithLabelValues("error").Inc()
		l.logger.Warn("directory cache entry is corrupt", "error", err)
		return nil, false
	}

	metrics.DirectoryCache.WithLabelValues("hit").Inc()
	return &Directory{entries: entries}, true
}

func (l *Loader) store(ctx context.Context, entries []model.DirectoryEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		l.logger.Warn("directory cache encode failed", "error", err)
		return
	}
	if err := l.redis.Set(ctx, CacheKey, data, l.ttl).Err(); err != nil {
		l.logger.Warn("directory cache write failed", "error", err)
	}
}
