package cache

import (
	"context"
	"log/slog"
)

// Store is the raw key-value surface a backend must provide. Implementations
// are atomic at the single-field level; multi-field writes are not
// transactional.
type Store interface {
	// Put overwrites the value for a field.
	Put(ctx context.Context, sessionID, field, value string) error

	// Get returns the value for a field and whether it exists.
	Get(ctx context.Context, sessionID, field string) (string, bool)

	// Delete removes the given fields. Missing fields are not an error.
	Delete(ctx context.Context, sessionID string, fields ...string) error
}

// Cache wraps a Store with the session-level operations the pipeline uses.
// Backend failures are logged and demoted to cache misses; no method returns
// an error.
type Cache struct {
	store  Store
	logger *slog.Logger
}

// New creates a Cache over the given store.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger}
}

// Put writes a field. Returns false when the backend rejected the write.
func (c *Cache) Put(ctx context.Context, sessionID, field, value string) bool {
	if err := c.store.Put(ctx, sessionID, field, value); err != nil {
		c.logger.Warn("Cache write failed",
			"session_id", sessionID,
			"field", field,
			"error", err)
		return false
	}
	return true
}

// Get returns the value for a field, or def when absent.
func (c *Cache) Get(ctx context.Context, sessionID, field, def string) string {
	value, ok := c.store.Get(ctx, sessionID, field)
	if !ok {
		return def
	}
	return value
}

// PutMany writes several fields. Returns false when any write failed.
func (c *Cache) PutMany(ctx context.Context, sessionID string, fields map[string]string) bool {
	ok := true
	for field, value := range fields {
		if !c.Put(ctx, sessionID, field, value) {
			ok = false
		}
	}
	return ok
}

// GetMany returns the present fields among those requested.
func (c *Cache) GetMany(ctx context.Context, sessionID string, fields []string) map[string]string {
	result := make(map[string]string, len(fields))
	for _, field := range fields {
		if value, ok := c.store.Get(ctx, sessionID, field); ok {
			result[field] = value
		}
	}
	return result
}

// Clear removes the given fields, or every known field when none are named.
func (c *Cache) Clear(ctx context.Context, sessionID string, fields ...string) bool {
	if len(fields) == 0 {
		fields = allFields()
	}
	if err := c.store.Delete(ctx, sessionID, fields...); err != nil {
		c.logger.Warn("Cache clear failed",
			"session_id", sessionID,
			"error", err)
		return false
	}
	return true
}

// Info returns a per-field existence snapshot for debugging.
func (c *Cache) Info(ctx context.Context, sessionID string) map[string]bool {
	info := make(map[string]bool, len(fieldClasses))
	for field := range fieldClasses {
		_, ok := c.store.Get(ctx, sessionID, field)
		info[field] = ok
	}
	return info
}

func allFields() []string {
	fields := make([]string, 0, len(fieldClasses))
	for field := range fieldClasses {
		fields = append(fields, field)
	}
	return fields
}
