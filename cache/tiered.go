package cache

import (
	"context"
	"log/slog"
)

// Tiered layers a process-local store behind a primary backend. Writes that
// the primary rejects land in the local tier so the session keeps working
// with reduced cross-process continuity; reads fall through to the local
// tier on a primary miss.
type Tiered struct {
	primary Store
	local   *MemoryStore
	logger  *slog.Logger

	// OnFallback, when set, is called once per write that degraded to the
	// local tier.
	OnFallback func()
}

// NewTiered wraps primary with a memory fallback.
func NewTiered(primary Store, logger *slog.Logger) *Tiered {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tiered{
		primary: primary,
		local:   NewMemoryStore(),
		logger:  logger,
	}
}

// Put writes to the primary, degrading to the local tier on failure.
func (t *Tiered) Put(ctx context.Context, sessionID, field, value string) error {
	if err := t.primary.Put(ctx, sessionID, field, value); err != nil {
		t.logger.Warn("Primary cache write failed, using local fallback",
			"session_id", sessionID,
			"field", field,
			"error", err)
		if t.OnFallback != nil {
			t.OnFallback()
		}
		return t.local.Put(ctx, sessionID, field, value)
	}
	return nil
}

// Get reads from the primary first, then the local tier.
func (t *Tiered) Get(ctx context.Context, sessionID, field string) (string, bool) {
	if value, ok := t.primary.Get(ctx, sessionID, field); ok {
		return value, true
	}
	return t.local.Get(ctx, sessionID, field)
}

// Delete removes the fields from both tiers.
func (t *Tiered) Delete(ctx context.Context, sessionID string, fields ...string) error {
	err := t.primary.Delete(ctx, sessionID, fields...)
	if localErr := t.local.Delete(ctx, sessionID, fields...); err == nil {
		err = localErr
	}
	return err
}
