// Package cache provides the durable client-side cache backing the entity
// store. Each entity collection occupies one slot, keyed by collection name
// and JSON-encoded. Reads are synchronous at store construction; writes are
// synchronous and best-effort: a failed persist is logged and swallowed, it
// never rolls back the in-memory mutation that triggered it.
package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// Slot keys used by the entity store. The names match the original
// collection keys so a cache written by an older build stays readable.
const (
	SlotUsers         = "users"
	SlotPlants        = "plants"
	SlotWorkOrders    = "osList"
	SlotNotifications = "notifications"
)

// Cache is the durable key→collection store.
type Cache interface {
	// Load reads the slot into the target. It returns false when the slot is
	// missing or its payload does not parse, leaving the target untouched so
	// the caller's default survives.
	Load(key string, into any) bool

	// Save writes the slot. Failures are swallowed.
	Save(key string, v any)
}

// Config selects and parameterizes a cache implementation.
type Config struct {
	// Mode is "file" or "sqlite".
	Mode string
	// Path is the slot directory (file mode) or database file (sqlite mode).
	Path string
}

// New creates a cache instance based on configuration.
func New(cfg Config, logger *zap.Logger) (Cache, error) {
	switch cfg.Mode {
	case "file":
		return NewFileCache(cfg.Path, logger)
	case "sqlite":
		return NewSQLiteCache(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported cache mode: %s", cfg.Mode)
	}
}
