package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileCache stores one JSON file per slot under a base directory. It is the
// localStorage analogue for embedders that want the cache inspectable on
// disk.
type FileCache struct {
	basePath string
	logger   *zap.Logger
}

// NewFileCache creates a file-backed cache rooted at basePath.
func NewFileCache(basePath string, logger *zap.Logger) (*FileCache, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{basePath: basePath, logger: logger}, nil
}

func (c *FileCache) slotPath(key string) string {
	return filepath.Join(c.basePath, key+".json")
}

// Load reads and decodes a slot file. Missing or corrupt payloads return
// false without touching the target.
func (c *FileCache) Load(key string, into any) bool {
	data, err := os.ReadFile(c.slotPath(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, into); err != nil {
		c.logger.Warn("discarding unreadable cache slot",
			zap.String("slot", key),
			zap.Error(err))
		return false
	}
	return true
}

// Save encodes and writes a slot file. The write goes through a temp file
// and rename so a crash mid-write cannot corrupt the previous payload.
func (c *FileCache) Save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("failed to encode cache slot",
			zap.String("slot", key),
			zap.Error(err))
		return
	}

	tmp := c.slotPath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		c.logger.Warn("failed to write cache slot",
			zap.String("slot", key),
			zap.Error(err))
		return
	}
	if err := os.Rename(tmp, c.slotPath(key)); err != nil {
		os.Remove(tmp)
		c.logger.Warn("failed to replace cache slot",
			zap.String("slot", key),
			zap.Error(err))
	}
}
