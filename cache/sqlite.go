package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// cacheSlot is one persisted collection payload.
type cacheSlot struct {
	Key       string `gorm:"primaryKey;type:varchar(100)"`
	Payload   []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (cacheSlot) TableName() string {
	return "cache_slots"
}

// SQLiteCache stores slots in an embedded sqlite database, one row per
// collection.
type SQLiteCache struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteCache opens (or creates) the database file and migrates the slot
// table.
func NewSQLiteCache(path string, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.AutoMigrate(&cacheSlot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return &SQLiteCache{db: db, logger: logger}, nil
}

// Load reads and decodes a slot row. Missing or corrupt payloads return
// false without touching the target.
func (c *SQLiteCache) Load(key string, into any) bool {
	var slot cacheSlot
	if err := c.db.First(&slot, "key = ?", key).Error; err != nil {
		return false
	}
	if err := json.Unmarshal(slot.Payload, into); err != nil {
		c.logger.Warn("discarding unreadable cache slot",
			zap.String("slot", key),
			zap.Error(err))
		return false
	}
	return true
}

// Save upserts a slot row. Failures are swallowed.
func (c *SQLiteCache) Save(key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("failed to encode cache slot",
			zap.String("slot", key),
			zap.Error(err))
		return
	}

	slot := cacheSlot{Key: key, Payload: payload, UpdatedAt: time.Now()}
	err = c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		c.logger.Warn("failed to persist cache slot",
			zap.String("slot", key),
			zap.Error(err))
	}
}
