package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/herecomesthebride/boutique-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps blobs in the kv_entries table
type GormStore struct {
	db  *gorm.DB
	hub *Hub
}

// NewGormStore creates a store over db publishing on hub
func NewGormStore(db *gorm.DB, hub *Hub) *GormStore {
	if hub == nil {
		hub = NewHub()
	}
	return &GormStore{db: db, hub: hub}
}

// Load returns the blob stored under key or nil when the key is absent
func (s *GormStore) Load(ctx context.Context, key string) ([]byte, error) {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).Where(&models.KVEntry{Key: key}).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

// Save upserts the blob under key and notifies subscribers
func (s *GormStore) Save(ctx context.Context, key string, value []byte) error {
	entry := models.KVEntry{Key: key, Value: string(value)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	s.hub.Publish(topicFor(key))
	return nil
}

// Subscribe calls fn after every Save to key
func (s *GormStore) Subscribe(key string, fn func()) (cancel func()) {
	return s.hub.Subscribe(topicFor(key), fn)
}
