package models

import (
	"time"
)

// KVEntry holds one named blob of the key-value store (a whole request collection)
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the KVEntry model
func (KVEntry) TableName() string {
	return "kv_entries"
}
