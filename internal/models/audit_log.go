package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of access decisions and lifecycle events.
// Rows are never updated or deleted except by retention pruning.
type AuditLog struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID    *string        `gorm:"type:uuid;index" json:"actor_id"`
	Action     string         `gorm:"type:varchar(64);not null;index" json:"action"`
	TargetType string         `gorm:"type:varchar(32);index" json:"target_type"`
	TargetID   string         `gorm:"type:varchar(64)" json:"target_id"`
	DataRoomID *string        `gorm:"type:uuid;index" json:"data_room_id,omitempty"`
	Result     string         `gorm:"type:varchar(16);not null" json:"result"`
	Meta       datatypes.JSON `json:"meta,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns the row identifier.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
