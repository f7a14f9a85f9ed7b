package domain

import (
	"time"

	"github.com/google/uuid"
)

type TelemetryLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	EventType string    `gorm:"size:64;not null"`
	EventData string    `gorm:"type:text"` // opaque JSON from the client
	Timestamp time.Time `gorm:"index"`
	CreatedAt time.Time
}

type AdminAuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AdminID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Action    string    `gorm:"size:64;not null"`
	Metadata  string    `gorm:"type:text"`
	IPAddress string    `gorm:"size:45"`
	CreatedAt time.Time
}
