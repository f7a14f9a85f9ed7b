package domain

import (
	"time"

	"github.com/google/uuid"
)

type Device struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID  string    `gorm:"size:64;uniqueIndex;not null"` // installation ID from the client
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Platform  string    `gorm:"size:16;not null"` // android | ios
	Name      string    `gorm:"size:100"`
	OSVersion string    `gorm:"size:32"`
	IsActive  bool      `gorm:"not null;default:true"`
	LastSeen  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PushToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token     string    `gorm:"uniqueIndex;not null"`
	DeviceID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Platform  string    `gorm:"size:16;not null"`
	IsActive  bool      `gorm:"not null;default:true"` // flipped off when the push provider reports the token gone
	CreatedAt time.Time
	UpdatedAt time.Time
}
