package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	CommandLocate = "locate"
	CommandRing   = "ring"
	CommandLock   = "lock"
	CommandWipe   = "wipe"

	CommandPending  = "pending"
	CommandSent     = "sent"
	CommandExecuted = "executed"
	CommandFailed   = "failed"
)

func ValidCommandType(t string) bool {
	switch t {
	case CommandLocate, CommandRing, CommandLock, CommandWipe:
		return true
	}
	return false
}

type AntiTheftCommand struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CommandType string    `gorm:"size:16;not null"`
	Status      string    `gorm:"size:16;not null;default:pending"`
	IssuedBy    uuid.UUID `gorm:"type:uuid;not null"`
	Metadata    string    `gorm:"type:text"` // JSON object, merged on location reports
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
