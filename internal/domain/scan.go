package domain

import (
	"time"

	"github.com/google/uuid"
)

type ScanLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeviceID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ScanType     string    `gorm:"size:16;not null"` // quick | full | app
	Status       string    `gorm:"size:16;not null"` // completed | cancelled | failed
	FilesScanned int
	ThreatsFound int
	DurationMS   int
	CreatedAt    time.Time
}

const (
	QuarantineDetected = "detected"
	QuarantineUploaded = "uploaded"
	QuarantineRestored = "restored"
	QuarantineDeleted  = "deleted"
)

type Quarantine struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DeviceID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	FileHash          string     `gorm:"size:128;index;not null"`
	FilePath          string     `gorm:"size:512"`
	ThreatSignatureID *uuid.UUID `gorm:"type:uuid"`
	Status            string     `gorm:"size:16;not null;default:detected"`
	StorageKey        string     `gorm:"size:256"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
