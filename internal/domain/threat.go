package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

type ThreatSignature struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type      string    `gorm:"size:32;not null"` // hash | package | cert
	Signature string    `gorm:"uniqueIndex;not null;size:128"`
	Name      string    `gorm:"size:100"`
	Severity  string    `gorm:"size:16;not null"`
	Category  string    `gorm:"size:32"`
	Version   int       `gorm:"not null;index"`
	// No column default: gorm skips zero values for defaulted fields on
	// insert, which would make deactivating a signature impossible.
	IsActive  bool      `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HashVerdict is the reputation answer for a single content hash,
// shared by the cache and the signature store so both paths agree.
type HashVerdict struct {
	Hash        string `json:"hash"`
	IsThreat    bool   `json:"isThreat"`
	Severity    string `json:"severity,omitempty"`
	Category    string `json:"category,omitempty"`
	SignatureID string `json:"signatureId,omitempty"`
}
