package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TierFree    = "free"
	TierPremium = "premium"

	SubStatusTrial    = "trial"
	SubStatusActive   = "active"
	SubStatusExpired  = "expired"
	SubStatusCanceled = "canceled"

	PlatformApple  = "apple"
	PlatformGoogle = "google"
)

type Subscription struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;index;not null"`
	Tier             string    `gorm:"size:16;not null"`
	Status           string    `gorm:"size:16;not null"`
	Platform         string    `gorm:"size:16"`
	// Vendor transaction / purchase token. Trial rows carry no vendor
	// subscription, so the unique index skips empty values.
	PlatformSubID    string    `gorm:"size:256;uniqueIndex:uq_subscriptions_platform_sub_id,where:platform_sub_id <> ''"`
	ProductID        string    `gorm:"size:100"`
	CurrentPeriodEnd time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Expired reports whether the paid period is over. Trial rows expire too.
func (s *Subscription) Expired(now time.Time) bool {
	return !s.CurrentPeriodEnd.IsZero() && now.After(s.CurrentPeriodEnd)
}
