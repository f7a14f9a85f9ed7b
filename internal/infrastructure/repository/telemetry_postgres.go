package repository

import (
	"context"

	"gorm.io/gorm"

	"mobileshield/internal/domain"
)

type TelemetryRepository struct {
	db *gorm.DB
}

func NewTelemetryRepository(db *gorm.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

func (r *TelemetryRepository) CreateBatch(ctx context.Context, events []domain.TelemetryLog) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}
