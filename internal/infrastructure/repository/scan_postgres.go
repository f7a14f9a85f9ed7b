package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mobileshield/internal/domain"
)

type ScanRepository struct {
	db *gorm.DB
}

func NewScanRepository(db *gorm.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// CreateReport persists one scan run: the scan log, its quarantine rows and
// the telemetry event, atomically.
func (r *ScanRepository) CreateReport(ctx context.Context, scan *domain.ScanLog, quarantines []domain.Quarantine, event *domain.TelemetryLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scan).Error; err != nil {
			return err
		}
		if len(quarantines) > 0 {
			if err := tx.Create(&quarantines).Error; err != nil {
				return err
			}
		}
		return tx.Create(event).Error
	})
}

func (r *ScanRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID, limit int) ([]domain.ScanLog, error) {
	var scans []domain.ScanLog
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Limit(limit).
		Find(&scans).Error
	return scans, err
}

type QuarantineRepository struct {
	db *gorm.DB
}

func NewQuarantineRepository(db *gorm.DB) *QuarantineRepository {
	return &QuarantineRepository{db: db}
}

func (r *QuarantineRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quarantine, error) {
	var q domain.Quarantine
	err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuarantineRepository) ListByDevices(ctx context.Context, deviceIDs []uuid.UUID) ([]domain.Quarantine, error) {
	var rows []domain.Quarantine
	err := r.db.WithContext(ctx).
		Where("device_id IN ?", deviceIDs).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (r *QuarantineRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&domain.Quarantine{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *QuarantineRepository) SetStorageKey(ctx context.Context, id uuid.UUID, key string) error {
	return r.db.WithContext(ctx).Model(&domain.Quarantine{}).
		Where("id = ?", id).
		Update("storage_key", key).Error
}

// MarkUploaded flips the row whose signed URL was just consumed.
func (r *QuarantineRepository) MarkUploaded(ctx context.Context, storageKey string) error {
	return r.db.WithContext(ctx).Model(&domain.Quarantine{}).
		Where("storage_key = ?", storageKey).
		Update("status", domain.QuarantineUploaded).Error
}
