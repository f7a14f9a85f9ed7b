package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mobileshield/internal/domain"
)

type ThreatRepository struct {
	db *gorm.DB
}

func NewThreatRepository(db *gorm.DB) *ThreatRepository {
	return &ThreatRepository{db: db}
}

// FindBySignatures resolves a batch of hashes against the active signature set.
func (r *ThreatRepository) FindBySignatures(ctx context.Context, signatures []string) ([]domain.ThreatSignature, error) {
	var sigs []domain.ThreatSignature
	err := r.db.WithContext(ctx).
		Where("signature IN ? AND is_active = ?", signatures, true).
		Find(&sigs).Error
	return sigs, err
}

// BulkUpsert writes an admin signature drop and its audit row in one
// transaction. Existing signatures are updated in place, new ones inserted.
func (r *ThreatRepository) BulkUpsert(ctx context.Context, sigs []domain.ThreatSignature, audit *domain.AdminAuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "signature"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type", "name", "severity", "category", "version", "is_active", "updated_at",
			}),
		}).Create(&sigs).Error; err != nil {
			return err
		}
		return tx.Create(audit).Error
	})
}

func (r *ThreatRepository) MaxVersion(ctx context.Context) (int, error) {
	var version *int
	err := r.db.WithContext(ctx).Model(&domain.ThreatSignature{}).
		Select("max(version)").Scan(&version).Error
	if err != nil || version == nil {
		return 0, err
	}
	return *version, nil
}

func (r *ThreatRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ThreatSignature{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}
