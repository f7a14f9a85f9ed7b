package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mobileshield/internal/domain"
)

type PushTokenRepository struct {
	db *gorm.DB
}

func NewPushTokenRepository(db *gorm.DB) *PushTokenRepository {
	return &PushTokenRepository{db: db}
}

func (r *PushTokenRepository) Create(ctx context.Context, token *domain.PushToken) error {
	err := r.db.WithContext(ctx).Create(token).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *PushTokenRepository) GetByToken(ctx context.Context, token string) (*domain.PushToken, error) {
	var pt domain.PushToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&pt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *PushTokenRepository) ListActiveByDevice(ctx context.Context, deviceID uuid.UUID) ([]domain.PushToken, error) {
	var tokens []domain.PushToken
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND is_active = ?", deviceID, true).
		Find(&tokens).Error
	return tokens, err
}

// BindToDevice moves a token onto a device (same owner only, the usecase
// checks) and reactivates it.
func (r *PushTokenRepository) BindToDevice(ctx context.Context, id, deviceID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.PushToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"device_id": deviceID, "is_active": true}).Error
}

// Deactivate marks a token the push provider reported as gone.
func (r *PushTokenRepository) Deactivate(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Model(&domain.PushToken{}).
		Where("token = ?", token).
		Update("is_active", false).Error
}
