package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mobileshield/internal/domain"
)

type CommandRepository struct {
	db *gorm.DB
}

func NewCommandRepository(db *gorm.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

func (r *CommandRepository) Create(ctx context.Context, cmd *domain.AntiTheftCommand) error {
	return r.db.WithContext(ctx).Create(cmd).Error
}

func (r *CommandRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AntiTheftCommand, error) {
	var cmd domain.AntiTheftCommand
	err := r.db.WithContext(ctx).First(&cmd, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cmd, nil
}

func (r *CommandRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&domain.AntiTheftCommand{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *CommandRepository) UpdateStatusAndMetadata(ctx context.Context, id uuid.UUID, status, metadata string) error {
	return r.db.WithContext(ctx).Model(&domain.AntiTheftCommand{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "metadata": metadata}).Error
}

func (r *CommandRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID, limit int) ([]domain.AntiTheftCommand, error) {
	var cmds []domain.AntiTheftCommand
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Limit(limit).
		Find(&cmds).Error
	return cmds, err
}
