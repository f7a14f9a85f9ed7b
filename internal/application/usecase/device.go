package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/repository"
)

type RegisterDeviceInput struct {
	DeviceID  string
	Platform  string
	Name      string
	OSVersion string
	PushToken string
}

type DeviceUseCase struct {
	deviceRepo *repository.DeviceRepository
	tokenRepo  *repository.PushTokenRepository
}

func NewDeviceUseCase(dr *repository.DeviceRepository, tr *repository.PushTokenRepository) *DeviceUseCase {
	return &DeviceUseCase{deviceRepo: dr, tokenRepo: tr}
}

// Register upserts the device row and its push token. A device or token
// already bound to a different user is never silently rebound.
func (uc *DeviceUseCase) Register(ctx context.Context, userID uuid.UUID, in RegisterDeviceInput) (*domain.Device, error) {
	device, err := uc.deviceRepo.GetByDeviceID(ctx, in.DeviceID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		device = &domain.Device{
			ID:        uuid.New(),
			DeviceID:  in.DeviceID,
			UserID:    userID,
			Platform:  in.Platform,
			Name:      in.Name,
			OSVersion: in.OSVersion,
			IsActive:  true,
			LastSeen:  time.Now(),
		}
		if err := uc.deviceRepo.Create(ctx, device); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case device.UserID != userID:
		return nil, domain.ErrConflict
	default:
		if err := uc.deviceRepo.TouchLastSeen(ctx, device.ID); err != nil {
			return nil, err
		}
	}

	if in.PushToken != "" {
		if err := uc.upsertToken(ctx, userID, device, in); err != nil {
			return nil, err
		}
	}
	return device, nil
}

func (uc *DeviceUseCase) upsertToken(ctx context.Context, userID uuid.UUID, device *domain.Device, in RegisterDeviceInput) error {
	existing, err := uc.tokenRepo.GetByToken(ctx, in.PushToken)
	if errors.Is(err, domain.ErrNotFound) {
		return uc.tokenRepo.Create(ctx, &domain.PushToken{
			ID:       uuid.New(),
			Token:    in.PushToken,
			DeviceID: device.ID,
			Platform: in.Platform,
			IsActive: true,
		})
	}
	if err != nil {
		return err
	}

	if existing.DeviceID == device.ID {
		return uc.tokenRepo.BindToDevice(ctx, existing.ID, device.ID)
	}

	// The token is attached to some other device; rebinding is only
	// allowed between devices of the same user.
	owner, err := uc.deviceRepo.GetByID(ctx, existing.DeviceID)
	if err == nil && owner.UserID != userID {
		return domain.ErrConflict
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return uc.tokenRepo.BindToDevice(ctx, existing.ID, device.ID)
}

func (uc *DeviceUseCase) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Device, error) {
	return uc.deviceRepo.ListByUser(ctx, userID)
}
