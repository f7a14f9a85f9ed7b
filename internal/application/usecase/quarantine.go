package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/repository"
	"mobileshield/internal/infrastructure/storage"
)

type QuarantineUseCase struct {
	quarRepo   *repository.QuarantineRepository
	deviceRepo *repository.DeviceRepository
	signer     *storage.Signer
}

func NewQuarantineUseCase(qr *repository.QuarantineRepository, dr *repository.DeviceRepository, s *storage.Signer) *QuarantineUseCase {
	return &QuarantineUseCase{quarRepo: qr, deviceRepo: dr, signer: s}
}

type SignedUpload struct {
	UploadURL  string    `json:"uploadUrl"`
	StorageKey string    `json:"storageKey"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// SignUpload issues a time-limited upload URL for a quarantined file the
// caller owns.
func (uc *QuarantineUseCase) SignUpload(ctx context.Context, userID, quarantineID uuid.UUID) (*SignedUpload, error) {
	q, device, err := uc.owned(ctx, userID, quarantineID)
	if err != nil {
		return nil, err
	}

	key := q.StorageKey
	if key == "" {
		key = fmt.Sprintf("quarantine/%s/%s", device.DeviceID, q.FileHash)
		if err := uc.quarRepo.SetStorageKey(ctx, q.ID, key); err != nil {
			return nil, err
		}
	}

	u, expires := uc.signer.SignUpload(key)
	return &SignedUpload{UploadURL: u, StorageKey: key, ExpiresAt: expires}, nil
}

// CompleteUpload is called by the upload endpoint once the signed URL was
// consumed and the file stored.
func (uc *QuarantineUseCase) CompleteUpload(ctx context.Context, storageKey string) error {
	return uc.quarRepo.MarkUploaded(ctx, storageKey)
}

func (uc *QuarantineUseCase) List(ctx context.Context, userID uuid.UUID) ([]domain.Quarantine, error) {
	devices, err := uc.deviceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
	}
	return uc.quarRepo.ListByDevices(ctx, ids)
}

// UpdateStatus applies a restore/delete decision. Already restored or
// deleted rows are final.
func (uc *QuarantineUseCase) UpdateStatus(ctx context.Context, userID, quarantineID uuid.UUID, status string) error {
	if status != domain.QuarantineRestored && status != domain.QuarantineDeleted {
		return domain.ErrInvalidTransition
	}

	q, _, err := uc.owned(ctx, userID, quarantineID)
	if err != nil {
		return err
	}
	if q.Status == domain.QuarantineRestored || q.Status == domain.QuarantineDeleted {
		return domain.ErrInvalidTransition
	}
	return uc.quarRepo.UpdateStatus(ctx, q.ID, status)
}

func (uc *QuarantineUseCase) owned(ctx context.Context, userID, quarantineID uuid.UUID) (*domain.Quarantine, *domain.Device, error) {
	q, err := uc.quarRepo.GetByID(ctx, quarantineID)
	if err != nil {
		return nil, nil, err
	}
	device, err := uc.deviceRepo.GetByID(ctx, q.DeviceID)
	if err != nil {
		return nil, nil, err
	}
	if device.UserID != userID {
		return nil, nil, domain.ErrForbidden
	}
	return q, device, nil
}
