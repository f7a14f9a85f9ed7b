package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/repository"
)

const maxTelemetryBatch = 100

type TelemetryEvent struct {
	EventType string
	EventData json.RawMessage
	Timestamp time.Time
}

type TelemetryUseCase struct {
	repo *repository.TelemetryRepository
}

func NewTelemetryUseCase(tr *repository.TelemetryRepository) *TelemetryUseCase {
	return &TelemetryUseCase{repo: tr}
}

// IngestBatch appends a batch of client events. Batches above the cap are
// rejected wholesale rather than truncated.
func (uc *TelemetryUseCase) IngestBatch(ctx context.Context, userID uuid.UUID, events []TelemetryEvent) (int, error) {
	if len(events) > maxTelemetryBatch {
		return 0, domain.ErrValidation
	}

	rows := make([]domain.TelemetryLog, len(events))
	now := time.Now()
	for i, e := range events {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = now
		}
		rows[i] = domain.TelemetryLog{
			ID:        uuid.New(),
			UserID:    userID,
			EventType: e.EventType,
			EventData: string(e.EventData),
			Timestamp: ts,
		}
	}
	if err := uc.repo.CreateBatch(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
