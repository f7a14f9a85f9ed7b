package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/repository"
)

type SignatureInput struct {
	Type      string
	Signature string
	Name      string
	Severity  string
	Category  string
	IsActive  bool
}

type SignatureDBInfo struct {
	Version     int   `json:"version"`
	ActiveCount int64 `json:"activeCount"`
}

type ThreatUseCase struct {
	threatRepo *repository.ThreatRepository
	log        zerolog.Logger
}

func NewThreatUseCase(tr *repository.ThreatRepository, log zerolog.Logger) *ThreatUseCase {
	return &ThreatUseCase{threatRepo: tr, log: log}
}

// BulkUpsert writes an admin signature drop as the next database version
// and audits it in the same transaction.
func (uc *ThreatUseCase) BulkUpsert(ctx context.Context, adminID uuid.UUID, entries []SignatureInput, ip string) (int, error) {
	current, err := uc.threatRepo.MaxVersion(ctx)
	if err != nil {
		return 0, err
	}
	version := current + 1

	sigs := make([]domain.ThreatSignature, len(entries))
	for i, e := range entries {
		sigs[i] = domain.ThreatSignature{
			ID:        uuid.New(),
			Type:      e.Type,
			Signature: e.Signature,
			Name:      e.Name,
			Severity:  e.Severity,
			Category:  e.Category,
			Version:   version,
			IsActive:  e.IsActive,
		}
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"count":   len(sigs),
		"version": version,
	})
	audit := &domain.AdminAuditLog{
		ID:        uuid.New(),
		AdminID:   adminID,
		Action:    "threats_upload",
		Metadata:  string(meta),
		IPAddress: ip,
	}

	if err := uc.threatRepo.BulkUpsert(ctx, sigs, audit); err != nil {
		return 0, err
	}
	uc.log.Info().Int("count", len(sigs)).Int("version", version).Msg("threat signatures upserted")
	return version, nil
}

func (uc *ThreatUseCase) DBInfo(ctx context.Context) (*SignatureDBInfo, error) {
	version, err := uc.threatRepo.MaxVersion(ctx)
	if err != nil {
		return nil, err
	}
	count, err := uc.threatRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	return &SignatureDBInfo{Version: version, ActiveCount: count}, nil
}
