package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/repository"
)

// VerdictCache fronts the signature store for hash lookups.
type VerdictCache interface {
	GetMany(ctx context.Context, hashes []string) (map[string]domain.HashVerdict, []string, error)
	Put(ctx context.Context, verdict domain.HashVerdict) error
}

type ScanUseCase struct {
	threatRepo *repository.ThreatRepository
	cache      VerdictCache
	scanRepo   *repository.ScanRepository
	deviceRepo *repository.DeviceRepository
	log        zerolog.Logger
}

func NewScanUseCase(
	tr *repository.ThreatRepository,
	vc VerdictCache,
	sr *repository.ScanRepository,
	dr *repository.DeviceRepository,
	log zerolog.Logger,
) *ScanUseCase {
	return &ScanUseCase{threatRepo: tr, cache: vc, scanRepo: sr, deviceRepo: dr, log: log}
}

// HashCheck resolves a batch of content hashes, cache first. Negative
// verdicts are cached too. A dead cache degrades to store-only lookups.
func (uc *ScanUseCase) HashCheck(ctx context.Context, hashes []string) ([]domain.HashVerdict, error) {
	hits, misses, err := uc.cache.GetMany(ctx, hashes)
	if err != nil {
		uc.log.Warn().Err(err).Msg("verdict cache unavailable, falling back to store")
		hits = map[string]domain.HashVerdict{}
		misses = hashes
	}

	if len(misses) > 0 {
		sigs, err := uc.threatRepo.FindBySignatures(ctx, misses)
		if err != nil {
			return nil, err
		}
		found := make(map[string]domain.ThreatSignature, len(sigs))
		for _, s := range sigs {
			found[s.Signature] = s
		}

		for _, h := range misses {
			verdict := domain.HashVerdict{Hash: h}
			if s, ok := found[h]; ok {
				verdict.IsThreat = true
				verdict.Severity = s.Severity
				verdict.Category = s.Category
				verdict.SignatureID = s.ID.String()
			}
			hits[h] = verdict
			if err := uc.cache.Put(ctx, verdict); err != nil {
				uc.log.Debug().Err(err).Msg("verdict cache write failed")
			}
		}
	}

	out := make([]domain.HashVerdict, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, hits[h])
	}
	return out, nil
}

type ReportedThreat struct {
	FileHash string
	FilePath string
}

type ScanReportInput struct {
	DeviceID     string
	ScanType     string
	Status       string
	FilesScanned int
	ThreatsFound int
	DurationMS   int
	Threats      []ReportedThreat
}

// Report records one scan run: scan log, one quarantine row per distinct
// reported threat and one telemetry event, all in a single transaction.
func (uc *ScanUseCase) Report(ctx context.Context, userID uuid.UUID, in ScanReportInput) (*domain.ScanLog, error) {
	device, err := uc.deviceRepo.GetByDeviceID(ctx, in.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.UserID != userID {
		return nil, domain.ErrForbidden
	}

	scan := &domain.ScanLog{
		ID:           uuid.New(),
		DeviceID:     device.ID,
		ScanType:     in.ScanType,
		Status:       in.Status,
		FilesScanned: in.FilesScanned,
		ThreatsFound: in.ThreatsFound,
		DurationMS:   in.DurationMS,
	}

	quarantines := uc.buildQuarantines(ctx, device.ID, in.Threats)

	eventData, _ := json.Marshal(map[string]interface{}{
		"scanId":       scan.ID.String(),
		"scanType":     in.ScanType,
		"threatsFound": in.ThreatsFound,
	})
	event := &domain.TelemetryLog{
		ID:        uuid.New(),
		UserID:    userID,
		EventType: "scan_completed",
		EventData: string(eventData),
		Timestamp: time.Now(),
	}

	if err := uc.scanRepo.CreateReport(ctx, scan, quarantines, event); err != nil {
		return nil, err
	}
	return scan, nil
}

func (uc *ScanUseCase) buildQuarantines(ctx context.Context, deviceID uuid.UUID, threats []ReportedThreat) []domain.Quarantine {
	if len(threats) == 0 {
		return nil
	}

	hashes := make([]string, 0, len(threats))
	seen := map[string]bool{}
	for _, t := range threats {
		if !seen[t.FileHash] {
			seen[t.FileHash] = true
			hashes = append(hashes, t.FileHash)
		}
	}

	// Link quarantine rows to the matching signature when one exists.
	byHash := map[string]uuid.UUID{}
	if sigs, err := uc.threatRepo.FindBySignatures(ctx, hashes); err == nil {
		for _, s := range sigs {
			byHash[s.Signature] = s.ID
		}
	}

	rows := make([]domain.Quarantine, 0, len(hashes))
	added := map[string]bool{}
	for _, t := range threats {
		if added[t.FileHash] {
			continue // one row per reported threat per scan
		}
		added[t.FileHash] = true

		q := domain.Quarantine{
			ID:       uuid.New(),
			DeviceID: deviceID,
			FileHash: t.FileHash,
			FilePath: t.FilePath,
			Status:   domain.QuarantineDetected,
		}
		if sigID, ok := byHash[t.FileHash]; ok {
			id := sigID
			q.ThreatSignatureID = &id
		}
		rows = append(rows, q)
	}
	return rows
}
