package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/push"
	"mobileshield/internal/infrastructure/repository"
)

// PushSender fans anti-theft commands out to device tokens.
type PushSender interface {
	Send(ctx context.Context, token string, data map[string]string) error
	Configured() bool
}

type CommandUseCase struct {
	deviceRepo *repository.DeviceRepository
	tokenRepo  *repository.PushTokenRepository
	cmdRepo    *repository.CommandRepository
	pusher     PushSender
	log        zerolog.Logger
}

func NewCommandUseCase(
	dr *repository.DeviceRepository,
	tr *repository.PushTokenRepository,
	cr *repository.CommandRepository,
	p PushSender,
	log zerolog.Logger,
) *CommandUseCase {
	return &CommandUseCase{deviceRepo: dr, tokenRepo: tr, cmdRepo: cr, pusher: p, log: log}
}

// Issue creates an anti-theft command and pushes it to every active token
// on the device. Any delivered push makes the command SENT; zero makes it
// FAILED. A device without active tokens is rejected before any write.
func (uc *CommandUseCase) Issue(ctx context.Context, userID uuid.UUID, deviceID, commandType string) (*domain.AntiTheftCommand, error) {
	if !domain.ValidCommandType(commandType) {
		return nil, domain.ErrValidation
	}

	device, err := uc.deviceRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.UserID != userID {
		return nil, domain.ErrForbidden
	}

	tokens, err := uc.tokenRepo.ListActiveByDevice(ctx, device.ID)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, domain.ErrNoActiveTokens
	}

	cmd := &domain.AntiTheftCommand{
		ID:          uuid.New(),
		DeviceID:    device.ID,
		CommandType: commandType,
		Status:      domain.CommandPending,
		IssuedBy:    userID,
		Metadata:    "{}",
	}
	if err := uc.cmdRepo.Create(ctx, cmd); err != nil {
		return nil, err
	}

	if !uc.pusher.Configured() {
		// Provider misconfiguration must not block command creation;
		// the device can still pick the command up by polling.
		uc.log.Warn().Str("command_id", cmd.ID.String()).Msg("push provider not configured, send skipped")
		return cmd, nil
	}

	delivered := uc.fanOut(ctx, cmd, tokens)

	status := domain.CommandFailed
	if delivered > 0 {
		status = domain.CommandSent
	}
	if err := uc.cmdRepo.UpdateStatus(ctx, cmd.ID, status); err != nil {
		return nil, err
	}
	cmd.Status = status
	return cmd, nil
}

// fanOut delivers to every token independently; one token's failure never
// fails its siblings.
func (uc *CommandUseCase) fanOut(ctx context.Context, cmd *domain.AntiTheftCommand, tokens []domain.PushToken) int {
	data := map[string]string{
		"type":      "anti_theft_command",
		"commandId": cmd.ID.String(),
		"command":   cmd.CommandType,
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, t := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			err := uc.pusher.Send(ctx, token, data)
			if err == nil {
				mu.Lock()
				delivered++
				mu.Unlock()
				return
			}
			if errors.Is(err, push.ErrUnregistered) {
				// Best-effort cleanup, not rolled back on overall failure.
				if derr := uc.tokenRepo.Deactivate(ctx, token); derr != nil {
					uc.log.Warn().Err(derr).Msg("failed to deactivate dead push token")
				}
			}
			uc.log.Warn().Err(err).Str("command_id", cmd.ID.String()).Msg("push delivery failed")
		}(t.Token)
	}
	wg.Wait()
	return delivered
}

type LocationReport struct {
	CommandID uuid.UUID
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// ReportLocation moves a SENT locate command to EXECUTED, merging the fix
// into the command metadata without dropping earlier keys.
func (uc *CommandUseCase) ReportLocation(ctx context.Context, userID uuid.UUID, report LocationReport) (*domain.AntiTheftCommand, error) {
	cmd, err := uc.cmdRepo.GetByID(ctx, report.CommandID)
	if err != nil {
		return nil, err
	}

	device, err := uc.deviceRepo.GetByID(ctx, cmd.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.UserID != userID {
		return nil, domain.ErrForbidden
	}

	if cmd.CommandType != domain.CommandLocate || cmd.Status != domain.CommandSent {
		return nil, domain.ErrInvalidTransition
	}

	meta := map[string]interface{}{}
	if cmd.Metadata != "" {
		if err := json.Unmarshal([]byte(cmd.Metadata), &meta); err != nil {
			meta = map[string]interface{}{}
		}
	}
	meta["location"] = map[string]interface{}{
		"latitude":   report.Latitude,
		"longitude":  report.Longitude,
		"accuracy":   report.Accuracy,
		"reportedAt": time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	if err := uc.cmdRepo.UpdateStatusAndMetadata(ctx, cmd.ID, domain.CommandExecuted, string(raw)); err != nil {
		return nil, err
	}
	cmd.Status = domain.CommandExecuted
	cmd.Metadata = string(raw)
	return cmd, nil
}

func (uc *CommandUseCase) List(ctx context.Context, userID uuid.UUID, deviceID string, limit int) ([]domain.AntiTheftCommand, error) {
	device, err := uc.deviceRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.cmdRepo.ListByDevice(ctx, device.ID, limit)
}
