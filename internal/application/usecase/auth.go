package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/repository"
	"mobileshield/internal/infrastructure/security"
)

const trialDays = 7

// OAuthProvider validates third-party ID tokens.
type OAuthProvider interface {
	Verify(ctx context.Context, provider, idToken string) (*security.Identity, error)
}

// RefreshStore keeps issued refresh tokens so they can be revoked.
type RefreshStore interface {
	SaveRefresh(ctx context.Context, userID, refreshToken string) error
	CheckRefresh(ctx context.Context, refreshToken string) (string, error)
	DeleteRefresh(ctx context.Context, refreshToken string) error
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthUseCase struct {
	userRepo     *repository.UserRepository
	deviceRepo   *repository.DeviceRepository
	subRepo      *repository.SubscriptionRepository
	tokens       RefreshStore
	hasher       *security.PasswordHasher
	tokenManager *security.TokenManager
	oauth        OAuthProvider
	log          zerolog.Logger
}

func NewAuthUseCase(
	ur *repository.UserRepository,
	dr *repository.DeviceRepository,
	sr *repository.SubscriptionRepository,
	ts RefreshStore,
	h *security.PasswordHasher,
	tm *security.TokenManager,
	op OAuthProvider,
	log zerolog.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     ur,
		deviceRepo:   dr,
		subRepo:      sr,
		tokens:       ts,
		hasher:       h,
		tokenManager: tm,
		oauth:        op,
		log:          log,
	}
}

// OAuthLogin verifies a Google/Apple ID token and logs the user in,
// provisioning user + device + trial subscription on first contact.
func (uc *AuthUseCase) OAuthLogin(ctx context.Context, provider, idToken, deviceID, platform string) (*TokenPair, error) {
	identity, err := uc.oauth.Verify(ctx, provider, idToken)
	if err != nil {
		uc.log.Warn().Err(err).Str("provider", provider).Msg("oauth token rejected")
		return nil, domain.ErrInvalidCredential
	}
	if identity.Email == "" {
		return nil, domain.ErrInvalidCredential
	}

	user, err := uc.userRepo.GetByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		user, err = uc.provision(ctx, identity, deviceID, platform)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if deviceID != "" {
			if err := uc.attachDevice(ctx, user.ID, deviceID, platform); err != nil {
				return nil, err
			}
		}
	}

	return uc.generateAndSaveTokens(ctx, user)
}

func (uc *AuthUseCase) provision(ctx context.Context, identity *security.Identity, deviceID, platform string) (*domain.User, error) {
	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        identity.Email,
		AuthProvider: identity.Provider,
		Role:         domain.RoleUser,
	}

	var device *domain.Device
	if deviceID != "" {
		device = &domain.Device{
			ID:       uuid.New(),
			DeviceID: deviceID,
			UserID:   user.ID,
			Platform: platform,
			IsActive: true,
			LastSeen: now,
		}
	}

	sub := &domain.Subscription{
		ID:               uuid.New(),
		UserID:           user.ID,
		Tier:             domain.TierPremium,
		Status:           domain.SubStatusTrial,
		CurrentPeriodEnd: now.AddDate(0, 0, trialDays),
	}

	if err := uc.userRepo.CreateWithTrial(ctx, user, device, sub); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *AuthUseCase) attachDevice(ctx context.Context, userID uuid.UUID, deviceID, platform string) error {
	existing, err := uc.deviceRepo.GetByDeviceID(ctx, deviceID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return uc.deviceRepo.Create(ctx, &domain.Device{
			ID:       uuid.New(),
			DeviceID: deviceID,
			UserID:   userID,
			Platform: platform,
			IsActive: true,
			LastSeen: time.Now(),
		})
	case err != nil:
		return err
	case existing.UserID != userID:
		return domain.ErrConflict
	}
	return uc.deviceRepo.TouchLastSeen(ctx, existing.ID)
}

func (uc *AuthUseCase) RegisterEmail(ctx context.Context, email, password string) (string, error) {
	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Password:     hash,
		AuthProvider: domain.ProviderEmail,
		Role:         domain.RoleUser,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return "", err
	}
	return user.ID.String(), nil
}

func (uc *AuthUseCase) LoginEmail(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}
	if user.Password == "" {
		// OAuth account, no password to compare.
		return nil, domain.ErrInvalidCredential
	}
	if err := uc.hasher.Compare(user.Password, password); err != nil {
		return nil, domain.ErrInvalidCredential
	}
	return uc.generateAndSaveTokens(ctx, user)
}

// Refresh rotates a refresh token: the old one is revoked before the new
// pair is issued.
func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := uc.tokenManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}

	cachedID, err := uc.tokens.CheckRefresh(ctx, refreshToken)
	if err != nil || cachedID != userID {
		return nil, domain.ErrInvalidCredential
	}
	_ = uc.tokens.DeleteRefresh(ctx, refreshToken)

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}
	return uc.generateAndSaveTokens(ctx, user)
}

func (uc *AuthUseCase) generateAndSaveTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, refresh, err := uc.tokenManager.Generate(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}
	if err := uc.tokens.SaveRefresh(ctx, user.ID.String(), refresh); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
