package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/repository"
	"mobileshield/internal/infrastructure/security"
)

func newAuthUseCase(t *testing.T, db *gorm.DB, store RefreshStore, oauth OAuthProvider) *AuthUseCase {
	t.Helper()
	return NewAuthUseCase(
		repository.NewUserRepository(db),
		repository.NewDeviceRepository(db),
		repository.NewSubscriptionRepository(db),
		store,
		security.NewPasswordHasher(),
		security.NewTokenManager("access-secret", "refresh-secret"),
		oauth,
		testLogger(),
	)
}

func TestRegisterAndLoginEmail(t *testing.T) {
	db := newTestDB(t)
	uc := newAuthUseCase(t, db, newStubRefreshStore(), &stubOAuth{})

	id, err := uc.RegisterEmail(context.Background(), "new@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	pair, err := uc.LoginEmail(context.Background(), "new@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = uc.LoginEmail(context.Background(), "new@example.com", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestRegisterEmailRejectsDuplicate(t *testing.T) {
	db := newTestDB(t)
	uc := newAuthUseCase(t, db, newStubRefreshStore(), &stubOAuth{})

	_, err := uc.RegisterEmail(context.Background(), "dup@example.com", "pass-one")
	require.NoError(t, err)

	_, err = uc.RegisterEmail(context.Background(), "dup@example.com", "pass-two")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestLoginEmailRejectsOAuthOnlyAccount(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "social@example.com") // no password hash

	uc := newAuthUseCase(t, db, newStubRefreshStore(), &stubOAuth{})
	_, err := uc.LoginEmail(context.Background(), "social@example.com", "anything")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestOAuthLoginProvisionsUserDeviceAndTrial(t *testing.T) {
	db := newTestDB(t)
	oauth := &stubOAuth{identity: &security.Identity{
		Provider: domain.ProviderGoogle,
		Subject:  "google-sub-1",
		Email:    "fresh@example.com",
	}}

	uc := newAuthUseCase(t, db, newStubRefreshStore(), oauth)
	pair, err := uc.OAuthLogin(context.Background(), domain.ProviderGoogle, "id-token", "dev-42", "android")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	var user domain.User
	require.NoError(t, db.First(&user, "email = ?", "fresh@example.com").Error)
	assert.Equal(t, domain.ProviderGoogle, user.AuthProvider)

	var device domain.Device
	require.NoError(t, db.First(&device, "device_id = ?", "dev-42").Error)
	assert.Equal(t, user.ID, device.UserID)

	var sub domain.Subscription
	require.NoError(t, db.First(&sub, "user_id = ?", user.ID).Error)
	assert.Equal(t, domain.TierPremium, sub.Tier)
	assert.Equal(t, domain.SubStatusTrial, sub.Status)
	assert.True(t, sub.CurrentPeriodEnd.After(sub.CreatedAt))
}

func TestOAuthLoginProvisionsTrialsForMultipleUsers(t *testing.T) {
	db := newTestDB(t)
	store := newStubRefreshStore()

	// Trial subscriptions carry no vendor transaction ID; a second signup
	// must not collide with the first one's empty platform_sub_id.
	for i, email := range []string{"one@example.com", "two@example.com"} {
		oauth := &stubOAuth{identity: &security.Identity{
			Provider: domain.ProviderGoogle,
			Subject:  fmt.Sprintf("google-sub-%d", i),
			Email:    email,
		}}
		uc := newAuthUseCase(t, db, store, oauth)
		_, err := uc.OAuthLogin(context.Background(), domain.ProviderGoogle, "id-token", fmt.Sprintf("dev-%d", i), "android")
		require.NoError(t, err, "signup %s", email)
	}

	var subs int64
	require.NoError(t, db.Model(&domain.Subscription{}).Where("status = ?", domain.SubStatusTrial).Count(&subs).Error)
	assert.EqualValues(t, 2, subs)
}

func TestOAuthLoginRejectsBadToken(t *testing.T) {
	db := newTestDB(t)
	oauth := &stubOAuth{err: errors.New("aud mismatch")}

	uc := newAuthUseCase(t, db, newStubRefreshStore(), oauth)
	_, err := uc.OAuthLogin(context.Background(), domain.ProviderGoogle, "bad", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestOAuthLoginRejectsForeignDeviceClaim(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	seedDevice(t, db, owner.ID, "dev-1")
	seedUser(t, db, "second@example.com")

	oauth := &stubOAuth{identity: &security.Identity{
		Provider: domain.ProviderApple,
		Subject:  "apple-sub-2",
		Email:    "second@example.com",
	}}

	uc := newAuthUseCase(t, db, newStubRefreshStore(), oauth)
	_, err := uc.OAuthLogin(context.Background(), domain.ProviderApple, "id-token", "dev-1", "ios")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := newTestDB(t)
	store := newStubRefreshStore()
	uc := newAuthUseCase(t, db, store, &stubOAuth{})

	_, err := uc.RegisterEmail(context.Background(), "rot@example.com", "pass-word")
	require.NoError(t, err)
	pair, err := uc.LoginEmail(context.Background(), "rot@example.com", "pass-word")
	require.NoError(t, err)

	next, err := uc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed token is gone; replaying it must fail.
	_, err = uc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	_, err = uc.Refresh(context.Background(), next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	db := newTestDB(t)
	uc := newAuthUseCase(t, db, newStubRefreshStore(), &stubOAuth{})

	_, err := uc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}
