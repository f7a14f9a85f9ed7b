package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/receipt"
	"mobileshield/internal/infrastructure/repository"
)

func newPaymentUseCase(db *gorm.DB, apple AppleReceiptVerifier, google GoogleReceiptVerifier) *PaymentUseCase {
	return NewPaymentUseCase(repository.NewSubscriptionRepository(db), apple, google, testLogger())
}

func TestVerifyReceiptActivatesSubscription(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "payer@example.com")

	expires := time.Now().Add(30 * 24 * time.Hour)
	apple := &stubAppleVerifier{result: &receipt.Verification{
		Valid:         true,
		PlatformSubID: "txn-100",
		ProductID:     "premium.monthly",
		ExpiresAt:     expires,
	}}

	uc := newPaymentUseCase(db, apple, &stubGoogleVerifier{})
	sub, err := uc.VerifyReceipt(context.Background(), user.ID, VerifyReceiptInput{
		Platform:    domain.PlatformApple,
		ReceiptData: "base64-receipt",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, sub.Tier)
	assert.Equal(t, domain.SubStatusActive, sub.Status)
	assert.Equal(t, "txn-100", sub.PlatformSubID)
	assert.WithinDuration(t, expires, sub.CurrentPeriodEnd, time.Second)
}

func TestVerifyReceiptExtendsOwnSubscription(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "payer@example.com")
	require.NoError(t, db.Create(&domain.Subscription{
		ID:               uuid.New(),
		UserID:           user.ID,
		Tier:             domain.TierPremium,
		Status:           domain.SubStatusExpired,
		Platform:         domain.PlatformGoogle,
		PlatformSubID:    "gpa-200",
		CurrentPeriodEnd: time.Now().Add(-24 * time.Hour),
	}).Error)

	renewed := time.Now().Add(30 * 24 * time.Hour)
	google := &stubGoogleVerifier{result: &receipt.Verification{
		Valid:         true,
		PlatformSubID: "gpa-200",
		ProductID:     "premium.yearly",
		ExpiresAt:     renewed,
	}}

	uc := newPaymentUseCase(db, &stubAppleVerifier{}, google)
	sub, err := uc.VerifyReceipt(context.Background(), user.ID, VerifyReceiptInput{
		Platform:      domain.PlatformGoogle,
		ProductID:     "premium.yearly",
		PurchaseToken: "token-200",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SubStatusActive, sub.Status)
	assert.WithinDuration(t, renewed, sub.CurrentPeriodEnd, time.Second)

	var count int64
	require.NoError(t, db.Model(&domain.Subscription{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyReceiptRejectsReplayAcrossAccounts(t *testing.T) {
	db := newTestDB(t)
	first := seedUser(t, db, "first@example.com")
	second := seedUser(t, db, "second@example.com")
	require.NoError(t, db.Create(&domain.Subscription{
		ID:            uuid.New(),
		UserID:        first.ID,
		Tier:          domain.TierPremium,
		Status:        domain.SubStatusActive,
		Platform:      domain.PlatformApple,
		PlatformSubID: "txn-300",
	}).Error)

	apple := &stubAppleVerifier{result: &receipt.Verification{
		Valid:         true,
		PlatformSubID: "txn-300",
		ExpiresAt:     time.Now().Add(time.Hour),
	}}

	uc := newPaymentUseCase(db, apple, &stubGoogleVerifier{})
	_, err := uc.VerifyReceipt(context.Background(), second.ID, VerifyReceiptInput{
		Platform:    domain.PlatformApple,
		ReceiptData: "stolen-receipt",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestVerifyReceiptRejectsInvalidReceipt(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "payer@example.com")

	uc := newPaymentUseCase(db, &stubAppleVerifier{}, &stubGoogleVerifier{})

	_, err := uc.VerifyReceipt(context.Background(), user.ID, VerifyReceiptInput{
		Platform:    domain.PlatformApple,
		ReceiptData: "garbage",
	})
	assert.ErrorIs(t, err, domain.ErrReceiptInvalid)

	_, err = uc.VerifyReceipt(context.Background(), user.ID, VerifyReceiptInput{Platform: "steam"})
	assert.ErrorIs(t, err, domain.ErrReceiptInvalid)
}

func TestCurrentDowngradesLapsedSubscriptionOnRead(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "payer@example.com")
	require.NoError(t, db.Create(&domain.Subscription{
		ID:               uuid.New(),
		UserID:           user.ID,
		Tier:             domain.TierPremium,
		Status:           domain.SubStatusTrial,
		CurrentPeriodEnd: time.Now().Add(-time.Minute),
	}).Error)

	uc := newPaymentUseCase(db, &stubAppleVerifier{}, &stubGoogleVerifier{})
	sub, err := uc.Current(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubStatusExpired, sub.Status)

	var stored domain.Subscription
	require.NoError(t, db.First(&stored, "user_id = ?", user.ID).Error)
	assert.Equal(t, domain.SubStatusExpired, stored.Status)
}

func TestCurrentReturnsNotFoundWithoutSubscription(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "free@example.com")

	uc := newPaymentUseCase(db, &stubAppleVerifier{}, &stubGoogleVerifier{})
	_, err := uc.Current(context.Background(), user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
