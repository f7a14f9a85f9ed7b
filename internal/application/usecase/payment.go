package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/receipt"
	"mobileshield/internal/infrastructure/repository"
)

type AppleReceiptVerifier interface {
	Verify(ctx context.Context, receiptData string) (*receipt.Verification, error)
}

type GoogleReceiptVerifier interface {
	Verify(ctx context.Context, productID, purchaseToken string) (*receipt.Verification, error)
}

type VerifyReceiptInput struct {
	Platform      string
	ReceiptData   string // apple
	ProductID     string // google
	PurchaseToken string // google
}

type PaymentUseCase struct {
	subRepo *repository.SubscriptionRepository
	apple   AppleReceiptVerifier
	google  GoogleReceiptVerifier
	log     zerolog.Logger
}

func NewPaymentUseCase(sr *repository.SubscriptionRepository, a AppleReceiptVerifier, g GoogleReceiptVerifier, log zerolog.Logger) *PaymentUseCase {
	return &PaymentUseCase{subRepo: sr, apple: a, google: g, log: log}
}

// VerifyReceipt checks the vendor receipt and activates/extends the
// caller's subscription. A platform subscription already claimed by a
// different user is a conflict.
func (uc *PaymentUseCase) VerifyReceipt(ctx context.Context, userID uuid.UUID, in VerifyReceiptInput) (*domain.Subscription, error) {
	var (
		v   *receipt.Verification
		err error
	)
	switch in.Platform {
	case domain.PlatformApple:
		v, err = uc.apple.Verify(ctx, in.ReceiptData)
	case domain.PlatformGoogle:
		v, err = uc.google.Verify(ctx, in.ProductID, in.PurchaseToken)
	default:
		return nil, domain.ErrReceiptInvalid
	}
	if err != nil || v == nil || !v.Valid {
		return nil, domain.ErrReceiptInvalid
	}

	existing, err := uc.subRepo.GetByPlatformSubID(ctx, v.PlatformSubID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sub := &domain.Subscription{
			ID:               uuid.New(),
			UserID:           userID,
			Tier:             domain.TierPremium,
			Status:           domain.SubStatusActive,
			Platform:         in.Platform,
			PlatformSubID:    v.PlatformSubID,
			ProductID:        v.ProductID,
			CurrentPeriodEnd: v.ExpiresAt,
		}
		if err := uc.subRepo.Create(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	case err != nil:
		return nil, err
	case existing.UserID != userID:
		uc.log.Warn().
			Str("platform_sub_id", v.PlatformSubID).
			Str("claimed_by", existing.UserID.String()).
			Msg("receipt replay across accounts rejected")
		return nil, domain.ErrConflict
	}

	existing.Status = domain.SubStatusActive
	existing.ProductID = v.ProductID
	existing.CurrentPeriodEnd = v.ExpiresAt
	if err := uc.subRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Current returns the caller's subscription, downgrading lapsed rows to
// expired on read.
func (uc *PaymentUseCase) Current(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := uc.subRepo.GetCurrentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Expired(time.Now()) {
		if err := uc.subRepo.MarkExpired(ctx, sub.ID); err != nil {
			return nil, err
		}
		sub.Status = domain.SubStatusExpired
	}
	return sub, nil
}
