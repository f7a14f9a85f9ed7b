package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mobileshield/internal/application/usecase"
	"mobileshield/internal/domain"
)

type PaymentHandler struct {
	payments *usecase.PaymentUseCase
}

func NewPaymentHandler(p *usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{payments: p}
}

type verifyReceiptReq struct {
	Platform      string `json:"platform" binding:"required,oneof=apple google"`
	ReceiptData   string `json:"receiptData" binding:"required_if=Platform apple"`
	ProductID     string `json:"productId" binding:"required_if=Platform google"`
	PurchaseToken string `json:"purchaseToken" binding:"required_if=Platform google"`
}

func (h *PaymentHandler) VerifyReceipt(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req verifyReceiptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.payments.VerifyReceipt(c, userID, usecase.VerifyReceiptInput{
		Platform:      req.Platform,
		ReceiptData:   req.ReceiptData,
		ProductID:     req.ProductID,
		PurchaseToken: req.PurchaseToken,
	})
	if errors.Is(err, domain.ErrReceiptInvalid) {
		// The vendor said no (or was unreachable): not a server error,
		// the client just doesn't get premium.
		ok(c, gin.H{"valid": false})
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"valid": true, "subscription": sub})
}

func (h *PaymentHandler) CurrentSubscription(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	sub, err := h.payments.Current(c, userID)
	if errors.Is(err, domain.ErrNotFound) {
		ok(c, gin.H{"tier": domain.TierFree, "status": "none"})
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, sub)
}
