package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mobileshield/internal/application/usecase"
)

type AuthHandler struct {
	auth *usecase.AuthUseCase
}

func NewAuthHandler(auth *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type oauthVerifyReq struct {
	Provider string `json:"provider" binding:"required,oneof=google apple"`
	IDToken  string `json:"idToken" binding:"required"`
	DeviceID string `json:"deviceId" binding:"omitempty,max=64"`
	Platform string `json:"platform" binding:"omitempty,oneof=android ios"`
}

type emailRegisterReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type emailLoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *AuthHandler) OAuthVerify(c *gin.Context) {
	var req oauthVerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.auth.OAuthLogin(c, req.Provider, req.IDToken, req.DeviceID, req.Platform)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, pair)
}

func (h *AuthHandler) EmailRegister(c *gin.Context) {
	var req emailRegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := h.auth.RegisterEmail(c, req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, gin.H{"userId": userID})
}

func (h *AuthHandler) EmailLogin(c *gin.Context) {
	var req emailLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.auth.LoginEmail(c, req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.auth.Refresh(c, req.RefreshToken)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, pair)
}
