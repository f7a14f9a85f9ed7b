package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mobileshield/internal/application/usecase"
)

type AdminHandler struct {
	threats *usecase.ThreatUseCase
}

func NewAdminHandler(t *usecase.ThreatUseCase) *AdminHandler {
	return &AdminHandler{threats: t}
}

type signatureEntry struct {
	Type      string `json:"type" binding:"required,oneof=hash package cert"`
	Signature string `json:"signature" binding:"required,min=8,max=128"`
	Name      string `json:"name" binding:"omitempty,max=100"`
	Severity  string `json:"severity" binding:"required,oneof=low medium high critical"`
	Category  string `json:"category" binding:"omitempty,max=32"`
	IsActive  *bool  `json:"isActive"`
}

type uploadThreatsReq struct {
	Signatures []signatureEntry `json:"signatures" binding:"required,min=1,max=1000,dive"`
}

func (h *AdminHandler) UploadThreats(c *gin.Context) {
	adminID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req uploadThreatsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	entries := make([]usecase.SignatureInput, len(req.Signatures))
	for i, s := range req.Signatures {
		active := true
		if s.IsActive != nil {
			active = *s.IsActive
		}
		entries[i] = usecase.SignatureInput{
			Type:      s.Type,
			Signature: s.Signature,
			Name:      s.Name,
			Severity:  s.Severity,
			Category:  s.Category,
			IsActive:  active,
		}
	}

	version, err := h.threats.BulkUpsert(c, adminID, entries, c.ClientIP())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"upserted": len(entries), "version": version})
}

func (h *AdminHandler) SignatureDBInfo(c *gin.Context) {
	info, err := h.threats.DBInfo(c)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, info)
}
