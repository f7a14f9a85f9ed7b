package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mobileshield/internal/application/usecase"
	"mobileshield/internal/infrastructure/storage"
)

type QuarantineHandler struct {
	quarantine *usecase.QuarantineUseCase
	signer     *storage.Signer
	uploadDir  string
	log        zerolog.Logger
}

func NewQuarantineHandler(q *usecase.QuarantineUseCase, signer *storage.Signer, uploadDir string, log zerolog.Logger) *QuarantineHandler {
	return &QuarantineHandler{quarantine: q, signer: signer, uploadDir: uploadDir, log: log}
}

type signedUploadReq struct {
	QuarantineID string `json:"quarantineId" binding:"required,uuid"`
}

type quarantineStatusReq struct {
	QuarantineID string `json:"quarantineId" binding:"required,uuid"`
	Status       string `json:"status" binding:"required,oneof=restored deleted"`
}

func (h *QuarantineHandler) SignedUpload(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req signedUploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	quarantineID, _ := uuid.Parse(req.QuarantineID)
	signed, err := h.quarantine.SignUpload(c, userID, quarantineID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, signed)
}

func (h *QuarantineHandler) List(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	rows, err := h.quarantine.List(c, userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, rows)
}

func (h *QuarantineHandler) UpdateStatus(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req quarantineStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	quarantineID, _ := uuid.Parse(req.QuarantineID)
	if err := h.quarantine.UpdateStatus(c, userID, quarantineID, req.Status); err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"status": req.Status})
}

// Upload receives the file behind a signed URL. The signature, not a JWT,
// is the credential here: the mobile client uploads out-of-band.
func (h *QuarantineHandler) Upload(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	exp := c.Query("exp")
	sig := c.Query("sig")

	if !h.signer.Verify(key, exp, sig) {
		fail(c, http.StatusForbidden, "invalid or expired upload signature")
		return
	}

	dest := filepath.Join(h.uploadDir, filepath.FromSlash(key))
	if !strings.HasPrefix(filepath.Clean(dest), filepath.Clean(h.uploadDir)) {
		fail(c, http.StatusBadRequest, "invalid storage key")
		return
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		h.log.Error().Err(err).Msg("upload dir creation failed")
		fail(c, http.StatusInternalServerError, "internal server error")
		return
	}

	f, err := os.Create(dest)
	if err != nil {
		h.log.Error().Err(err).Msg("upload file creation failed")
		fail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	defer f.Close()

	written, err := io.Copy(f, http.MaxBytesReader(c.Writer, c.Request.Body, 64<<20))
	if err != nil {
		fail(c, http.StatusBadRequest, "upload failed")
		return
	}

	if err := h.quarantine.CompleteUpload(c, key); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("failed to mark quarantine uploaded")
	}
	ok(c, gin.H{"storageKey": key, "size": written})
}
