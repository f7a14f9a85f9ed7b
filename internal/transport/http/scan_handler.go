package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mobileshield/internal/application/usecase"
)

type ScanHandler struct {
	scans *usecase.ScanUseCase
}

func NewScanHandler(s *usecase.ScanUseCase) *ScanHandler {
	return &ScanHandler{scans: s}
}

type hashCheckReq struct {
	Hashes []string `json:"hashes" binding:"required,min=1,max=100,dive,min=32,max=128"`
}

type reportedThreat struct {
	FileHash string `json:"fileHash" binding:"required,min=32,max=128"`
	FilePath string `json:"filePath" binding:"omitempty,max=512"`
}

type scanReportReq struct {
	DeviceID     string           `json:"deviceId" binding:"required,max=64"`
	ScanType     string           `json:"scanType" binding:"required,oneof=quick full app"`
	Status       string           `json:"status" binding:"required,oneof=completed cancelled failed"`
	FilesScanned int              `json:"filesScanned" binding:"min=0"`
	ThreatsFound int              `json:"threatsFound" binding:"min=0"`
	DurationMS   int              `json:"durationMs" binding:"min=0"`
	Threats      []reportedThreat `json:"threats" binding:"omitempty,max=100,dive"`
}

func (h *ScanHandler) HashCheck(c *gin.Context) {
	var req hashCheckReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	verdicts, err := h.scans.HashCheck(c, req.Hashes)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"results": verdicts})
}

func (h *ScanHandler) Report(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req scanReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	threats := make([]usecase.ReportedThreat, len(req.Threats))
	for i, t := range req.Threats {
		threats[i] = usecase.ReportedThreat{FileHash: t.FileHash, FilePath: t.FilePath}
	}

	scan, err := h.scans.Report(c, userID, usecase.ScanReportInput{
		DeviceID:     req.DeviceID,
		ScanType:     req.ScanType,
		Status:       req.Status,
		FilesScanned: req.FilesScanned,
		ThreatsFound: req.ThreatsFound,
		DurationMS:   req.DurationMS,
		Threats:      threats,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, scan)
}
