package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mobileshield/internal/application/usecase"
)

type URLHandler struct {
	urls *usecase.URLUseCase
}

func NewURLHandler(u *usecase.URLUseCase) *URLHandler {
	return &URLHandler{urls: u}
}

type classifyReq struct {
	URL string `json:"url" binding:"required,url,max=2048"`
}

func (h *URLHandler) Classify(c *gin.Context) {
	var req classifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, h.urls.Classify(c, req.URL))
}

type TelemetryHandler struct {
	telemetry *usecase.TelemetryUseCase
}

func NewTelemetryHandler(t *usecase.TelemetryUseCase) *TelemetryHandler {
	return &TelemetryHandler{telemetry: t}
}

type telemetryEvent struct {
	EventType string          `json:"eventType" binding:"required,max=64"`
	EventData json.RawMessage `json:"eventData"`
	Timestamp time.Time       `json:"timestamp"`
}

type telemetryBatchReq struct {
	Events []telemetryEvent `json:"events" binding:"required,min=1,max=100,dive"`
}

func (h *TelemetryHandler) Batch(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req telemetryBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	events := make([]usecase.TelemetryEvent, len(req.Events))
	for i, e := range req.Events {
		events[i] = usecase.TelemetryEvent{
			EventType: e.EventType,
			EventData: e.EventData,
			Timestamp: e.Timestamp,
		}
	}

	accepted, err := h.telemetry.IngestBatch(c, userID, events)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"accepted": accepted})
}
