package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mobileshield/internal/application/usecase"
)

type DeviceHandler struct {
	devices  *usecase.DeviceUseCase
	commands *usecase.CommandUseCase
}

func NewDeviceHandler(d *usecase.DeviceUseCase, cmd *usecase.CommandUseCase) *DeviceHandler {
	return &DeviceHandler{devices: d, commands: cmd}
}

type registerDeviceReq struct {
	DeviceID  string `json:"deviceId" binding:"required,max=64"`
	Platform  string `json:"platform" binding:"required,oneof=android ios"`
	Name      string `json:"name" binding:"omitempty,max=100"`
	OSVersion string `json:"osVersion" binding:"omitempty,max=32"`
	PushToken string `json:"pushToken" binding:"omitempty,max=512"`
}

type commandReq struct {
	DeviceID    string `json:"deviceId" binding:"required,max=64"`
	CommandType string `json:"commandType" binding:"required,oneof=locate ring lock wipe"`
}

type locationReq struct {
	CommandID string  `json:"commandId" binding:"required,uuid"`
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
	Accuracy  float64 `json:"accuracy" binding:"omitempty,min=0"`
}

func (h *DeviceHandler) Register(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req registerDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	device, err := h.devices.Register(c, userID, usecase.RegisterDeviceInput{
		DeviceID:  req.DeviceID,
		Platform:  req.Platform,
		Name:      req.Name,
		OSVersion: req.OSVersion,
		PushToken: req.PushToken,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, device)
}

func (h *DeviceHandler) Command(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req commandReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	cmd, err := h.commands.Issue(c, userID, req.DeviceID, req.CommandType)
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, cmd)
}

func (h *DeviceHandler) Location(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	commandID, _ := uuid.Parse(req.CommandID)
	cmd, err := h.commands.ReportLocation(c, userID, usecase.LocationReport{
		CommandID: commandID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, cmd)
}

func (h *DeviceHandler) ListCommands(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	deviceID := c.Query("deviceId")
	if deviceID == "" {
		fail(c, http.StatusBadRequest, "deviceId query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	cmds, err := h.commands.List(c, userID, deviceID, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, cmds)
}

func (h *DeviceHandler) List(c *gin.Context) {
	userID, okID := currentUserID(c)
	if !okID {
		return
	}

	devices, err := h.devices.ListByUser(c, userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, devices)
}
