package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"tracker_service/internal/models"

	"github.com/gin-gonic/gin"
)

type registerDeviceRequest struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	OwnerID    string `json:"ownerId"`
}

type updateDeviceRequest struct {
	DeviceName *string `json:"deviceName"`
	IsActive   *bool   `json:"isActive"`
}

// POST /api/devices/register
//
// Registration is idempotent: re-registering an existing device id returns
// the token minted on first registration, byte for byte.
func (h *Handler) RegisterDevice(c *gin.Context) {
	const op = "handler.RegisterDevice"

	log := h.log.With(slog.String("op", op))

	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if strings.TrimSpace(req.DeviceID) == "" {
		newErrorResponse(c, http.StatusBadRequest, "device id is required")

		return
	}

	if strings.TrimSpace(req.DeviceName) == "" {
		newErrorResponse(c, http.StatusBadRequest, "device name is required")

		return
	}

	if strings.TrimSpace(req.OwnerID) == "" {
		newErrorResponse(c, http.StatusBadRequest, "owner id is required")

		return
	}

	device, err := h.serviceLayer.RegisterDevice(c.Request.Context(), req.DeviceID, req.DeviceName, req.OwnerID)
	if err != nil {
		log.Error("failed to register device", slog.String("device_id", req.DeviceID), slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: "device registered successfully",
		Data: gin.H{
			"deviceId": device.DeviceID,
			"token":    device.Token,
		},
	})
}

// GET /api/devices/status
func (h *Handler) DeviceStatus(c *gin.Context) {
	deviceID, ok := deviceIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	device, err := h.serviceLayer.GetDevice(c.Request.Context(), deviceID)
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{Success: true, Data: device})
}

// PUT /api/devices/update
func (h *Handler) UpdateDevice(c *gin.Context) {
	const op = "handler.UpdateDevice"

	log := h.log.With(slog.String("op", op))

	deviceID, ok := deviceIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	var req updateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if req.DeviceName != nil && strings.TrimSpace(*req.DeviceName) == "" {
		newErrorResponse(c, http.StatusBadRequest, "device name must not be empty")

		return
	}

	device, err := h.serviceLayer.UpdateDevice(c.Request.Context(), deviceID, models.DeviceUpdate{
		DeviceName: req.DeviceName,
		IsActive:   req.IsActive,
	})
	if err != nil {
		log.Error("failed to update device", slog.String("device_id", deviceID), slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "device updated successfully",
		Data:    device,
	})
}

// GET /api/devices/owner/:ownerId
func (h *Handler) OwnerDevices(c *gin.Context) {
	const op = "handler.OwnerDevices"

	log := h.log.With(slog.String("op", op))

	ownerID := c.Param("ownerId")

	devices, err := h.serviceLayer.ListOwnerDevices(c.Request.Context(), ownerID)
	if err != nil {
		log.Error("failed to list devices", slog.String("owner_id", ownerID), slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	count := len(devices)
	if devices == nil {
		devices = []models.DeviceWithLocation{}
	}

	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Count:   &count,
		Data:    devices,
	})
}
