package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tracker_service/internal/metrics"
	"tracker_service/internal/models"
	"tracker_service/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type locationUploadRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Mode      string   `json:"mode"`
}

// validate enforces the coordinate bounds before anything reaches the
// ledger. Bounds are inclusive.
func (r *locationUploadRequest) validate() string {
	switch {
	case r.Latitude == nil || *r.Latitude < -90 || *r.Latitude > 90:
		return "latitude must be between -90 and 90"
	case r.Longitude == nil || *r.Longitude < -180 || *r.Longitude > 180:
		return "longitude must be between -180 and 180"
	case r.Accuracy != nil && *r.Accuracy < 0:
		return "accuracy must be a positive number"
	case r.Mode != "" && r.Mode != models.ModeBackground && r.Mode != models.ModeRealtime:
		return "mode must be either background or realtime"
	}
	return ""
}

func (r *locationUploadRequest) toInput() service.LocationInput {
	in := service.LocationInput{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Mode:      r.Mode,
	}
	if r.Accuracy != nil {
		in.Accuracy = *r.Accuracy
	}
	return in
}

// POST /api/locations/upload
func (h *Handler) UploadLocation(c *gin.Context) {
	const op = "handler.UploadLocation"

	log := h.log.With(slog.String("op", op))

	deviceID, ok := deviceIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	var req locationUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if msg := req.validate(); msg != "" {
		newErrorResponse(c, http.StatusBadRequest, msg)

		return
	}

	sample, err := h.serviceLayer.IngestLocation(c.Request.Context(), deviceID, req.toInput())
	if err != nil {
		log.Error("failed to store location", slog.String("device_id", deviceID), slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	metrics.LocationsIngested.Inc()

	c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: "location recorded successfully",
		Data:    sample,
	})
}

// POST /api/locations/upload/batch
func (h *Handler) UploadLocationBatch(c *gin.Context) {
	const op = "handler.UploadLocationBatch"

	log := h.log.With(slog.String("op", op))

	deviceID, ok := deviceIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	var reqs []locationUploadRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "request body must be an array")

		return
	}

	if len(reqs) == 0 {
		newErrorResponse(c, http.StatusBadRequest, "request body must be a non-empty array")

		return
	}

	inputs := make([]service.LocationInput, 0, len(reqs))
	for _, req := range reqs {
		if msg := req.validate(); msg != "" {
			newErrorResponse(c, http.StatusBadRequest, msg)

			return
		}
		inputs = append(inputs, req.toInput())
	}

	count, err := h.serviceLayer.IngestLocationBatch(c.Request.Context(), deviceID, inputs)
	if err != nil {
		log.Error("failed to store location batch", slog.String("device_id", deviceID), slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	metrics.LocationsIngested.Add(float64(count))

	c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: strconv.Itoa(count) + " locations recorded successfully",
		Count:   &count,
	})
}

// GET /api/locations/latest/:deviceId
func (h *Handler) LatestLocation(c *gin.Context) {
	sample, err := h.serviceLayer.LatestLocation(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{Success: true, Data: sample})
}

// GET /api/locations/history/:deviceId?startTime=&endTime=&limit=
//
// startTime and endTime are inclusive millisecond epoch bounds.
func (h *Handler) LocationHistory(c *gin.Context) {
	query := service.HistoryQuery{Limit: defaultHistoryLimit}

	if raw := c.Query("startTime"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			newErrorResponse(c, http.StatusBadRequest, "startTime must be a valid timestamp")

			return
		}
		start := time.UnixMilli(ms)
		query.Start = &start
	}

	if raw := c.Query("endTime"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			newErrorResponse(c, http.StatusBadRequest, "endTime must be a valid timestamp")

			return
		}
		end := time.UnixMilli(ms)
		query.End = &end
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxHistoryLimit {
			newErrorResponse(c, http.StatusBadRequest, "limit must be between 1 and 1000")

			return
		}
		query.Limit = limit
	}

	samples, err := h.serviceLayer.LocationHistory(c.Request.Context(), c.Param("deviceId"), query)
	if err != nil {
		h.respondError(c, err)

		return
	}

	h.respondSamples(c, samples)
}

// GET /api/locations/mode/:deviceId?mode=&limit=
func (h *Handler) LocationsByMode(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			newErrorResponse(c, http.StatusBadRequest, "limit must be between 1 and 1000")

			return
		}
		limit = parsed
	}

	samples, err := h.serviceLayer.LocationsByMode(c.Request.Context(), c.Param("deviceId"), c.Query("mode"), limit)
	if err != nil {
		h.respondError(c, err)

		return
	}

	h.respondSamples(c, samples)
}

func (h *Handler) respondSamples(c *gin.Context, samples []models.LocationSample) {
	count := len(samples)
	if samples == nil {
		samples = []models.LocationSample{}
	}

	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Count:   &count,
		Data:    samples,
	})
}
