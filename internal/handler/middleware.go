package handler

import (
	"net/http"
	"strings"

	"tracker_service/internal/metrics"
	"tracker_service/internal/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware for downstream handlers.
const (
	ctxOwnerID  = "OwnerID"
	ctxDeviceID = "DeviceID"
	ctxDevice   = "Device"
)

func (h *Handler) OwnerAuth() gin.HandlerFunc {
	return h.requireAuth(models.PrincipalOwner)
}

func (h *Handler) DeviceAuth() gin.HandlerFunc {
	return h.requireAuth(models.PrincipalDevice)
}

// requireAuth resolves the bearer token to a live principal of the expected
// kind. The principal is re-read from the store on every request, so
// deactivation takes effect immediately even though tokens carry no
// revocation state.
func (h *Handler) requireAuth(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			h.rejectAuth(c, kind, "authorization token is missing")

			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			h.rejectAuth(c, kind, "invalid authorization header")

			return
		}

		principalID, err := h.tokens.Verify(parts[1], kind)
		if err != nil {
			h.rejectAuth(c, kind, "invalid or expired token")

			return
		}

		switch kind {
		case models.PrincipalOwner:
			owner, err := h.serviceLayer.GetOwner(c.Request.Context(), principalID)
			if err != nil || !owner.IsActive {
				h.rejectAuth(c, kind, "owner not found or inactive")

				return
			}

			c.Set(ctxOwnerID, owner.OwnerID)

		case models.PrincipalDevice:
			device, err := h.serviceLayer.GetDevice(c.Request.Context(), principalID)
			if err != nil || !device.IsActive {
				h.rejectAuth(c, kind, "device not found or inactive")

				return
			}

			c.Set(ctxDeviceID, device.DeviceID)
			c.Set(ctxDevice, device)
		}

		c.Next()
	}
}

func (h *Handler) rejectAuth(c *gin.Context, kind, message string) {
	metrics.AuthFailures.WithLabelValues(kind).Inc()

	newErrorResponse(c, http.StatusUnauthorized, message)
}

func ownerIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxOwnerID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func deviceIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxDeviceID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
