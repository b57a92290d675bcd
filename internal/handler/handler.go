package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tracker_service/internal/apperr"
	"tracker_service/internal/auth"
	"tracker_service/internal/metrics"
	"tracker_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	serviceLayer  service.Service
	tokens        *auth.TokenService
	ownerTokenTTL time.Duration
	env           string
	log           *slog.Logger
}

func NewHandler(srvc service.Service, tokens *auth.TokenService, ownerTokenTTL time.Duration, env string, lgr *slog.Logger) *Handler {
	return &Handler{
		serviceLayer:  srvc,
		tokens:        tokens,
		ownerTokenTTL: ownerTokenTTL,
		env:           env,
		log:           lgr,
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

type successResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Success: false, Error: errMessage})
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidCredentials, apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindAccountDisabled:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError maps a taxonomy error to its status; anything outside the
// taxonomy is a 500 with internals echoed only in the local environment.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnknown {
		h.log.Error("internal error", slog.String("path", c.FullPath()), slog.Any("error", err))

		resp := errorResponse{Success: false, Error: "internal error"}
		if h.env == "local" {
			resp.Detail = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)

		return
	}

	c.AbortWithStatusJSON(statusOf(kind), errorResponse{
		Success: false,
		Error:   apperr.MessageOf(err, "request failed"),
	})
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger(), h.requestMetrics())

	router.GET("/api/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", h.RegisterOwner)
		authGroup.POST("/login", h.Login)

		protected := authGroup.Group("", h.OwnerAuth())
		{
			protected.GET("/verify", h.VerifyToken)
			protected.GET("/profile", h.GetProfile)
			protected.PUT("/profile", h.UpdateProfile)
			protected.POST("/change-password", h.ChangePassword)
			protected.POST("/logout", h.Logout)
		}
	}

	devices := router.Group("/api/devices")
	{
		devices.POST("/register", h.RegisterDevice)
		devices.GET("/status", h.DeviceAuth(), h.DeviceStatus)
		devices.PUT("/update", h.DeviceAuth(), h.UpdateDevice)
		devices.GET("/owner/:ownerId", h.OwnerAuth(), h.OwnerDevices)
	}

	locations := router.Group("/api/locations")
	{
		locations.POST("/upload", h.DeviceAuth(), h.UploadLocation)
		locations.POST("/upload/batch", h.DeviceAuth(), h.UploadLocationBatch)
		locations.GET("/latest/:deviceId", h.LatestLocation)
		locations.GET("/history/:deviceId", h.LocationHistory)
		locations.GET("/mode/:deviceId", h.LocationsByMode)
	}

	return router
}

// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		h.log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

func (h *Handler) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
