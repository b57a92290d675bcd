package handler

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"tracker_service/internal/auth"
	"tracker_service/internal/models"

	"github.com/gin-gonic/gin"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

type registerOwnerRequest struct {
	OwnerID     string `json:"ownerId"`
	OwnerName   string `json:"ownerName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
}

type loginRequest struct {
	OwnerID  string `json:"ownerId"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateProfileRequest struct {
	OwnerName   *string `json:"ownerName"`
	Email       *string `json:"email"`
	CompanyName *string `json:"companyName"`
	Phone       *string `json:"phone"`
}

type authData struct {
	OwnerID     string `json:"ownerId"`
	OwnerName   string `json:"ownerName"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName,omitempty"`
	Token       string `json:"token"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// POST /api/auth/register
func (h *Handler) RegisterOwner(c *gin.Context) {
	const op = "handler.RegisterOwner"

	log := h.log.With(slog.String("op", op))

	var req registerOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if strings.TrimSpace(req.OwnerID) == "" {
		newErrorResponse(c, http.StatusBadRequest, "owner id is required")

		return
	}

	if strings.TrimSpace(req.OwnerName) == "" {
		newErrorResponse(c, http.StatusBadRequest, "owner name is required")

		return
	}

	if !IsValidEmail(strings.TrimSpace(req.Email)) {
		newErrorResponse(c, http.StatusBadRequest, "valid email is required")

		return
	}

	if len(req.Password) < auth.MinPasswordLength {
		newErrorResponse(c, http.StatusBadRequest, "password must be at least 6 characters")

		return
	}

	owner, err := h.serviceLayer.RegisterOwner(c.Request.Context(),
		req.OwnerID, req.OwnerName, req.Email, req.Password,
		strings.TrimSpace(req.CompanyName), strings.TrimSpace(req.Phone),
	)
	if err != nil {
		log.Error("failed to register owner", slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	token, err := h.tokens.Issue(models.PrincipalOwner, owner.OwnerID, h.ownerTokenTTL)
	if err != nil {
		log.Error("failed to issue token", slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: "owner registered successfully",
		Data: authData{
			OwnerID:   owner.OwnerID,
			OwnerName: owner.OwnerName,
			Email:     owner.Email,
			Token:     token,
			ExpiresIn: int64(h.ownerTokenTTL.Seconds()),
		},
	})
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if strings.TrimSpace(req.OwnerID) == "" || req.Password == "" {
		newErrorResponse(c, http.StatusBadRequest, "ownerId and password are required")

		return
	}

	owner, err := h.serviceLayer.Authenticate(c.Request.Context(), req.OwnerID, req.Password)
	if err != nil {
		log.Warn("login rejected", slog.String("owner_id", req.OwnerID))

		h.respondError(c, err)

		return
	}

	token, err := h.tokens.Issue(models.PrincipalOwner, owner.OwnerID, h.ownerTokenTTL)
	if err != nil {
		log.Error("failed to issue token", slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "login successful",
		Data: authData{
			OwnerID:     owner.OwnerID,
			OwnerName:   owner.OwnerName,
			Email:       owner.Email,
			CompanyName: owner.CompanyName,
			Token:       token,
			ExpiresIn:   int64(h.ownerTokenTTL.Seconds()),
		},
	})
}

// GET /api/auth/verify
func (h *Handler) VerifyToken(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	owner, err := h.serviceLayer.GetOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "token is valid",
		Data: gin.H{
			"ownerId":   owner.OwnerID,
			"ownerName": owner.OwnerName,
			"email":     owner.Email,
		},
	})
}

// GET /api/auth/profile
func (h *Handler) GetProfile(c *gin.Context) {
	ownerID, ok := ownerIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	owner, err := h.serviceLayer.GetOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{Success: true, Data: owner})
}

// PUT /api/auth/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	const op = "handler.UpdateProfile"

	log := h.log.With(slog.String("op", op))

	ownerID, ok := ownerIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if req.OwnerName != nil && strings.TrimSpace(*req.OwnerName) == "" {
		newErrorResponse(c, http.StatusBadRequest, "owner name must not be empty")

		return
	}

	if req.Email != nil && !IsValidEmail(strings.TrimSpace(*req.Email)) {
		newErrorResponse(c, http.StatusBadRequest, "valid email is required")

		return
	}

	owner, err := h.serviceLayer.UpdateOwnerProfile(c.Request.Context(), ownerID, models.OwnerProfileUpdate{
		OwnerName:   req.OwnerName,
		Email:       req.Email,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
	})
	if err != nil {
		log.Error("failed to update profile", slog.String("owner_id", ownerID), slog.Any("error", err))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "profile updated successfully",
		Data:    owner,
	})
}

// POST /api/auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	const op = "handler.ChangePassword"

	log := h.log.With(slog.String("op", op))

	ownerID, ok := ownerIDFrom(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if req.CurrentPassword == "" {
		newErrorResponse(c, http.StatusBadRequest, "current password is required")

		return
	}

	if len(req.NewPassword) < auth.MinPasswordLength {
		newErrorResponse(c, http.StatusBadRequest, "new password must be at least 6 characters")

		return
	}

	if err := h.serviceLayer.ChangePassword(c.Request.Context(), ownerID, req.CurrentPassword, req.NewPassword); err != nil {
		log.Warn("password change rejected", slog.String("owner_id", ownerID))

		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "password changed successfully",
	})
}

// POST /api/auth/logout
//
// Tokens are stateless, so logout is a client-side discard; the endpoint
// exists so clients have a uniform call to end a session.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "logout successful",
	})
}
