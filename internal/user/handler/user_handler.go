package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.ProfileView, error)
	AdminUpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.ProfileView, error)
	Deactivate(ctx context.Context, cmd cqrs.DeactivateProfileCommand) error
	Purge(ctx context.Context, cmd cqrs.PurgeProfileCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.ProfileView, error)
	ListProfiles(ctx context.Context, q cqrs.ListProfilesQuery) ([]models.ProfileView, *models.Pagination, error)
}

// UserHandler hosts profile self-service and the admin management surface.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type UpdateProfileRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio      string `json:"bio,omitempty" validate:"omitempty,max=250"`
	Avatar   string `json:"avatar,omitempty"`
	// Password fields are rejected explicitly; password changes belong to
	// the auth service.
	Password string `json:"password,omitempty"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

// GetMe returns the authenticated principal's own profile. A token whose
// profile is gone or deactivated is rejected as unauthorized, not not-found.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{
		UserID:          userID,
		IncludeInactive: false,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusUnauthorized, "Not authorized")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"user": view})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password != "" {
		middleware.RespondWithError(c, http.StatusBadRequest, "Password updates are not handled by the user service")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.UpdateProfile(c.Request.Context(), cqrs.UpdateProfileCommand{
		UserID: userID,
		Handle: req.Username,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusUnauthorized, "Not authorized")
			return
		}
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"user": view})
}

// DeleteMe deactivates the authenticated principal (soft delete). The local
// deactivation is the user-visible contract; sync to the auth service is
// best-effort inside the command service.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.commands.Deactivate(c.Request.Context(), cqrs.DeactivateProfileCommand{UserID: userID})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusUnauthorized, "Not authorized")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate account")
		return
	}

	c.Status(http.StatusNoContent)
}

// ---- admin surface ----

func (h *UserHandler) ListUsers(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	views, pagination, err := h.queries.ListProfiles(c.Request.Context(), cqrs.ListProfilesQuery{
		Page:            page,
		Limit:           limit,
		IncludeInactive: true,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list users")
		return
	}

	middleware.RespondWithList(c, http.StatusOK, len(views), gin.H{
		"users":      views,
		"pagination": pagination,
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	view, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{
		UserID:          c.Param("id"),
		IncludeInactive: true,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"user": view})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.AdminUpdateProfile(c.Request.Context(), cqrs.UpdateProfileCommand{
		UserID: c.Param("id"),
		Handle: req.Username,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"user": view})
}

// DeleteUser hard-deletes a principal (admin only). Success is reported once
// the local delete commits; identity-side propagation is best-effort and
// replay-safe.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	err := h.commands.Purge(c.Request.Context(), cqrs.PurgeProfileCommand{UserID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// requireAdmin checks the requester's profile role. The role lives on the
// profile record, so deactivated admins lose access immediately.
func (h *UserHandler) requireAdmin(c *gin.Context) bool {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not authorized")
		c.Abort()
		return false
	}

	requester, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{
		UserID:          userID,
		IncludeInactive: false,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not authorized")
		c.Abort()
		return false
	}
	if requester.Role != models.RoleAdmin {
		middleware.RespondWithError(c, http.StatusForbidden, "Admin access required")
		c.Abort()
		return false
	}
	return true
}
