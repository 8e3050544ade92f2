package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// ProfileCreator is the slice of the command service behind the internal
// create-profile endpoint.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, cmd cqrs.CreateProfileCommand) (*models.ProfileView, bool, error)
}

// InternalHandler hosts POST /internal/profiles, called by the auth service
// during registration. Replays with an id that already has a profile return
// 200 with the existing profile instead of an error, so an ambiguous network
// outcome on the caller's side can be retried safely.
type InternalHandler struct {
	commands ProfileCreator
}

type CreateProfileRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio      string `json:"bio,omitempty" validate:"omitempty,max=250"`
	Avatar   string `json:"avatar,omitempty"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

func NewInternalHandler(commands ProfileCreator) *InternalHandler {
	return &InternalHandler{commands: commands}
}

// CreateProfile handles POST /internal/profiles.
func (h *InternalHandler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, created, err := h.commands.CreateProfile(c.Request.Context(), cqrs.CreateProfileCommand{
		UserID: req.UserID,
		Email:  req.Email,
		Handle: req.Username,
		Bio:    req.Bio,
		Avatar: req.Avatar,
		Role:   req.Role,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.RespondWithData(c, status, gin.H{"user": view})
}
