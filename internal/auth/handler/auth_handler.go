package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// AuthCommander defines the write-side operations used by AuthHandler.
type AuthCommander interface {
	Register(ctx context.Context, cmd cqrs.RegisterCommand) (*models.Identity, *models.ProfileView, error)
	RequestReset(ctx context.Context, cmd cqrs.RequestResetCommand) (string, error)
	ConsumeReset(ctx context.Context, cmd cqrs.ConsumeResetCommand) error
	UpdatePassword(ctx context.Context, cmd cqrs.UpdatePasswordCommand) error
}

// AuthQuerier defines the read-side operations used by AuthHandler.
type AuthQuerier interface {
	Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error)
	RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error)
}

// AuthHandler hosts the public credential endpoints.
type AuthHandler struct {
	commands AuthCommander
	queries  AuthQuerier
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio      string `json:"bio,omitempty" validate:"omitempty,max=250"`
	Avatar   string `json:"avatar,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

func NewAuthHandler(commands AuthCommander, queries AuthQuerier) *AuthHandler {
	return &AuthHandler{commands: commands, queries: queries}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	identity, profile, err := h.commands.Register(c.Request.Context(), cqrs.RegisterCommand{
		Email:    req.Email,
		Password: req.Password,
		Handle:   req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		// A business rejection from the profile side keeps its status and
		// message; everything else goes through the shared mapping.
		var rejected *apperrors.RejectedError
		if errors.As(err, &rejected) {
			middleware.RespondWithError(c, rejected.StatusCode, rejected.Message)
			return
		}
		if errors.Is(err, apperrors.ErrPeerUnreachable) || errors.Is(err, apperrors.ErrPeerTimeout) {
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
			return
		}
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusCreated, gin.H{
		"user":    identity,
		"profile": profile,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	token, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, AuthResponse{Token: token})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	token, err := h.queries.RefreshToken(c.Request.Context(), cqrs.RefreshTokenCommand{
		Token: req.Token,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, AuthResponse{Token: token})
}

// ForgotPassword issues a reset token. The raw token is returned in the
// response for out-of-band delivery by the caller.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	token, err := h.commands.RequestReset(c.Request.Context(), cqrs.RequestResetCommand{
		Email: req.Email,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"resetToken": token})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.ConsumeReset(c.Request.Context(), cqrs.ConsumeResetCommand{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"message": "Password has been reset"})
}

// UpdatePassword changes the password of the authenticated principal.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.UpdatePassword(c.Request.Context(), cqrs.UpdatePasswordCommand{
		UserID:          userID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"message": "Password updated"})
}
