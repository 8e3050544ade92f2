package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
)

// InternalCommander is the slice of the command service behind the
// service-to-service endpoints.
type InternalCommander interface {
	SyncStatus(ctx context.Context, cmd cqrs.SyncStatusCommand) error
	PurgeIdentity(ctx context.Context, cmd cqrs.PurgeIdentityCommand) error
}

// InternalHandler hosts the endpoints called by the user service to propagate
// deletions onto the identity store. Both are idempotent under replay: a
// request for an absent principal succeeds.
type InternalHandler struct {
	commands InternalCommander
}

type SyncStatusRequest struct {
	UserID string `json:"userId" validate:"required"`
	Active *bool  `json:"isActive" validate:"required"`
}

func NewInternalHandler(commands InternalCommander) *InternalHandler {
	return &InternalHandler{commands: commands}
}

// SyncStatus handles PATCH /internal/status.
func (h *InternalHandler) SyncStatus(c *gin.Context) {
	var req SyncStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.SyncStatus(c.Request.Context(), cqrs.SyncStatusCommand{
		UserID: req.UserID,
		Active: *req.Active,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to sync status")
		return
	}

	middleware.RespondWithData(c, http.StatusOK, nil)
}

// HardDelete handles DELETE /internal/users/:id.
func (h *InternalHandler) HardDelete(c *gin.Context) {
	err := h.commands.PurgeIdentity(c.Request.Context(), cqrs.PurgeIdentityCommand{
		UserID: c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	c.Status(http.StatusNoContent)
}
