package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// NoteCommander defines the write-side operations used by NoteHandler.
type NoteCommander interface {
	CreateNote(ctx context.Context, cmd cqrs.CreateNoteCommand) (*models.Note, error)
	UpdateNote(ctx context.Context, cmd cqrs.UpdateNoteCommand) (*models.Note, error)
	DeleteNote(ctx context.Context, cmd cqrs.DeleteNoteCommand) error
}

// NoteQuerier defines the read-side operations used by NoteHandler.
type NoteQuerier interface {
	GetNote(ctx context.Context, q cqrs.GetNoteQuery) (*models.Note, error)
	ListNotes(ctx context.Context, q cqrs.ListNotesQuery) ([]models.Note, *models.Pagination, error)
}

// NoteHandler routes note CRUD. Ownership is enforced by scoping every
// operation to the authenticated principal id.
type NoteHandler struct {
	commands NoteCommander
	queries  NoteQuerier
}

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,max=120"`
	Content string `json:"content,omitempty"`
}

type UpdateNoteRequest struct {
	Title   string `json:"title,omitempty" validate:"omitempty,max=120"`
	Content string `json:"content,omitempty"`
}

func NewNoteHandler(commands NoteCommander, queries NoteQuerier) *NoteHandler {
	return &NoteHandler{commands: commands, queries: queries}
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	note, err := h.commands.CreateNote(c.Request.Context(), cqrs.CreateNoteCommand{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create note")
		return
	}

	middleware.RespondWithData(c, http.StatusCreated, gin.H{"note": note})
}

func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	notes, pagination, err := h.queries.ListNotes(c.Request.Context(), cqrs.ListNotesQuery{
		UserID: userID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list notes")
		return
	}

	middleware.RespondWithList(c, http.StatusOK, len(notes), gin.H{
		"notes":      notes,
		"pagination": pagination,
	})
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	note, err := h.queries.GetNote(c.Request.Context(), cqrs.GetNoteQuery{
		NoteID: c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	note, err := h.commands.UpdateNote(c.Request.Context(), cqrs.UpdateNoteCommand{
		NoteID:  c.Param("id"),
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, gin.H{"note": note})
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.commands.DeleteNote(c.Request.Context(), cqrs.DeleteNoteCommand{
		NoteID: c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
