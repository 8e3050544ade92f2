package query

import (
	"context"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// NoteReader is the read-side surface of the note repository.
type NoteReader interface {
	GetByID(ctx context.Context, id, userID string) (*models.Note, error)
	List(ctx context.Context, userID string, page, limit int) ([]models.Note, *models.Pagination, error)
}

// NoteQueryService reads notes for the authenticated principal.
type NoteQueryService struct {
	repo NoteReader
}

func NewNoteQueryService(repo NoteReader) *NoteQueryService {
	return &NoteQueryService{repo: repo}
}

func (s *NoteQueryService) GetNote(ctx context.Context, q cqrs.GetNoteQuery) (*models.Note, error) {
	return s.repo.GetByID(ctx, q.NoteID, q.UserID)
}

func (s *NoteQueryService) ListNotes(ctx context.Context, q cqrs.ListNotesQuery) ([]models.Note, *models.Pagination, error) {
	return s.repo.List(ctx, q.UserID, q.Page, q.Limit)
}
