package command

import (
	"context"
	"time"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/utils"
)

// NoteStore is the write-side surface of the note repository.
type NoteStore interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id, userID string) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id, userID string) error
}

// NoteCommandService writes notes for the authenticated principal.
type NoteCommandService struct {
	repo NoteStore
}

func NewNoteCommandService(repo NoteStore) *NoteCommandService {
	return &NoteCommandService{repo: repo}
}

func (s *NoteCommandService) CreateNote(ctx context.Context, cmd cqrs.CreateNoteCommand) (*models.Note, error) {
	now := time.Now().UTC()
	note := &models.Note{
		ID:        utils.NewID(),
		UserID:    cmd.UserID,
		Title:     cmd.Title,
		Content:   cmd.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteCommandService) UpdateNote(ctx context.Context, cmd cqrs.UpdateNoteCommand) (*models.Note, error) {
	note, err := s.repo.GetByID(ctx, cmd.NoteID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if cmd.Title != "" {
		note.Title = cmd.Title
	}
	if cmd.Content != "" {
		note.Content = cmd.Content
	}
	note.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteCommandService) DeleteNote(ctx context.Context, cmd cqrs.DeleteNoteCommand) error {
	return s.repo.Delete(ctx, cmd.NoteID, cmd.UserID)
}
