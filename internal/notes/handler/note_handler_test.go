package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// ---- mock implementations ----

type mockNoteCommander struct {
	createFn func(cqrs.CreateNoteCommand) (*models.Note, error)
	updateFn func(cqrs.UpdateNoteCommand) (*models.Note, error)
	deleteFn func(cqrs.DeleteNoteCommand) error
}

func (m *mockNoteCommander) CreateNote(ctx context.Context, cmd cqrs.CreateNoteCommand) (*models.Note, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockNoteCommander) UpdateNote(ctx context.Context, cmd cqrs.UpdateNoteCommand) (*models.Note, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockNoteCommander) DeleteNote(ctx context.Context, cmd cqrs.DeleteNoteCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockNoteQuerier struct {
	getFn  func(cqrs.GetNoteQuery) (*models.Note, error)
	listFn func(cqrs.ListNotesQuery) ([]models.Note, *models.Pagination, error)
}

func (m *mockNoteQuerier) GetNote(ctx context.Context, q cqrs.GetNoteQuery) (*models.Note, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockNoteQuerier) ListNotes(ctx context.Context, q cqrs.ListNotesQuery) ([]models.Note, *models.Pagination, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeNoteAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newNoteTestRouter(cmds NoteCommander, qrys NoteQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewNoteHandler(cmds, qrys)
	v1 := r.Group("/v1/notes", fakeNoteAuth(authUserID))
	v1.POST("", h.CreateNote)
	v1.GET("", h.ListNotes)
	v1.GET("/:id", h.GetNote)
	v1.PATCH("/:id", h.UpdateNote)
	v1.DELETE("/:id", h.DeleteNote)
	return r
}

func noteDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var testNote = &models.Note{
	ID: "note-001", UserID: "usr-001", Title: "Groceries", Content: "milk",
	CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

// ---- tests ----

func TestCreateNoteHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateNoteCommand) (*models.Note, error)
		expectedStatus int
	}{
		{
			name:           "success",
			body:           map[string]interface{}{"title": "Groceries", "content": "milk"},
			createFn:       func(cqrs.CreateNoteCommand) (*models.Note, error) { return testNote, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing title",
			body:           map[string]interface{}{"content": "milk"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "store failure maps to 500",
			body:           map[string]interface{}{"title": "Groceries"},
			createFn:       func(cqrs.CreateNoteCommand) (*models.Note, error) { return nil, fmt.Errorf("db down") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockNoteCommander{createFn: tt.createFn}
			router := newNoteTestRouter(cmds, &mockNoteQuerier{}, "usr-001")
			w := noteDoRequest(router, http.MethodPost, "/v1/notes", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	t.Run("principal id comes from the token, not the body", func(t *testing.T) {
		var got cqrs.CreateNoteCommand
		cmds := &mockNoteCommander{createFn: func(cmd cqrs.CreateNoteCommand) (*models.Note, error) {
			got = cmd
			return testNote, nil
		}}
		router := newNoteTestRouter(cmds, &mockNoteQuerier{}, "usr-001")
		noteDoRequest(router, http.MethodPost, "/v1/notes", map[string]interface{}{"title": "x"})
		if got.UserID != "usr-001" {
			t.Errorf("wrong owner: %+v", got)
		}
	})
}

func TestGetNoteHandler(t *testing.T) {
	t.Run("another user's note is indistinguishable from absent", func(t *testing.T) {
		qrys := &mockNoteQuerier{getFn: func(q cqrs.GetNoteQuery) (*models.Note, error) {
			if q.UserID != "usr-001" {
				t.Errorf("lookup not scoped to the requester: %+v", q)
			}
			return nil, apperrors.ErrNotFound
		}}
		router := newNoteTestRouter(&mockNoteCommander{}, qrys, "usr-001")
		w := noteDoRequest(router, http.MethodGet, "/v1/notes/note-002", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 got %d; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("success", func(t *testing.T) {
		qrys := &mockNoteQuerier{getFn: func(cqrs.GetNoteQuery) (*models.Note, error) { return testNote, nil }}
		router := newNoteTestRouter(&mockNoteCommander{}, qrys, "usr-001")
		w := noteDoRequest(router, http.MethodGet, "/v1/notes/note-001", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
		}
	})
}

func TestUpdateNoteHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cmds := &mockNoteCommander{updateFn: func(cmd cqrs.UpdateNoteCommand) (*models.Note, error) {
			if cmd.NoteID != "note-001" || cmd.UserID != "usr-001" {
				t.Errorf("command not bound: %+v", cmd)
			}
			return testNote, nil
		}}
		router := newNoteTestRouter(cmds, &mockNoteQuerier{}, "usr-001")
		w := noteDoRequest(router, http.MethodPatch, "/v1/notes/note-001", map[string]interface{}{"title": "Updated"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("absent note maps to 404", func(t *testing.T) {
		cmds := &mockNoteCommander{updateFn: func(cqrs.UpdateNoteCommand) (*models.Note, error) {
			return nil, apperrors.ErrNotFound
		}}
		router := newNoteTestRouter(cmds, &mockNoteQuerier{}, "usr-001")
		w := noteDoRequest(router, http.MethodPatch, "/v1/notes/gone", map[string]interface{}{"title": "Updated"})
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 got %d; body: %s", w.Code, w.Body.String())
		}
	})
}

func TestDeleteNoteHandler(t *testing.T) {
	t.Run("success returns 204", func(t *testing.T) {
		cmds := &mockNoteCommander{deleteFn: func(cqrs.DeleteNoteCommand) error { return nil }}
		router := newNoteTestRouter(cmds, &mockNoteQuerier{}, "usr-001")
		w := noteDoRequest(router, http.MethodDelete, "/v1/notes/note-001", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204 got %d; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("absent note maps to 404", func(t *testing.T) {
		cmds := &mockNoteCommander{deleteFn: func(cqrs.DeleteNoteCommand) error { return apperrors.ErrNotFound }}
		router := newNoteTestRouter(cmds, &mockNoteQuerier{}, "usr-001")
		w := noteDoRequest(router, http.MethodDelete, "/v1/notes/gone", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 got %d; body: %s", w.Code, w.Body.String())
		}
	})
}

func TestListNotesHandler(t *testing.T) {
	qrys := &mockNoteQuerier{listFn: func(q cqrs.ListNotesQuery) ([]models.Note, *models.Pagination, error) {
		if q.UserID != "usr-001" {
			t.Errorf("list not scoped to the requester: %+v", q)
		}
		return []models.Note{*testNote}, &models.Pagination{Total: 1, Page: 1, Pages: 1}, nil
	}}
	router := newNoteTestRouter(&mockNoteCommander{}, qrys, "usr-001")
	w := noteDoRequest(router, http.MethodGet, "/v1/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
}
