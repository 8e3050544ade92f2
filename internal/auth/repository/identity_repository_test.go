package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

func newMockRepo(t *testing.T) (*IdentityRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewIdentityRepository(db), mock
}

func identityRows(identity *models.Identity) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "role", "is_active",
		"reset_token_hash", "reset_token_expires", "created_at", "updated_at",
	}).AddRow(
		identity.ID, identity.Email, identity.PasswordHash, identity.Role, identity.Active,
		nil, nil, identity.CreatedAt, identity.UpdatedAt,
	)
}

func TestIdentityCreate(t *testing.T) {
	now := time.Now().UTC()
	identity := &models.Identity{
		ID: "usr-001", Email: "alice@example.com", PasswordHash: "hash",
		Role: "user", Active: true, CreatedAt: now, UpdatedAt: now,
	}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO identities").
			WithArgs(identity.ID, identity.Email, identity.PasswordHash, identity.Role, identity.Active, now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.Create(context.Background(), identity); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations: %v", err)
		}
	})

	t.Run("unique violation maps to duplicate email", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO identities").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "identities_email_key"})

		err := repo.Create(context.Background(), identity)
		dup, ok := apperrors.Duplicate(err)
		if !ok {
			t.Fatalf("expected duplicate error, got %v", err)
		}
		if dup.Field != "email" {
			t.Errorf("expected email field, got %q", dup.Field)
		}
	})
}

func TestIdentityGetByID(t *testing.T) {
	now := time.Now().UTC()
	identity := &models.Identity{
		ID: "usr-001", Email: "alice@example.com", PasswordHash: "hash",
		Role: "user", Active: true, CreatedAt: now, UpdatedAt: now,
	}

	t.Run("active-only lookup filters on is_active", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`WHERE id = \$1\s+AND is_active`).
			WithArgs("usr-001").
			WillReturnRows(identityRows(identity))

		got, err := repo.GetByID(context.Background(), "usr-001", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "usr-001" {
			t.Errorf("wrong identity: %+v", got)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations: %v", err)
		}
	})

	t.Run("includeInactive lookup omits the filter", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("FROM identities").
			WithArgs("usr-001").
			WillReturnRows(identityRows(identity))

		if _, err := repo.GetByID(context.Background(), "usr-001", true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("FROM identities").
			WithArgs("gone").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(context.Background(), "gone", true)
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestConsumeResetToken(t *testing.T) {
	t.Run("matched token swaps password and clears token in one statement", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE identities\s+SET password_hash = \$2, reset_token_hash = NULL, reset_token_expires = NULL`).
			WithArgs("digest", "newhash").
			WillReturnResult(sqlmock.NewResult(0, 1))

		consumed, err := repo.ConsumeResetToken(context.Background(), "digest", "newhash")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !consumed {
			t.Errorf("expected the token to be consumed")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations: %v", err)
		}
	})

	t.Run("expired or already consumed token matches no row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("UPDATE identities").
			WithArgs("digest", "newhash").
			WillReturnResult(sqlmock.NewResult(0, 0))

		consumed, err := repo.ConsumeResetToken(context.Background(), "digest", "newhash")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if consumed {
			t.Errorf("a second redemption must not match")
		}
	})
}

func TestSetActiveAndDelete(t *testing.T) {
	t.Run("SetActive reports absent rows", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("UPDATE identities SET is_active").
			WithArgs("gone", false).
			WillReturnResult(sqlmock.NewResult(0, 0))

		found, err := repo.SetActive(context.Background(), "gone", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found {
			t.Errorf("expected found=false for absent identity")
		}
	})

	t.Run("Delete reports absent rows", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("DELETE FROM identities").
			WithArgs("gone").
			WillReturnResult(sqlmock.NewResult(0, 0))

		found, err := repo.Delete(context.Background(), "gone")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found {
			t.Errorf("expected found=false for absent identity")
		}
	})
}

func TestSetResetToken(t *testing.T) {
	t.Run("absent identity maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("UPDATE identities").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetResetToken(context.Background(), "gone", "digest", time.Now().Add(10*time.Minute))
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("stores digest, not raw token", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		expires := time.Now().Add(10 * time.Minute)
		mock.ExpectExec("UPDATE identities").
			WithArgs("usr-001", "digest", expires).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.SetResetToken(context.Background(), "usr-001", "digest", expires); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations: %v", err)
		}
	})
}

func TestInitSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS identities").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
