package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// IdentityRepository owns all access to the identities table. No other
// service touches this store; cross-service effects arrive through the
// /internal endpoints only.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Init creates the schema on first start.
func (r *IdentityRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS identities (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			reset_token_hash TEXT,
			reset_token_expires TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to init identities table: %w", err)
	}
	return nil
}

func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (id, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.PasswordHash, identity.Role,
		identity.Active, identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &apperrors.DuplicateFieldError{Field: "email"}
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string, includeInactive bool) (*models.Identity, error) {
	query := `
		SELECT id, email, password_hash, role, is_active, reset_token_hash, reset_token_expires, created_at, updated_at
		FROM identities
		WHERE email = $1
	`
	if !includeInactive {
		query += ` AND is_active`
	}
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*models.Identity, error) {
	query := `
		SELECT id, email, password_hash, role, is_active, reset_token_hash, reset_token_expires, created_at, updated_at
		FROM identities
		WHERE id = $1
	`
	if !includeInactive {
		query += ` AND is_active`
	}
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// SetActive flips the active flag. Returns false when no row matched, which
// callers of the status-sync endpoint treat as a successful no-op.
func (r *IdentityRepository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE identities SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return false, fmt.Errorf("failed to update identity status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes the identity permanently. Returns false when the row was
// already absent.
func (r *IdentityRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete identity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

// SetResetToken stores the digest and expiry of a freshly issued reset token,
// replacing any previous one so at most one token is live per principal.
func (r *IdentityRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET reset_token_hash = $2, reset_token_expires = $3, updated_at = NOW()
		WHERE id = $1
	`, id, tokenHash, expires)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ConsumeResetToken matches an unexpired token by digest and, in the same
// statement, installs the new password hash and clears both token columns.
// Either everything happens or nothing does. Returns false when no unexpired
// token matched.
func (r *IdentityRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET password_hash = $2, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = NOW()
		WHERE reset_token_hash = $1 AND reset_token_expires > NOW()
	`, tokenHash, newPasswordHash)
	if err != nil {
		return false, fmt.Errorf("failed to consume reset token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *IdentityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE identities SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *IdentityRepository) scanOne(row *sql.Row) (*models.Identity, error) {
	var identity models.Identity
	var tokenHash sql.NullString
	var tokenExpires sql.NullTime

	err := row.Scan(
		&identity.ID, &identity.Email, &identity.PasswordHash, &identity.Role,
		&identity.Active, &tokenHash, &tokenExpires,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if tokenHash.Valid {
		identity.ResetTokenHash = tokenHash.String
	}
	if tokenExpires.Valid {
		t := tokenExpires.Time
		identity.ResetTokenExpiry = &t
	}
	return &identity, nil
}
