package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/lib/pq"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// ProfileRepository handles all state-mutating operations for profiles and
// operates exclusively against the user service's own PostgreSQL store.
// Profile ids always arrive from the auth service; this repository never
// generates one.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Init creates the schema on first start.
func (r *ProfileRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			handle TEXT NOT NULL UNIQUE,
			bio TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to init profiles table: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, handle, bio, avatar, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Email, profile.Handle, profile.Bio, profile.Avatar,
		profile.Role, profile.Active, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &apperrors.DuplicateFieldError{Field: duplicateField(pqErr)}
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*models.Profile, error) {
	query := `
		SELECT id, email, handle, bio, avatar, role, is_active, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	if !includeInactive {
		query += ` AND is_active`
	}
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// HandleExists reports whether any profile, active or not, holds the handle.
func (r *ProfileRepository) HandleExists(ctx context.Context, handle string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE handle = $1)`, handle).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check handle: %w", err)
	}
	return exists, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET handle = $2, bio = $3, avatar = $4, role = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Handle, profile.Bio, profile.Avatar, profile.Role, profile.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &apperrors.DuplicateFieldError{Field: duplicateField(pqErr)}
		}
		return fmt.Errorf("failed to update profile: %w", err)
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

// SetActive flips the active flag. Idempotent: re-deactivating an inactive
// profile is not an error.
func (r *ProfileRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update profile status: %w", err)
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

// Delete removes the profile permanently. Returns false when the row was
// already absent.
func (r *ProfileRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

// List returns one page of profiles plus pagination metadata.
func (r *ProfileRepository) List(ctx context.Context, page, limit int, includeInactive bool) ([]models.Profile, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where := ""
	if !includeInactive {
		where = " WHERE is_active"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`+where).Scan(&total); err != nil {
		return nil, nil, fmt.Errorf("failed to count profiles: %w", err)
	}

	query := `
		SELECT id, email, handle, bio, avatar, role, is_active, created_at, updated_at
		FROM profiles` + where + `
		ORDER BY created_at
		OFFSET $1 LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Handle, &p.Bio, &p.Avatar, &p.Role, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	pagination := &models.Pagination{
		Total: total,
		Page:  page,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
	return profiles, pagination, nil
}

func (r *ProfileRepository) scanOne(row *sql.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.Handle, &p.Bio, &p.Avatar, &p.Role, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// duplicateField maps a unique-violation constraint name to the user-facing
// field name.
func duplicateField(pqErr *pq.Error) string {
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return "email"
	case strings.Contains(pqErr.Constraint, "handle"):
		return "username"
	default:
		return "id"
	}
}
