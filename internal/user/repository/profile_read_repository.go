package repository

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
	sharedredis "github.com/fomongole/Notes-API-Microservices-Architecture/internal/redis"
)

const profileViewKeyPrefix = "profile:view:"

// ProfileReadRepository handles profile reads. Redis serves the active-only
// view first with PostgreSQL as fallback; admin reads that include inactive
// profiles always go to PostgreSQL, so the cache can never leak a
// deactivated profile into a public read.
type ProfileReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.ProfileView]
}

func NewProfileReadRepository(db *sql.DB, redisClient *goredis.Client) *ProfileReadRepository {
	return &ProfileReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.ProfileView](redisClient, 0),
	}
}

// GetByID returns a ProfileView, consulting the cache only for active-only
// reads.
func (r *ProfileReadRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*models.ProfileView, error) {
	cacheKey := profileViewKeyPrefix + id

	if !includeInactive {
		if view, ok := r.cache.Get(ctx, cacheKey); ok {
			return view, nil
		}
	}

	query := `
		SELECT id, email, handle, bio, avatar, role, is_active, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	if !includeInactive {
		query += ` AND is_active`
	}

	var view models.ProfileView
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.Email, &view.Handle, &view.Bio, &view.Avatar,
		&view.Role, &view.Active, &view.CreatedAt, &view.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if !includeInactive {
		r.CacheProfileView(ctx, &view)
	}
	return &view, nil
}

// CacheProfileView stores or refreshes the Redis read model for a profile.
// Called by the command service after every mutation of an active profile.
func (r *ProfileReadRepository) CacheProfileView(ctx context.Context, view *models.ProfileView) {
	r.cache.Set(ctx, profileViewKeyPrefix+view.ID, view)
}

// InvalidateProfileView removes the Redis read model entry for a deactivated
// or purged profile.
func (r *ProfileReadRepository) InvalidateProfileView(ctx context.Context, userID string) {
	r.cache.Delete(ctx, profileViewKeyPrefix+userID)
}
