package query

import (
	"context"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// ProfileViewReader serves single-profile reads (Redis first for active-only
// reads, Postgres fallback).
type ProfileViewReader interface {
	GetByID(ctx context.Context, id string, includeInactive bool) (*models.ProfileView, error)
}

// ProfileLister serves the paginated admin listing straight from Postgres.
type ProfileLister interface {
	List(ctx context.Context, page, limit int, includeInactive bool) ([]models.Profile, *models.Pagination, error)
}

// UserQueryService reads profile views. Visibility of inactive profiles is an
// explicit argument on every path, never an implicit filter.
type UserQueryService struct {
	readRepo ProfileViewReader
	lister   ProfileLister
}

func NewUserQueryService(readRepo ProfileViewReader, lister ProfileLister) *UserQueryService {
	return &UserQueryService{readRepo: readRepo, lister: lister}
}

func (s *UserQueryService) GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.ProfileView, error) {
	return s.readRepo.GetByID(ctx, q.UserID, q.IncludeInactive)
}

func (s *UserQueryService) ListProfiles(ctx context.Context, q cqrs.ListProfilesQuery) ([]models.ProfileView, *models.Pagination, error) {
	profiles, pagination, err := s.lister.List(ctx, q.Page, q.Limit, q.IncludeInactive)
	if err != nil {
		return nil, nil, err
	}

	views := make([]models.ProfileView, 0, len(profiles))
	for i := range profiles {
		p := profiles[i]
		views = append(views, models.ProfileView{
			ID:        p.ID,
			Email:     p.Email,
			Handle:    p.Handle,
			Bio:       p.Bio,
			Avatar:    p.Avatar,
			Role:      p.Role,
			Active:    p.Active,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return views, pagination, nil
}
