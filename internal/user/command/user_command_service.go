package command

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/events"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// ProfileStore is the write-side surface of the profile repository.
type ProfileStore interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string, includeInactive bool) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ReadModel keeps the Redis projection in step with the write store.
type ReadModel interface {
	CacheProfileView(ctx context.Context, view *models.ProfileView)
	InvalidateProfileView(ctx context.Context, userID string)
}

// IdentityClient is the slice of the internal API client the deletion
// coordinator uses to propagate status onto the identity store.
type IdentityClient interface {
	SyncStatus(ctx context.Context, userID string, active bool) error
	HardDelete(ctx context.Context, userID string) error
}

// HandleAllocator derives a unique handle when the caller supplied none.
type HandleAllocator interface {
	Allocate(ctx context.Context, email string) (string, error)
}

// EventPublisher emits advisory lifecycle events. May be nil.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService owns every mutation of the profile store, including the
// two deletion flows that must propagate to the identity service.
type UserCommandService struct {
	writeRepo ProfileStore
	readRepo  ReadModel
	identity  IdentityClient
	allocator HandleAllocator
	publisher EventPublisher
	logger    *logrus.Logger
}

func NewUserCommandService(
	writeRepo ProfileStore,
	readRepo ReadModel,
	identity IdentityClient,
	allocator HandleAllocator,
	publisher EventPublisher,
	logger *logrus.Logger,
) *UserCommandService {
	if logger == nil {
		logger = logrus.New()
	}
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		identity:  identity,
		allocator: allocator,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateProfile materialises the profile half of a principal created by the
// auth service. The principal id arrives in the command and is stored
// verbatim. The operation is idempotent: a replay for an id that already has
// a profile returns the existing profile, so an ambiguous network outcome on
// the auth side can be safely retried.
func (s *UserCommandService) CreateProfile(ctx context.Context, cmd cqrs.CreateProfileCommand) (*models.ProfileView, bool, error) {
	if existing, err := s.writeRepo.GetByID(ctx, cmd.UserID, true); err == nil {
		return profileToView(existing), false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	handle := cmd.Handle
	if handle == "" {
		var err error
		handle, err = s.allocator.Allocate(ctx, cmd.Email)
		if err != nil {
			return nil, false, err
		}
	}

	role := cmd.Role
	if role == "" {
		role = models.RoleUser
	}

	now := time.Now().UTC()
	profile := &models.Profile{
		ID:        cmd.UserID,
		Email:     cmd.Email,
		Handle:    handle,
		Bio:       cmd.Bio,
		Avatar:    cmd.Avatar,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.writeRepo.Create(ctx, profile); err != nil {
		// A concurrent replay may have inserted the row between the
		// existence check and the insert; that replay wins.
		if dup, ok := apperrors.Duplicate(err); ok && dup.Field == "id" {
			existing, gerr := s.writeRepo.GetByID(ctx, cmd.UserID, true)
			if gerr == nil {
				return profileToView(existing), false, nil
			}
		}
		return nil, false, err
	}

	view := profileToView(profile)
	s.readRepo.CacheProfileView(ctx, view)
	return view, true, nil
}

// UpdateProfile applies the self-service whitelist (handle, bio, avatar) to
// an active profile.
func (s *UserCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.ProfileView, error) {
	return s.applyUpdate(ctx, cmd, false)
}

// AdminUpdateProfile is the admin variant: it reaches inactive profiles too.
func (s *UserCommandService) AdminUpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.ProfileView, error) {
	return s.applyUpdate(ctx, cmd, true)
}

func (s *UserCommandService) applyUpdate(ctx context.Context, cmd cqrs.UpdateProfileCommand, includeInactive bool) (*models.ProfileView, error) {
	profile, err := s.writeRepo.GetByID(ctx, cmd.UserID, includeInactive)
	if err != nil {
		return nil, err
	}

	if cmd.Handle != "" {
		profile.Handle = cmd.Handle
	}
	if cmd.Bio != "" {
		profile.Bio = cmd.Bio
	}
	if cmd.Avatar != "" {
		profile.Avatar = cmd.Avatar
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.writeRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	view := profileToView(profile)
	// Never cache an inactive profile: the cache serves active-only reads.
	if profile.Active {
		s.readRepo.CacheProfileView(ctx, view)
	} else {
		s.readRepo.InvalidateProfileView(ctx, profile.ID)
	}

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
			UserID: profile.ID,
			Handle: profile.Handle,
		}); perr != nil {
			s.logger.Warnf("Failed to publish user.updated event: %v", perr)
		}
	}
	return view, nil
}

// Deactivate is the self-service soft delete: flip the local active flag
// (the authoritative, user-visible effect), then propagate the change to the
// identity service. Propagation failure is logged and swallowed: the caller
// must never see deactivation rejected because the peer was unreachable; the
// remote flag converges on a later replay.
func (s *UserCommandService) Deactivate(ctx context.Context, cmd cqrs.DeactivateProfileCommand) error {
	if err := s.writeRepo.SetActive(ctx, cmd.UserID, false); err != nil {
		return err
	}
	s.readRepo.InvalidateProfileView(ctx, cmd.UserID)

	if err := s.identity.SyncStatus(ctx, cmd.UserID, false); err != nil {
		s.logger.WithField("userId", cmd.UserID).Errorf("Failed to sync deactivation to auth service: %v", err)
	} else {
		s.logger.WithField("userId", cmd.UserID).Info("Synced deactivation to auth service")
	}

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, events.UserEventsStream, events.UserDeactivated, events.UserDeactivatedEvent{
			UserID: cmd.UserID,
		}); perr != nil {
			s.logger.Warnf("Failed to publish user.deactivated event: %v", perr)
		}
	}
	return nil
}

// Purge is the administrative hard delete: remove the profile locally, then
// propagate. Same availability policy as Deactivate: once the local delete
// committed, the operation reports success regardless of the peer call, and
// the identity-side endpoint tolerates replays.
func (s *UserCommandService) Purge(ctx context.Context, cmd cqrs.PurgeProfileCommand) error {
	found, err := s.writeRepo.Delete(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.ErrNotFound
	}
	s.readRepo.InvalidateProfileView(ctx, cmd.UserID)

	if err := s.identity.HardDelete(ctx, cmd.UserID); err != nil {
		s.logger.WithField("userId", cmd.UserID).Errorf("Failed to sync hard delete to auth service: %v", err)
	} else {
		s.logger.WithField("userId", cmd.UserID).Info("Synced hard delete to auth service")
	}

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, events.UserEventsStream, events.UserPurged, events.UserPurgedEvent{
			UserID: cmd.UserID,
		}); perr != nil {
			s.logger.Warnf("Failed to publish user.purged event: %v", perr)
		}
	}
	return nil
}

func profileToView(p *models.Profile) *models.ProfileView {
	return &models.ProfileView{
		ID:        p.ID,
		Email:     p.Email,
		Handle:    p.Handle,
		Bio:       p.Bio,
		Avatar:    p.Avatar,
		Role:      p.Role,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
