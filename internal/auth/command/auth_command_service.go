package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/events"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/internalapi"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/obs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/utils"
)

// resetTokenTTL bounds how long a password-reset token stays redeemable.
const resetTokenTTL = 10 * time.Minute

// IdentityStore is the write-side surface of the identity repository used by
// the command service.
type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByEmail(ctx context.Context, email string, includeInactive bool) (*models.Identity, error)
	GetByID(ctx context.Context, id string, includeInactive bool) (*models.Identity, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ProfileClient is the slice of the internal API client the saga needs.
type ProfileClient interface {
	CreateProfile(ctx context.Context, req internalapi.CreateProfileRequest) (*models.ProfileView, error)
}

// EventPublisher emits advisory lifecycle events. May be nil-backed in tests.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AuthCommandService owns every mutation of the identity store: the account
// creation saga, the credential lifecycle, and the internal endpoints the
// user service calls to propagate deletions.
type AuthCommandService struct {
	repo      IdentityStore
	profiles  ProfileClient
	publisher EventPublisher
	logger    *logrus.Logger
}

func NewAuthCommandService(repo IdentityStore, profiles ProfileClient, publisher EventPublisher, logger *logrus.Logger) *AuthCommandService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AuthCommandService{
		repo:      repo,
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
	}
}

// Register runs the account creation saga:
//
//  1. commit the identity record locally; duplicate email aborts before any
//     remote call,
//  2. ask the user service to materialise the profile under the same
//     principal id (the profile side allocates the handle when none is
//     supplied),
//  3. if the remote call fails, delete the just-committed identity so no
//     orphaned credential record survives the attempt.
func (s *AuthCommandService) Register(ctx context.Context, cmd cqrs.RegisterCommand) (*models.Identity, *models.ProfileView, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	identity := &models.Identity{
		ID:           utils.NewID(),
		Email:        utils.NormalizeEmail(cmd.Email),
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		return nil, nil, err
	}

	profile, err := s.profiles.CreateProfile(ctx, internalapi.CreateProfileRequest{
		UserID: identity.ID,
		Email:  identity.Email,
		Handle: cmd.Handle,
		Bio:    cmd.Bio,
		Avatar: cmd.Avatar,
		Role:   identity.Role,
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"userId": identity.ID,
			"email":  identity.Email,
		}).Errorf("Profile creation failed, rolling back identity: %v", err)

		if _, derr := s.repo.Delete(ctx, identity.ID); derr != nil {
			// The identity is now orphaned until the delete is replayed.
			s.logger.WithField("userId", identity.ID).Errorf("Compensating delete failed: %v", derr)
		}
		return nil, nil, err
	}

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, events.UserEventsStream, events.UserRegistered, events.UserRegisteredEvent{
			UserID: identity.ID,
			Email:  identity.Email,
			Handle: profile.Handle,
		}); perr != nil {
			s.logger.Warnf("Failed to publish user.registered event: %v", perr)
		}
	}

	return identity, profile, nil
}

// RequestReset issues a single-use password reset token. Only the SHA-256
// digest is stored; the raw token is returned for out-of-band delivery.
// Issuing a new token replaces any previous one.
func (s *AuthCommandService) RequestReset(ctx context.Context, cmd cqrs.RequestResetCommand) (string, error) {
	identity, err := s.repo.GetByEmail(ctx, utils.NormalizeEmail(cmd.Email), true)
	if err != nil {
		return "", err
	}

	raw, digest, err := utils.GenerateResetToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetResetToken(ctx, identity.ID, digest, time.Now().UTC().Add(resetTokenTTL)); err != nil {
		return "", err
	}
	return raw, nil
}

// ConsumeReset redeems a reset token. The lookup compares digests only, and
// the password swap and token clearing happen in one statement, so a token
// can never be redeemed twice.
func (s *AuthCommandService) ConsumeReset(ctx context.Context, cmd cqrs.ConsumeResetCommand) error {
	passwordHash, err := utils.HashPassword(cmd.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	consumed, err := s.repo.ConsumeResetToken(ctx, utils.HashToken(cmd.Token), passwordHash)
	if err != nil {
		return err
	}
	if !consumed {
		return apperrors.ErrInvalidOrExpiredToken
	}
	return nil
}

// UpdatePassword changes the password after verifying the current one.
func (s *AuthCommandService) UpdatePassword(ctx context.Context, cmd cqrs.UpdatePasswordCommand) error {
	identity, err := s.repo.GetByID(ctx, cmd.UserID, false)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrUnauthorized
		}
		return err
	}
	if !utils.CheckPassword(cmd.CurrentPassword, identity.PasswordHash) {
		return apperrors.ErrIncorrectPassword
	}

	passwordHash, err := utils.HashPassword(cmd.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, cmd.UserID, passwordHash)
}

// SyncStatus is the receiver behind PATCH /internal/status. It must be
// idempotent under replay: an absent principal id is a successful no-op.
func (s *AuthCommandService) SyncStatus(ctx context.Context, cmd cqrs.SyncStatusCommand) error {
	found, err := s.repo.SetActive(ctx, cmd.UserID, cmd.Active)
	if err != nil {
		return err
	}
	if !found {
		s.logger.WithField("userId", cmd.UserID).Info("Status sync for absent identity, treating as no-op")
	}
	return nil
}

// PurgeIdentity is the receiver behind DELETE /internal/users/:id. Replaying
// the call for an already-purged principal succeeds.
func (s *AuthCommandService) PurgeIdentity(ctx context.Context, cmd cqrs.PurgeIdentityCommand) error {
	found, err := s.repo.Delete(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if !found {
		s.logger.WithField("userId", cmd.UserID).Info("Hard delete for absent identity, treating as no-op")
	}
	return nil
}

// HandleProfileEvent is the Redis stream subscriber handler. The events are
// advisory only; deletion consistency runs over the internal HTTP endpoints,
// so the handler records what it saw and nothing more.
func (s *AuthCommandService) HandleProfileEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.UserDeactivated, events.UserPurged:
		dataBytes, _ := json.Marshal(event.Data)
		var data struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(dataBytes, &data); err != nil {
			return fmt.Errorf("failed to unmarshal %s event: %w", event.Type, err)
		}
		s.logger.WithFields(logrus.Fields{
			"userId": data.UserID,
			"type":   event.Type,
		}).Info("Observed profile lifecycle event")
		obs.CountLifecycleEvent(event.Type)
	}
	return nil
}
