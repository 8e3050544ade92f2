package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/utils"
)

// IdentityReader is the read-side surface of the identity repository.
type IdentityReader interface {
	GetByEmail(ctx context.Context, email string, includeInactive bool) (*models.Identity, error)
	GetByID(ctx context.Context, id string, includeInactive bool) (*models.Identity, error)
}

// AuthQueryService handles login and token refresh. These operations never
// mutate the identity store, so there is no command service involvement.
type AuthQueryService struct {
	repo   IdentityReader
	secret []byte
	ttl    time.Duration
}

func NewAuthQueryService(repo IdentityReader, secret []byte, ttl time.Duration) *AuthQueryService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthQueryService{repo: repo, secret: secret, ttl: ttl}
}

// Login verifies credentials and issues a session token. A deactivated
// account with otherwise correct credentials is refused distinctly from a
// wrong password.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	identity, err := s.repo.GetByEmail(ctx, utils.NormalizeEmail(cmd.Email), true)
	if err != nil {
		return "", apperrors.ErrInvalidCredentials
	}
	if !utils.CheckPassword(cmd.Password, identity.PasswordHash) {
		return "", apperrors.ErrInvalidCredentials
	}
	if !identity.Active {
		return "", apperrors.ErrAccountDeactivated
	}
	return s.generateToken(identity.ID)
}

// RefreshToken exchanges a still-valid token for a fresh one. The referenced
// principal must still exist and be active; a token for a purged or
// deactivated identity verifies cryptographically but is rejected.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	userID, err := s.VerifyToken(ctx, cmd.Token)
	if err != nil {
		return "", err
	}
	return s.generateToken(userID)
}

// VerifyToken checks signature and expiry, then confirms the principal is
// present and active in the identity store.
func (s *AuthQueryService) VerifyToken(ctx context.Context, tokenString string) (string, error) {
	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.ErrUnauthorized
	}

	identity, err := s.repo.GetByID(ctx, claims.UserID, false)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrUnauthorized
		}
		return "", err
	}
	return identity.ID, nil
}

func (s *AuthQueryService) generateToken(userID string) (string, error) {
	claims := middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}
