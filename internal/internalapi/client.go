// Package internalapi is the typed client for the service-to-service
// endpoints. Every call carries a fixed timeout and performs no retries;
// retry and compensation policy belongs to the calling saga or coordinator.
package internalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// Client calls one peer service's /internal endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the peer at baseURL, e.g.
// "http://auth-service:8081/internal".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateProfileRequest is the body of POST /internal/profiles. UserID is the
// principal id committed by the auth service; the profile store must use it
// verbatim and never mint its own.
type CreateProfileRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Handle string `json:"username,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
}

// CreateProfile materialises the profile half of a principal. The endpoint is
// idempotent: a replay for an existing principal id succeeds and returns the
// existing profile.
func (c *Client) CreateProfile(ctx context.Context, req CreateProfileRequest) (*models.ProfileView, error) {
	var out struct {
		Data struct {
			User models.ProfileView `json:"user"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/profiles", req, &out); err != nil {
		return nil, err
	}
	return &out.Data.User, nil
}

// SyncStatus mirrors an activation change onto the peer's record.
func (c *Client) SyncStatus(ctx context.Context, userID string, active bool) error {
	body := map[string]any{
		"userId":   userID,
		"isActive": active,
	}
	return c.do(ctx, http.MethodPatch, "/status", body, nil)
}

// HardDelete removes the peer's record for the principal permanently.
func (c *Client) HardDelete(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}

	var failure struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&failure)
	if failure.Message == "" {
		failure.Message = http.StatusText(resp.StatusCode)
	}
	return &apperrors.RejectedError{StatusCode: resp.StatusCode, Message: failure.Message}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrPeerTimeout, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", apperrors.ErrPeerTimeout, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrPeerUnreachable, err)
}
