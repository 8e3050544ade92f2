package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/cqrs"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/models"
)

// ---- mock implementations ----

type mockProfileStore struct {
	createFn    func(*models.Profile) error
	getByIDFn   func(id string, includeInactive bool) (*models.Profile, error)
	updateFn    func(*models.Profile) error
	setActiveFn func(id string, active bool) error
	deleteFn    func(id string) (bool, error)
}

func (m *mockProfileStore) Create(ctx context.Context, profile *models.Profile) error {
	if m.createFn != nil {
		return m.createFn(profile)
	}
	return nil
}

func (m *mockProfileStore) GetByID(ctx context.Context, id string, includeInactive bool) (*models.Profile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id, includeInactive)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProfileStore) Update(ctx context.Context, profile *models.Profile) error {
	if m.updateFn != nil {
		return m.updateFn(profile)
	}
	return nil
}

func (m *mockProfileStore) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(id, active)
	}
	return nil
}

func (m *mockProfileStore) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return true, nil
}

type mockReadModel struct {
	cached      []*models.ProfileView
	invalidated []string
}

func (m *mockReadModel) CacheProfileView(ctx context.Context, view *models.ProfileView) {
	m.cached = append(m.cached, view)
}

func (m *mockReadModel) InvalidateProfileView(ctx context.Context, userID string) {
	m.invalidated = append(m.invalidated, userID)
}

type mockIdentityClient struct {
	syncStatusFn func(userID string, active bool) error
	hardDeleteFn func(userID string) error
	syncCalls    []string
	deleteCalls  []string
}

func (m *mockIdentityClient) SyncStatus(ctx context.Context, userID string, active bool) error {
	m.syncCalls = append(m.syncCalls, userID)
	if m.syncStatusFn != nil {
		return m.syncStatusFn(userID, active)
	}
	return nil
}

func (m *mockIdentityClient) HardDelete(ctx context.Context, userID string) error {
	m.deleteCalls = append(m.deleteCalls, userID)
	if m.hardDeleteFn != nil {
		return m.hardDeleteFn(userID)
	}
	return nil
}

type mockAllocator struct {
	allocateFn func(email string) (string, error)
	calls      int
}

func (m *mockAllocator) Allocate(ctx context.Context, email string) (string, error) {
	m.calls++
	if m.allocateFn != nil {
		return m.allocateFn(email)
	}
	return "allocated_1234", nil
}

// ---- helpers ----

func newTestService(store *mockProfileStore, read *mockReadModel, identity *mockIdentityClient, alloc *mockAllocator) *UserCommandService {
	if read == nil {
		read = &mockReadModel{}
	}
	if identity == nil {
		identity = &mockIdentityClient{}
	}
	if alloc == nil {
		alloc = &mockAllocator{}
	}
	return NewUserCommandService(store, read, identity, alloc, nil, nil)
}

func testProfile(id string, active bool) *models.Profile {
	now := time.Now().UTC()
	return &models.Profile{
		ID: id, Email: "alice@example.com", Handle: "alice_1234",
		Role: models.RoleUser, Active: active, CreatedAt: now, UpdatedAt: now,
	}
}

// ---- tests ----

func TestCreateProfile(t *testing.T) {
	cmd := cqrs.CreateProfileCommand{UserID: "usr-001", Email: "alice@example.com"}

	t.Run("first call creates and reports created", func(t *testing.T) {
		var inserted *models.Profile
		store := &mockProfileStore{createFn: func(p *models.Profile) error {
			inserted = p
			return nil
		}}
		read := &mockReadModel{}
		svc := newTestService(store, read, nil, nil)

		view, created, err := svc.CreateProfile(context.Background(), cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !created {
			t.Errorf("expected created=true on first call")
		}
		if inserted.ID != "usr-001" {
			t.Errorf("profile must carry the caller-supplied principal id, got %q", inserted.ID)
		}
		if view.Handle != "allocated_1234" {
			t.Errorf("expected allocated handle, got %q", view.Handle)
		}
		if len(read.cached) != 1 {
			t.Errorf("new profile view was not cached")
		}
	})

	t.Run("replay returns the existing profile without inserting", func(t *testing.T) {
		store := &mockProfileStore{
			getByIDFn: func(id string, includeInactive bool) (*models.Profile, error) {
				if !includeInactive {
					t.Errorf("replay detection must see inactive profiles too")
				}
				return testProfile(id, true), nil
			},
			createFn: func(*models.Profile) error {
				t.Errorf("replay must not insert")
				return nil
			},
		}
		alloc := &mockAllocator{}
		svc := newTestService(store, nil, nil, alloc)

		view, created, err := svc.CreateProfile(context.Background(), cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created {
			t.Errorf("replay must report created=false")
		}
		if view.ID != "usr-001" {
			t.Errorf("wrong profile returned: %+v", view)
		}
		if alloc.calls != 0 {
			t.Errorf("replay must not burn allocator attempts")
		}
	})

	t.Run("supplied handle skips the allocator", func(t *testing.T) {
		alloc := &mockAllocator{}
		svc := newTestService(&mockProfileStore{}, nil, nil, alloc)

		withHandle := cmd
		withHandle.Handle = "chosen_handle"
		view, _, err := svc.CreateProfile(context.Background(), withHandle)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Handle != "chosen_handle" {
			t.Errorf("supplied handle was replaced with %q", view.Handle)
		}
		if alloc.calls != 0 {
			t.Errorf("allocator ran despite a supplied handle")
		}
	})

	t.Run("concurrent replay losing the insert race re-fetches", func(t *testing.T) {
		raced := false
		store := &mockProfileStore{
			getByIDFn: func(id string, includeInactive bool) (*models.Profile, error) {
				if !raced {
					return nil, apperrors.ErrNotFound
				}
				return testProfile(id, true), nil
			},
			createFn: func(*models.Profile) error {
				raced = true
				return &apperrors.DuplicateFieldError{Field: "id"}
			},
		}
		svc := newTestService(store, nil, nil, nil)

		view, created, err := svc.CreateProfile(context.Background(), cmd)
		if err != nil {
			t.Fatalf("expected the race to resolve to the existing row, got %v", err)
		}
		if created {
			t.Errorf("losing the race must report created=false")
		}
		if view.ID != "usr-001" {
			t.Errorf("wrong profile returned: %+v", view)
		}
	})

	t.Run("duplicate handle surfaces to the caller", func(t *testing.T) {
		store := &mockProfileStore{
			createFn: func(*models.Profile) error {
				return &apperrors.DuplicateFieldError{Field: "username"}
			},
		}
		svc := newTestService(store, nil, nil, nil)

		_, _, err := svc.CreateProfile(context.Background(), cmd)
		dup, ok := apperrors.Duplicate(err)
		if !ok || dup.Field != "username" {
			t.Fatalf("expected duplicate username, got %v", err)
		}
	})

	t.Run("allocator exhaustion aborts the create", func(t *testing.T) {
		alloc := &mockAllocator{allocateFn: func(string) (string, error) { return "", apperrors.ErrHandleExhausted }}
		store := &mockProfileStore{createFn: func(*models.Profile) error {
			t.Errorf("must not insert without a handle")
			return nil
		}}
		svc := newTestService(store, nil, nil, alloc)

		_, _, err := svc.CreateProfile(context.Background(), cmd)
		if !errors.Is(err, apperrors.ErrHandleExhausted) {
			t.Fatalf("expected handle exhaustion, got %v", err)
		}
	})
}

func TestDeactivate(t *testing.T) {
	t.Run("local flip, cache invalidation, then best-effort sync", func(t *testing.T) {
		var flipped bool
		store := &mockProfileStore{setActiveFn: func(id string, active bool) error {
			if active {
				t.Errorf("deactivate must set active=false")
			}
			flipped = true
			return nil
		}}
		read := &mockReadModel{}
		identity := &mockIdentityClient{}
		svc := newTestService(store, read, identity, nil)

		if err := svc.Deactivate(context.Background(), cqrs.DeactivateProfileCommand{UserID: "usr-001"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !flipped {
			t.Errorf("local state was not flipped")
		}
		if len(read.invalidated) != 1 || read.invalidated[0] != "usr-001" {
			t.Errorf("cached view was not invalidated: %v", read.invalidated)
		}
		if len(identity.syncCalls) != 1 {
			t.Errorf("status was not propagated")
		}
	})

	t.Run("peer failure is swallowed once the local flip committed", func(t *testing.T) {
		identity := &mockIdentityClient{
			syncStatusFn: func(string, bool) error { return fmt.Errorf("sync status: %w", apperrors.ErrPeerUnreachable) },
		}
		svc := newTestService(&mockProfileStore{}, nil, identity, nil)

		if err := svc.Deactivate(context.Background(), cqrs.DeactivateProfileCommand{UserID: "usr-001"}); err != nil {
			t.Fatalf("peer failure must not surface, got %v", err)
		}
	})

	t.Run("local failure aborts before the peer call", func(t *testing.T) {
		store := &mockProfileStore{setActiveFn: func(string, bool) error { return apperrors.ErrNotFound }}
		identity := &mockIdentityClient{}
		svc := newTestService(store, nil, identity, nil)

		err := svc.Deactivate(context.Background(), cqrs.DeactivateProfileCommand{UserID: "gone"})
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if len(identity.syncCalls) != 0 {
			t.Errorf("peer must not be called when the local commit failed")
		}
	})
}

func TestPurge(t *testing.T) {
	t.Run("local delete, invalidation, best-effort propagation", func(t *testing.T) {
		read := &mockReadModel{}
		identity := &mockIdentityClient{}
		svc := newTestService(&mockProfileStore{}, read, identity, nil)

		if err := svc.Purge(context.Background(), cqrs.PurgeProfileCommand{UserID: "usr-001"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(read.invalidated) != 1 {
			t.Errorf("cached view was not invalidated")
		}
		if len(identity.deleteCalls) != 1 {
			t.Errorf("hard delete was not propagated")
		}
	})

	t.Run("peer failure is swallowed once the local delete committed", func(t *testing.T) {
		identity := &mockIdentityClient{
			hardDeleteFn: func(string) error { return fmt.Errorf("hard delete: %w", apperrors.ErrPeerTimeout) },
		}
		svc := newTestService(&mockProfileStore{}, nil, identity, nil)

		if err := svc.Purge(context.Background(), cqrs.PurgeProfileCommand{UserID: "usr-001"}); err != nil {
			t.Fatalf("peer failure must not surface, got %v", err)
		}
	})

	t.Run("absent profile maps to not found and skips propagation", func(t *testing.T) {
		store := &mockProfileStore{deleteFn: func(string) (bool, error) { return false, nil }}
		identity := &mockIdentityClient{}
		svc := newTestService(store, nil, identity, nil)

		err := svc.Purge(context.Background(), cqrs.PurgeProfileCommand{UserID: "gone"})
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if len(identity.deleteCalls) != 0 {
			t.Errorf("peer must not be called for an absent profile")
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Run("self-service update skips inactive profiles", func(t *testing.T) {
		store := &mockProfileStore{
			getByIDFn: func(id string, includeInactive bool) (*models.Profile, error) {
				if includeInactive {
					t.Errorf("self-service update must not see inactive profiles")
				}
				return testProfile(id, true), nil
			},
		}
		read := &mockReadModel{}
		svc := newTestService(store, read, nil, nil)

		view, err := svc.UpdateProfile(context.Background(), cqrs.UpdateProfileCommand{UserID: "usr-001", Bio: "new bio"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Bio != "new bio" {
			t.Errorf("bio not applied: %+v", view)
		}
		if len(read.cached) != 1 {
			t.Errorf("updated view was not re-cached")
		}
	})

	t.Run("admin update reaches inactive profiles but never caches them", func(t *testing.T) {
		store := &mockProfileStore{
			getByIDFn: func(id string, includeInactive bool) (*models.Profile, error) {
				if !includeInactive {
					return nil, apperrors.ErrNotFound
				}
				return testProfile(id, false), nil
			},
		}
		read := &mockReadModel{}
		svc := newTestService(store, read, nil, nil)

		_, err := svc.AdminUpdateProfile(context.Background(), cqrs.UpdateProfileCommand{UserID: "usr-001", Bio: "admin edit"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(read.cached) != 0 {
			t.Errorf("inactive profile must not be cached for active-only reads")
		}
		if len(read.invalidated) != 1 {
			t.Errorf("stale view must be invalidated instead")
		}
	})
}
