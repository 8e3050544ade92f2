package cqrs

// ---------- Auth commands ----------

// RegisterCommand starts the account creation saga: commit the identity
// locally, then materialise the profile through the user service.
type RegisterCommand struct {
	Email    string
	Password string
	Handle   string
	Bio      string
	Avatar   string
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}

type RequestResetCommand struct {
	Email string
}

type ConsumeResetCommand struct {
	Token       string
	NewPassword string
}

type UpdatePasswordCommand struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// SyncStatusCommand mirrors a profile-side activation change onto the
// identity record. Replay-safe: an absent principal is a no-op.
type SyncStatusCommand struct {
	UserID string
	Active bool
}

// PurgeIdentityCommand removes the identity record permanently.
// Replay-safe: an absent principal is a no-op.
type PurgeIdentityCommand struct {
	UserID string
}

// ---------- Profile commands ----------

// CreateProfileCommand materialises a profile for a principal created by the
// auth service. UserID is the externally supplied principal id.
type CreateProfileCommand struct {
	UserID string
	Email  string
	Handle string
	Bio    string
	Avatar string
	Role   string
}

type UpdateProfileCommand struct {
	UserID string
	Handle string
	Bio    string
	Avatar string
}

// DeactivateProfileCommand is the self-service soft delete.
type DeactivateProfileCommand struct {
	UserID string
}

// PurgeProfileCommand is the administrative hard delete.
type PurgeProfileCommand struct {
	UserID string
}

// ---------- Note commands ----------

type CreateNoteCommand struct {
	UserID  string
	Title   string
	Content string
}

type UpdateNoteCommand struct {
	NoteID  string
	UserID  string
	Title   string
	Content string
}

type DeleteNoteCommand struct {
	NoteID string
	UserID string
}
