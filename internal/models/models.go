package models

import "time"

// Roles shared by the identity and profile stores.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the credential record owned by the auth service. The same ID
// value keys the profile record in the user service; the two stores never
// share a database.
type Identity struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Role             string     `json:"role"`
	Active           bool       `json:"isActive"`
	ResetTokenHash   string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdTimestamp"`
	UpdatedAt        time.Time  `json:"updatedTimestamp"`
}

// Profile is the public-facing record owned by the user service. ID is always
// supplied by the auth service at creation time, never generated locally.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Handle    string    `json:"username"`
	Bio       string    `json:"bio,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdTimestamp"`
	UpdatedAt time.Time `json:"updatedTimestamp"`
}

// Note belongs to exactly one principal, referenced by UserID.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdTimestamp"`
	UpdatedAt time.Time `json:"updatedTimestamp"`
}
