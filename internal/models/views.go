package models

import "time"

// ProfileView is the read-optimised projection of a profile, cached in Redis
// by the user service. Active is populated for admin reads and never
// serialised on public responses handled through self-service routes.
type ProfileView struct {
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

// Pagination is the list metadata block returned by paginated endpoints.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}
