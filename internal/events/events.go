package events

import "time"

// Event types. Lifecycle events are advisory: the cross-service consistency
// protocol runs over the internal HTTP endpoints, and consumers of these
// streams must tolerate missing or duplicated events.
const (
	UserRegistered  = "user.registered"
	UserUpdated     = "user.updated"
	UserDeactivated = "user.deactivated"
	UserPurged      = "user.purged"
)

// Stream names
const (
	UserEventsStream = "user.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type UserRegisteredEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Handle string `json:"username"`
}

type UserUpdatedEvent struct {
	UserID string `json:"userId"`
	Handle string `json:"username"`
}

type UserDeactivatedEvent struct {
	UserID string `json:"userId"`
}

type UserPurgedEvent struct {
	UserID string `json:"userId"`
}
