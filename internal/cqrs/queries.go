package cqrs

// ---------- Profile queries ----------

// GetProfileQuery fetches a single profile. IncludeInactive threads the
// visibility rule explicitly through the read path: self-service reads pass
// false, admin reads pass true.
type GetProfileQuery struct {
	UserID          string
	IncludeInactive bool
}

// ListProfilesQuery is the paginated admin listing.
type ListProfilesQuery struct {
	Page            int
	Limit           int
	IncludeInactive bool
}

// ---------- Note queries ----------

type GetNoteQuery struct {
	NoteID string
	UserID string
}

type ListNotesQuery struct {
	UserID string
	Page   int
	Limit  int
}
