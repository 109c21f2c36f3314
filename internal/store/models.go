package store

import "time"

// Design is one item of the flat designs collection. Unlike the profile
// aggregate it has its own store-assigned id and lives in a plain table.
type Design struct {
	ID          string
	Title       string
	Description string
	Category    string
	ImageURL    string
	CreatedAt   time.Time
	SortOrder   int
}

// DesignPatch carries a partial update; nil fields are left untouched.
type DesignPatch struct {
	Title       *string
	Description *string
	Category    *string
	ImageURL    *string
	SortOrder   *int
}
