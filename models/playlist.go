package models

import "time"

// Playlist is a named, user-owned ordered collection of media references.
// Items keep insertion order; there is no reordering operation. Duplicate
// catalog entries are permitted — the store never deduplicates.
type Playlist struct {
	ID          string     `json:"id"`
	UserID      string     `json:"-"` // owner scoping, never serialized to clients
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Items       []MediaRef `json:"items"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ItemCount returns the number of stored references.
func (p Playlist) ItemCount() int {
	return len(p.Items)
}
