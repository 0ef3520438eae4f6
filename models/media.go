package models

const (
	// MediaTypeMovie and MediaTypeTV are the only catalog kinds a playlist
	// can hold. Everything else the catalog returns (people, collections)
	// is dropped at the search boundary.
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// MediaRef is an immutable snapshot of a catalog search result captured into
// a playlist. Catalog-side edits do not propagate back into stored items.
type MediaRef struct {
	ID          int64  `json:"id"`
	MediaType   string `json:"mediaType"`
	Title       string `json:"title"`
	PosterPath  string `json:"posterPath,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// IsPlayable reports whether the reference points at a watchable kind.
func (m MediaRef) IsPlayable() bool {
	return m.MediaType == MediaTypeMovie || m.MediaType == MediaTypeTV
}
