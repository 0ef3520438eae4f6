package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"thelyst/models"
)

// Minimal TMDB v3 client (bearer auth, multi-search endpoint only — first
// results page, no pagination).

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p/"

	// Poster sizes used by the playlist views.
	PosterSizeSmall  = "w92"
	PosterSizeMedium = "w200"
	PosterSizeLarge  = "w500"
)

var (
	ErrTokenRequired = errors.New("catalog bearer token not configured")
	ErrSearchFailed  = errors.New("search failed")
)

// Client queries the external media catalog. It is safe for concurrent use.
type Client struct {
	token    string
	language string
	httpc    *http.Client
	baseURL  string

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient creates a catalog client. The token is the bearer secret
// injected from the environment at deploy time.
func NewClient(token, language string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		token:       token,
		language:    normalizeLanguage(language),
		httpc:       httpc,
		baseURL:     defaultBaseURL,
		minInterval: 20 * time.Millisecond,
	}
}

// SetBaseURL points the client at a different catalog host. Used by tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// IsConfigured reports whether a bearer token is present.
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.token) != ""
}

// searchResponse mirrors the multi-search payload. Movies carry
// title/release_date, TV entries carry name/first_air_date.
type searchResponse struct {
	Results []searchEntry `json:"results"`
}

type searchEntry struct {
	ID           int64  `json:"id"`
	MediaType    string `json:"media_type"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

// Search queries the catalog for movies and TV shows matching query.
// A blank query issues no network call and returns an empty result.
// Entries whose media type is neither movie nor tv are dropped; the
// order of the remaining entries matches the catalog response.
func (c *Client) Search(ctx context.Context, query string) ([]models.MediaRef, error) {
	if strings.TrimSpace(query) == "" {
		return []models.MediaRef{}, nil
	}
	if !c.IsConfigured() {
		return nil, ErrTokenRequired
	}

	c.throttle()

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("language", c.language)
	params.Set("page", "1")

	endpoint := c.baseURL + "/search/multi?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	refs := make([]models.MediaRef, 0, len(payload.Results))
	for _, entry := range payload.Results {
		if entry.MediaType != models.MediaTypeMovie && entry.MediaType != models.MediaTypeTV {
			continue
		}
		refs = append(refs, entry.toMediaRef())
	}
	return refs, nil
}

func (e searchEntry) toMediaRef() models.MediaRef {
	title := e.Title
	if title == "" {
		title = e.Name
	}
	date := e.ReleaseDate
	if date == "" {
		date = e.FirstAirDate
	}
	return models.MediaRef{
		ID:          e.ID,
		MediaType:   e.MediaType,
		Title:       title,
		PosterPath:  e.PosterPath,
		ReleaseDate: date,
	}
}

// PosterURL derives the image URL for a poster path at the given size.
// Returns empty when the catalog supplied no poster.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + size + posterPath
}

// throttle enforces a minimum interval between outbound catalog calls.
func (c *Client) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	if wait := c.minInterval - time.Since(c.lastRequest); wait > 0 {
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

// normalizeLanguage coerces loose locale values into the BCP-47 form the
// catalog expects, defaulting to en-US.
func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return "en-US"
	}
	parts := strings.SplitN(lang, "-", 2)
	code := strings.ToLower(parts[0])
	if len(parts) == 2 {
		return code + "-" + strings.ToUpper(parts[1])
	}
	if code == "en" {
		return "en-US"
	}
	return code + "-" + strings.ToUpper(code)
}
