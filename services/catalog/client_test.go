package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiSearchPayload = `{
	"page": 1,
	"results": [
		{"id": 603, "media_type": "movie", "title": "The Matrix", "poster_path": "/matrix.jpg", "release_date": "1999-03-30"},
		{"id": 6384, "media_type": "person", "name": "Keanu Reeves"},
		{"id": 2599, "media_type": "tv", "name": "The Matrix Defence", "first_air_date": "2003-10-19"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token", "en-US", srv.Client())
	c.SetBaseURL(srv.URL)
	return c, srv
}

func TestSearchFiltersToMoviesAndTV(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "Matrix", q.Get("query"))
		assert.Equal(t, "false", q.Get("include_adult"))
		assert.Equal(t, "en-US", q.Get("language"))
		assert.Equal(t, "1", q.Get("page"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(multiSearchPayload))
	})

	refs, err := c.Search(context.Background(), "Matrix")
	require.NoError(t, err)
	require.Len(t, refs, 2, "person entry should be dropped")

	// Source order is preserved.
	assert.Equal(t, int64(603), refs[0].ID)
	assert.Equal(t, "movie", refs[0].MediaType)
	assert.Equal(t, "The Matrix", refs[0].Title)
	assert.Equal(t, "1999-03-30", refs[0].ReleaseDate)

	assert.Equal(t, int64(2599), refs[1].ID)
	assert.Equal(t, "tv", refs[1].MediaType)
	assert.Equal(t, "The Matrix Defence", refs[1].Title, "tv title falls back to name")
	assert.Equal(t, "2003-10-19", refs[1].ReleaseDate, "tv date falls back to first_air_date")
}

func TestSearchBlankQueryIssuesNoRequest(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	for _, q := range []string{"", "   ", "\t\n"} {
		refs, err := c.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, refs)
	}
	assert.Equal(t, int64(0), calls.Load(), "blank queries must not hit the network")
}

func TestSearchServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"boom"}`, http.StatusInternalServerError)
	})

	refs, err := c.Search(context.Background(), "Matrix")
	require.ErrorIs(t, err, ErrSearchFailed)
	assert.Nil(t, refs)
}

func TestSearchWithoutToken(t *testing.T) {
	c := NewClient("", "en-US", nil)
	_, err := c.Search(context.Background(), "Matrix")
	require.ErrorIs(t, err, ErrTokenRequired)
}

func TestPosterURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w92/matrix.jpg", PosterURL("/matrix.jpg", PosterSizeSmall))
	assert.Equal(t, "", PosterURL("", PosterSizeLarge))
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"":      "en-US",
		"en":    "en-US",
		"en_US": "en-US",
		"pt-br": "pt-BR",
		"fr-FR": "fr-FR",
	}
	for input, expect := range tests {
		assert.Equal(t, expect, normalizeLanguage(input), "input %q", input)
	}
}
