package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"thelyst/handlers"
	"thelyst/models"
	"thelyst/services/catalog"
)

func TestSearch_EmptyQueryReturnsEmptyList(t *testing.T) {
	upstreamCalls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
	}))
	defer upstream.Close()

	client := catalog.NewClient("test-token", "en-US", upstream.Client())
	client.SetBaseURL(upstream.URL)
	handler := handlers.NewSearchHandler(client, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search?query=", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var results []models.MediaRef
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
	if upstreamCalls != 0 {
		t.Fatalf("blank query must not hit the upstream, got %d calls", upstreamCalls)
	}
}

func TestSearch_ReturnsPlayableResults(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"id": 603, "media_type": "movie", "title": "The Matrix", "release_date": "1999-03-30"},
			{"id": 1245, "media_type": "person", "name": "Keanu Reeves"},
			{"id": 2599, "media_type": "tv", "name": "Lost", "first_air_date": "2004-09-22"}
		]}`))
	}))
	defer upstream.Close()

	client := catalog.NewClient("test-token", "en-US", upstream.Client())
	client.SetBaseURL(upstream.URL)
	handler := handlers.NewSearchHandler(client, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search?query=matrix", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var results []models.MediaRef
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected person entries filtered out, got %d results", len(results))
	}
	if results[0].ID != 603 || results[1].ID != 2599 {
		t.Fatalf("unexpected result order: %+v", results)
	}
}

func TestSearch_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	client := catalog.NewClient("test-token", "en-US", upstream.Client())
	client.SetBaseURL(upstream.URL)
	handler := handlers.NewSearchHandler(client, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search?query=matrix", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "search failed" {
		t.Fatalf("unexpected error message %q", body["error"])
	}
}
