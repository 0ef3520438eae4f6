package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsAllowedOrigin_Localhost(t *testing.T) {
	for _, origin := range []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:8080",
	} {
		if !IsAllowedOrigin(origin, nil) {
			t.Fatalf("expected %q to be allowed", origin)
		}
	}
}

func TestIsAllowedOrigin_ConfiguredOrigins(t *testing.T) {
	allowed := []string{"https://thelyst.example.com"}

	if !IsAllowedOrigin("https://thelyst.example.com", allowed) {
		t.Fatal("expected configured origin to be allowed")
	}
	if !IsAllowedOrigin("https://thelyst.example.com/", allowed) {
		t.Fatal("expected trailing slash to be tolerated")
	}
	if IsAllowedOrigin("https://evil.example.com", allowed) {
		t.Fatal("expected unlisted origin to be blocked")
	}
}

func TestIsAllowedOrigin_RejectsPublicAndGarbage(t *testing.T) {
	for _, origin := range []string{
		"",
		"https://example.com",
		"not a url",
		"http://203.0.113.7",
	} {
		if IsAllowedOrigin(origin, nil) {
			t.Fatalf("expected %q to be blocked", origin)
		}
	}
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRouter_CORSHeaders(t *testing.T) {
	router := NewRouter([]string{"https://thelyst.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://thelyst.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected preflight 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://thelyst.example.com" {
		t.Fatalf("unexpected allow-origin %q", got)
	}

	// Untrusted origins get no CORS headers.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
}
