package playlists_test

import (
	"errors"
	"path/filepath"
	"testing"

	"thelyst/internal/database"
	"thelyst/models"
	"thelyst/services/playlists"
)

func newService(t *testing.T) *playlists.Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDB(database.Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return playlists.NewService(database.NewPlaylistRepository(db.Connection()), nil)
}

func TestCreateRequiresName(t *testing.T) {
	svc := newService(t)

	for _, name := range []string{"", "   ", "\t"} {
		if _, err := svc.Create("user1", name, "desc", nil); !errors.Is(err, playlists.ErrNameRequired) {
			t.Fatalf("expected ErrNameRequired for %q, got %v", name, err)
		}
	}

	// Validation failure must leave no trace in the store.
	if lists := svc.List("user1"); len(lists) != 0 {
		t.Fatalf("expected no playlists after rejected creates, got %d", len(lists))
	}
}

func TestCreateRoundTrip(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create("user1", "My List", "", []models.MediaRef{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned playlist ID")
	}

	lists := svc.List("user1")
	if len(lists) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(lists))
	}
	got := lists[0]
	if got.Name != "My List" || got.Description != "" || len(got.Items) != 0 {
		t.Fatalf("unexpected round-tripped playlist %+v", got)
	}
}

func TestCreateTrimsNameAndDescription(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create("user1", "  Weekend Queue  ", "  things to watch  ", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Name != "Weekend Queue" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.Description != "things to watch" {
		t.Fatalf("expected trimmed description, got %q", created.Description)
	}
}

func TestReplaceItemsKeepsDuplicates(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create("user1", "Dupes", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	matrix := models.MediaRef{ID: 603, MediaType: "movie", Title: "The Matrix"}
	updated, err := svc.ReplaceItems("user1", created.ID, []models.MediaRef{matrix, matrix})
	if err != nil {
		t.Fatalf("replace items failed: %v", err)
	}

	// Duplicate adds are documented behavior, not a bug: two entries stay.
	if len(updated.Items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(updated.Items))
	}
}

func TestGetScopedToUser(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create("alpha", "Alpha List", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Get("beta", created.ID); !errors.Is(err, playlists.ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound for other user, got %v", err)
	}
	if _, err := svc.Get("alpha", created.ID); err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
}

func TestDeleteThenGetNotFound(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create("user1", "Doomed", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete("user1", created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get("user1", created.ID); !errors.Is(err, playlists.ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound after delete, got %v", err)
	}
	if err := svc.Delete("user1", created.ID); !errors.Is(err, playlists.ErrPlaylistNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}
}

func TestAddScenarioMatrix(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create("user1", "Sci-Fi", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// User searched "Matrix", picked the movie entry, and the editor
	// appends it to the current items before persisting.
	matrix := models.MediaRef{ID: 603, MediaType: "movie", Title: "The Matrix", ReleaseDate: "1999-03-30"}
	updated, err := svc.ReplaceItems("user1", created.ID, append(created.Items, matrix))
	if err != nil {
		t.Fatalf("replace items failed: %v", err)
	}

	if len(updated.Items) != 1 {
		t.Fatalf("expected exactly one item, got %d", len(updated.Items))
	}
	if updated.Items[0].ID != 603 || updated.Items[0].MediaType != "movie" {
		t.Fatalf("unexpected item %+v", updated.Items[0])
	}
}
