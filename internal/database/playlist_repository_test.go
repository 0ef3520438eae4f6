package database

import (
	"errors"
	"path/filepath"
	"testing"

	"thelyst/models"
)

// setupTestRepo creates a test database and playlist repository.
func setupTestRepo(t *testing.T) *PlaylistRepository {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPlaylistRepository(db.Connection())
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	p := &models.Playlist{
		ID:          "pl1",
		UserID:      "user123",
		Name:        "My List",
		Description: "",
		Items:       []models.MediaRef{},
	}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}

	got, err := repo.GetByID("user123", "pl1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "My List" {
		t.Errorf("expected name %q, got %q", "My List", got.Name)
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Errorf("expected empty items slice, got %#v", got.Items)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	repo := setupTestRepo(t)

	p := &models.Playlist{ID: "pl1", UserID: "alpha", Name: "Alpha List"}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.GetByID("beta", "pl1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestListByUserOrdersByCreation(t *testing.T) {
	repo := setupTestRepo(t)

	for _, id := range []string{"a", "b", "c"} {
		p := &models.Playlist{ID: id, UserID: "user123", Name: "List " + id}
		if err := repo.Create(p); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}

	lists, err := repo.ListByUser("user123")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(lists) != 3 {
		t.Fatalf("expected 3 playlists, got %d", len(lists))
	}
	for i, id := range []string{"a", "b", "c"} {
		if lists[i].ID != id {
			t.Errorf("expected playlist %d to be %q, got %q", i, id, lists[i].ID)
		}
	}
}

func TestReplaceItemsKeepsDuplicatesAndOrder(t *testing.T) {
	repo := setupTestRepo(t)

	p := &models.Playlist{ID: "pl1", UserID: "user123", Name: "Dupes"}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	matrix := models.MediaRef{ID: 603, MediaType: "movie", Title: "The Matrix"}
	items := []models.MediaRef{matrix, matrix}
	if err := repo.ReplaceItems("user123", "pl1", items); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	got, err := repo.GetByID("user123", "pl1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected duplicate entries to be kept, got %d items", len(got.Items))
	}
	if got.Items[0].ID != 603 || got.Items[1].ID != 603 {
		t.Errorf("unexpected items %#v", got.Items)
	}
}

func TestReplaceItemsMissingPlaylist(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.ReplaceItems("user123", "nope", []models.MediaRef{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := setupTestRepo(t)

	p := &models.Playlist{ID: "pl1", UserID: "user123", Name: "Doomed"}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	removed, err := repo.Delete("user123", "pl1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !removed {
		t.Fatal("expected Delete to report removal")
	}

	if _, err := repo.GetByID("user123", "pl1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	removed, err = repo.Delete("user123", "pl1")
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if removed {
		t.Fatal("expected second Delete to report nothing removed")
	}
}
