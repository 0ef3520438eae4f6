package playlists

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"thelyst/internal/database"
	"thelyst/models"
)

var (
	ErrUserIDRequired   = errors.New("user id is required")
	ErrNameRequired     = errors.New("playlist name is required")
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// Repository is the storage surface the adapter needs. Implemented by
// database.PlaylistRepository.
type Repository interface {
	Create(p *models.Playlist) error
	GetByID(userID, id string) (*models.Playlist, error)
	ListByUser(userID string) ([]models.Playlist, error)
	ReplaceItems(userID, id string, items []models.MediaRef) error
	Delete(userID, id string) (bool, error)
}

// Service is the user-scoped playlist store adapter. Every operation is
// namespaced to one user; nothing here retries or panics — storage failures
// surface as sentinel errors, and List degrades to an empty result.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a playlists service over the given repository.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns all playlists owned by the user, in creation order.
// Storage failures are logged and swallowed into an empty list; the views
// treat "no playlists" and "store unavailable" identically.
func (s *Service) List(userID string) []models.Playlist {
	if strings.TrimSpace(userID) == "" {
		return []models.Playlist{}
	}

	lists, err := s.repo.ListByUser(userID)
	if err != nil {
		s.logger.Error("list playlists failed", "user", userID, "error", err)
		return []models.Playlist{}
	}
	if lists == nil {
		lists = []models.Playlist{}
	}
	return lists
}

// Create persists a new playlist. The name must be non-empty after
// trimming; name and description are trimmed before the write. Items are
// stored exactly as given — order kept, duplicates kept.
func (s *Service) Create(userID, name, description string, items []models.MediaRef) (models.Playlist, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Playlist{}, ErrUserIDRequired
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, ErrNameRequired
	}

	if items == nil {
		items = []models.MediaRef{}
	}

	playlist := models.Playlist{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Items:       items,
	}

	if err := s.repo.Create(&playlist); err != nil {
		return models.Playlist{}, fmt.Errorf("create playlist: %w", err)
	}
	return playlist, nil
}

// Get fetches one playlist from the user's namespace.
func (s *Service) Get(userID, id string) (models.Playlist, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Playlist{}, ErrUserIDRequired
	}

	playlist, err := s.repo.GetByID(userID, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Playlist{}, ErrPlaylistNotFound
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("get playlist: %w", err)
	}
	return *playlist, nil
}

// ReplaceItems swaps the playlist's entire items collection in a single
// write. The caller computes the new sequence (append or filter); nothing
// is deduplicated here.
func (s *Service) ReplaceItems(userID, id string, items []models.MediaRef) (models.Playlist, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Playlist{}, ErrUserIDRequired
	}
	if items == nil {
		items = []models.MediaRef{}
	}

	err := s.repo.ReplaceItems(userID, id, items)
	if errors.Is(err, database.ErrNotFound) {
		return models.Playlist{}, ErrPlaylistNotFound
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("replace playlist items: %w", err)
	}

	return s.Get(userID, id)
}

// Delete irreversibly removes a playlist. There is no soft delete.
func (s *Service) Delete(userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}

	removed, err := s.repo.Delete(userID, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if !removed {
		return ErrPlaylistNotFound
	}
	return nil
}
