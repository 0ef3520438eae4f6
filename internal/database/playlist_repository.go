package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thelyst/models"
)

// ErrNotFound is returned when a playlist does not exist in the caller's
// namespace.
var ErrNotFound = errors.New("playlist not found")

// PlaylistRepository persists playlist documents. Each row is one document:
// the ordered item sequence is stored as a single JSON column, so replacing
// the items collection is one write.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a repository using the given connection.
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist, filling in timestamps.
func (r *PlaylistRepository) Create(p *models.Playlist) error {
	items, err := marshalItems(p.Items)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO playlists (id, user_id, name, description, items, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, items, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

// GetByID fetches one playlist scoped to the owning user.
func (r *PlaylistRepository) GetByID(userID, id string) (*models.Playlist, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, name, description, items, created_at, updated_at
		 FROM playlists WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanPlaylist(row)
}

// ListByUser returns all playlists owned by the user, oldest first.
func (r *PlaylistRepository) ListByUser(userID string) ([]models.Playlist, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, name, description, items, created_at, updated_at
		 FROM playlists WHERE user_id = ? ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// ReplaceItems swaps the entire items collection in a single write. The
// caller computes the new sequence; duplicates are stored as-is.
func (r *PlaylistRepository) ReplaceItems(userID, id string, items []models.MediaRef) error {
	encoded, err := marshalItems(items)
	if err != nil {
		return err
	}

	res, err := r.db.Exec(
		`UPDATE playlists SET items = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		encoded, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("update playlist items: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update playlist items: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a playlist. Returns false when nothing matched.
func (r *PlaylistRepository) Delete(userID, id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM playlists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete playlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete playlist: %w", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row rowScanner) (*models.Playlist, error) {
	var p models.Playlist
	var items string
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &items, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan playlist: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &p.Items); err != nil {
		return nil, fmt.Errorf("decode playlist items: %w", err)
	}
	if p.Items == nil {
		p.Items = []models.MediaRef{}
	}
	return &p, nil
}

func marshalItems(items []models.MediaRef) (string, error) {
	if items == nil {
		items = []models.MediaRef{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode playlist items: %w", err)
	}
	return string(encoded), nil
}
