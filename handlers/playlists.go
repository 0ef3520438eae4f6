package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"thelyst/internal/auth"
	"thelyst/models"
	"thelyst/services/editor"
	"thelyst/services/playlists"
)

// PlaylistsHandler serves the per-user playlist surface. Every route runs
// behind the auth middleware, so the account ID is always in the context.
type PlaylistsHandler struct {
	playlists *playlists.Service
	logger    *slog.Logger
}

// NewPlaylistsHandler creates a new playlists handler.
func NewPlaylistsHandler(playlistsSvc *playlists.Service, logger *slog.Logger) *PlaylistsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistsHandler{playlists: playlistsSvc, logger: logger}
}

// CreatePlaylistRequest represents the create request body.
type CreatePlaylistRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Items       []models.MediaRef `json:"items"`
}

// WatchResponse carries the derived external viewing URL.
type WatchResponse struct {
	URL string `json:"url"`
}

// List returns all playlists for the authenticated user. Storage trouble
// degrades to an empty list rather than an error page.
func (h *PlaylistsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)

	lists := h.playlists.List(userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lists)
}

// Create persists a new playlist for the authenticated user.
func (h *PlaylistsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)

	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	playlist, err := h.playlists.Create(userID, req.Name, req.Description, req.Items)
	if errors.Is(err, playlists.ErrNameRequired) {
		writeError(w, http.StatusBadRequest, "playlist name is required")
		return
	}
	if err != nil {
		h.logger.Error("create playlist failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(playlist)
}

// Get returns a single playlist by ID.
func (h *PlaylistsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	id := mux.Vars(r)["id"]

	playlist, err := h.playlists.Get(userID, id)
	if errors.Is(err, playlists.ErrPlaylistNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		h.logger.Error("get playlist failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load playlist")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(playlist)
}

// ReplaceItems swaps the playlist's entire items collection. The caller
// sends the full new sequence; order and duplicates are kept as given.
func (h *PlaylistsHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	id := mux.Vars(r)["id"]

	var items []models.MediaRef
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	updated, err := h.playlists.ReplaceItems(userID, id, items)
	if errors.Is(err, playlists.ErrPlaylistNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		h.logger.Error("replace playlist items failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// AddItem appends one item to the playlist.
func (h *PlaylistsHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	id := mux.Vars(r)["id"]

	var item models.MediaRef
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if item.ID == 0 || strings.TrimSpace(item.MediaType) == "" {
		writeError(w, http.StatusBadRequest, "item id and mediaType are required")
		return
	}

	playlist, err := h.playlists.Get(userID, id)
	if errors.Is(err, playlists.ErrPlaylistNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		h.logger.Error("get playlist failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	updated, err := h.playlists.ReplaceItems(userID, id, append(playlist.Items, item))
	if err != nil {
		h.logger.Error("add playlist item failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// RemoveItem drops every entry matching the catalog ID from the playlist.
func (h *PlaylistsHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	vars := mux.Vars(r)
	id := vars["id"]

	itemID, err := strconv.ParseInt(vars["itemID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	playlist, err := h.playlists.Get(userID, id)
	if errors.Is(err, playlists.ErrPlaylistNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		h.logger.Error("get playlist failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	// Removal matches on catalog ID alone, duplicates included.
	filtered := make([]models.MediaRef, 0, len(playlist.Items))
	for _, item := range playlist.Items {
		if item.ID != itemID {
			filtered = append(filtered, item)
		}
	}

	updated, err := h.playlists.ReplaceItems(userID, id, filtered)
	if err != nil {
		h.logger.Error("remove playlist item failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// Delete irreversibly removes a playlist.
func (h *PlaylistsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	id := mux.Vars(r)["id"]

	err := h.playlists.Delete(userID, id)
	if errors.Is(err, playlists.ErrPlaylistNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		h.logger.Error("delete playlist failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// Watch derives the external viewing URL for an item in the playlist.
func (h *PlaylistsHandler) Watch(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	vars := mux.Vars(r)
	id := vars["id"]
	mediaType := vars["mediaType"]

	itemID, err := strconv.ParseInt(vars["itemID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if _, err := h.playlists.Get(userID, id); err != nil {
		if errors.Is(err, playlists.ErrPlaylistNotFound) {
			writeError(w, http.StatusNotFound, "playlist not found")
			return
		}
		h.logger.Error("get playlist failed", "user", userID, "playlist", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load playlist")
		return
	}

	url := editor.WatchURL(models.MediaRef{ID: itemID, MediaType: mediaType})
	if url == "" {
		writeError(w, http.StatusBadRequest, "item is not playable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(WatchResponse{URL: url})
}
