package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"thelyst/models"
	"thelyst/services/catalog"
)

// SearchHandler serves catalog multi-search.
type SearchHandler struct {
	catalog *catalog.Client
	logger  *slog.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(client *catalog.Client, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{catalog: client, logger: logger}
}

// Search handles GET /api/search?query=. A blank query returns an empty
// list without touching the upstream; upstream failures surface as a
// generic 502 with no retry.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	results, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("catalog search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	if results == nil {
		results = []models.MediaRef{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
