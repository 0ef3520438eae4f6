package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sourcegraph/conc"

	"thelyst/internal/auth"
	"thelyst/models"
)

// accountGetter is the slice of the accounts service the startup bundle needs.
type accountGetter interface {
	Get(id string) (models.Account, bool)
}

// playlistLister is the slice of the playlists service the startup bundle needs.
type playlistLister interface {
	List(userID string) []models.Playlist
}

// StartupHandler serves a combined startup payload to reduce the number of
// HTTP round-trips required when the frontend initialises. Both fetches run
// concurrently.
type StartupHandler struct {
	accounts  accountGetter
	playlists playlistLister
}

// NewStartupHandler constructs a StartupHandler.
func NewStartupHandler(accountsSvc accountGetter, playlistsSvc playlistLister) *StartupHandler {
	return &StartupHandler{accounts: accountsSvc, playlists: playlistsSvc}
}

// StartupResponse is the combined payload returned by GET /api/startup.
type StartupResponse struct {
	Account   *AccountResponse  `json:"account"`
	Playlists []models.Playlist `json:"playlists"`
}

// GetStartup returns the account and playlist data in a single response.
func (h *StartupHandler) GetStartup(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	if userID == "" {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	resp := StartupResponse{Playlists: []models.Playlist{}}
	var wg conc.WaitGroup

	wg.Go(func() {
		if account, ok := h.accounts.Get(userID); ok {
			resp.Account = &AccountResponse{
				ID:       account.ID,
				Email:    account.Email,
				Verified: account.Verified,
			}
		}
	})

	wg.Go(func() {
		resp.Playlists = h.playlists.List(userID)
	})

	wg.Wait()

	if resp.Account == nil {
		http.Error(w, `{"error": "account not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
