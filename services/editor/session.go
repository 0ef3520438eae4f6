package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"thelyst/models"
)

var (
	ErrNameRequired   = errors.New("playlist name is required")
	ErrNotAttached    = errors.New("session is not attached to a playlist")
	ErrAttached       = errors.New("session is already attached to a playlist")
	ErrDeleteNotArmed = errors.New("delete has not been confirmed")
	ErrSessionDone    = errors.New("editing session is finished")
)

// State is the editing session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateResults
	StateSubmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateResults:
		return "results"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Catalog is the search surface the editor drives.
type Catalog interface {
	Search(ctx context.Context, query string) ([]models.MediaRef, error)
}

// Store is the playlist persistence surface. Implemented by
// playlists.Service.
type Store interface {
	Create(userID, name, description string, items []models.MediaRef) (models.Playlist, error)
	Get(userID, id string) (models.Playlist, error)
	ReplaceItems(userID, id string, items []models.MediaRef) (models.Playlist, error)
	Delete(userID, id string) error
}

// Options tunes a session.
type Options struct {
	// Debounce delays search dispatch after a query change so that
	// typing does not issue one request per keystroke.
	Debounce time.Duration

	// SearchTimeout bounds each outbound search call.
	SearchTimeout time.Duration

	// OnChange, when set, is invoked (without locks held) after every
	// observable state change. View bindings hang off this.
	OnChange func()
}

const (
	defaultDebounce      = 300 * time.Millisecond
	defaultSearchTimeout = 15 * time.Second
)

// Session drives one playlist editing flow. A create session accumulates
// items locally and persists once at Submit; a detail session is attached
// to an existing playlist and persists every add/remove immediately,
// rolling the local change back if the write fails.
//
// Search results and item mutations are serialized under one mutex; each
// dispatched search carries a monotonic sequence number so a slow stale
// response can never clobber the results of a newer query.
type Session struct {
	catalog Catalog
	store   Store
	userID  string

	debounce      time.Duration
	searchTimeout time.Duration
	onChange      func()

	mu          sync.Mutex
	playlistID  string // empty for the create flow
	name        string
	description string
	items       []models.MediaRef
	query       string
	results     []models.MediaRef
	state       State
	lastErr     error
	deleteArmed bool
	searchSeq   uint64
	timer       *time.Timer
}

// NewCreateSession starts a create-flow session: nothing is persisted
// until Submit.
func NewCreateSession(catalog Catalog, store Store, userID string, opts Options) *Session {
	return newSession(catalog, store, userID, "", nil, opts)
}

// NewDetailSession loads an existing playlist and starts a detail-flow
// session attached to it.
func NewDetailSession(catalog Catalog, store Store, userID, playlistID string, opts Options) (*Session, error) {
	playlist, err := store.Get(userID, playlistID)
	if err != nil {
		return nil, err
	}
	s := newSession(catalog, store, userID, playlistID, playlist.Items, opts)
	s.name = playlist.Name
	s.description = playlist.Description
	return s, nil
}

func newSession(catalog Catalog, store Store, userID, playlistID string, items []models.MediaRef, opts Options) *Session {
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = defaultSearchTimeout
	}
	if opts.Debounce < 0 {
		opts.Debounce = defaultDebounce
	}
	owned := make([]models.MediaRef, len(items))
	copy(owned, items)
	return &Session{
		catalog:       catalog,
		store:         store,
		userID:        userID,
		playlistID:    playlistID,
		items:         owned,
		debounce:      opts.Debounce,
		searchTimeout: opts.SearchTimeout,
		onChange:      opts.OnChange,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last recoverable error, if any. Cleared by the next
// successful operation.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Items returns a snapshot of the current item list.
func (s *Session) Items() []models.MediaRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MediaRef, len(s.items))
	copy(out, s.items)
	return out
}

// Results returns a snapshot of the current search results.
func (s *Session) Results() []models.MediaRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MediaRef, len(s.results))
	copy(out, s.results)
	return out
}

// PlaylistID returns the attached playlist ID, or "" for a create session
// that has not submitted yet.
func (s *Session) PlaylistID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlistID
}

// SetName updates the pending playlist name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
	s.changed()
}

// SetDescription updates the pending description.
func (s *Session) SetDescription(description string) {
	s.mu.Lock()
	s.description = description
	s.mu.Unlock()
	s.changed()
}

// SetQuery records a query change. A blank query clears results without
// touching the network; anything else schedules a debounced search. Each
// scheduled search invalidates every earlier one, so only the newest
// query's response is ever applied.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	s.query = query
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.searchSeq++
	seq := s.searchSeq

	if strings.TrimSpace(query) == "" {
		s.results = nil
		if s.state == StateSearching || s.state == StateResults {
			s.state = StateIdle
		}
		s.mu.Unlock()
		s.changed()
		return
	}

	s.state = StateSearching
	s.timer = time.AfterFunc(s.debounce, func() {
		s.runSearch(query, seq)
	})
	s.mu.Unlock()
	s.changed()
}

func (s *Session) runSearch(query string, seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.searchTimeout)
	defer cancel()

	refs, err := s.catalog.Search(ctx, query)

	s.mu.Lock()
	if seq != s.searchSeq {
		// A newer query superseded this one; drop the response.
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.results = nil
		s.state = StateIdle
		s.lastErr = fmt.Errorf("search failed: %w", err)
		s.mu.Unlock()
		s.changed()
		return
	}
	s.results = refs
	s.state = StateResults
	s.lastErr = nil
	s.mu.Unlock()
	s.changed()
}

// AddItem appends the reference to the session's items. In the detail
// flow the new collection is persisted immediately; if the write fails
// the append is rolled back and the error surfaced.
func (s *Session) AddItem(item models.MediaRef) error {
	s.mu.Lock()
	if s.state == StateDone {
		s.mu.Unlock()
		return ErrSessionDone
	}

	s.items = append(s.items, item)

	if s.playlistID == "" {
		// Create flow: picking a result closes the result list.
		s.query = ""
		s.results = nil
		s.state = StateIdle
		s.lastErr = nil
		s.mu.Unlock()
		s.changed()
		return nil
	}

	err := s.persistItemsLocked()
	if err != nil {
		s.items = s.items[:len(s.items)-1]
		s.lastErr = err
	} else {
		s.lastErr = nil
	}
	s.mu.Unlock()
	s.changed()
	return err
}

// RemoveItem drops every entry with the given catalog id, mirroring the
// remove gesture in the views. In the detail flow the filtered collection
// is persisted; a failed write restores the previous items.
func (s *Session) RemoveItem(id int64) error {
	s.mu.Lock()
	if s.state == StateDone {
		s.mu.Unlock()
		return ErrSessionDone
	}

	previous := s.items
	filtered := make([]models.MediaRef, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered

	if s.playlistID == "" {
		s.mu.Unlock()
		s.changed()
		return nil
	}

	err := s.persistItemsLocked()
	if err != nil {
		s.items = previous
		s.lastErr = err
	} else {
		s.lastErr = nil
	}
	s.mu.Unlock()
	s.changed()
	return err
}

// persistItemsLocked writes the current items through the store adapter.
// Must be called with mu held.
func (s *Session) persistItemsLocked() error {
	items := make([]models.MediaRef, len(s.items))
	copy(items, s.items)
	_, err := s.store.ReplaceItems(s.userID, s.playlistID, items)
	return err
}

// Submit finishes a create session: validates the name and persists the
// accumulated playlist in one call. A blank name aborts before any remote
// write with a field-level ErrNameRequired.
func (s *Session) Submit() (models.Playlist, error) {
	s.mu.Lock()
	if s.state == StateDone {
		s.mu.Unlock()
		return models.Playlist{}, ErrSessionDone
	}
	if s.playlistID != "" {
		s.mu.Unlock()
		return models.Playlist{}, ErrAttached
	}
	if strings.TrimSpace(s.name) == "" {
		s.lastErr = ErrNameRequired
		s.mu.Unlock()
		s.changed()
		return models.Playlist{}, ErrNameRequired
	}

	s.state = StateSubmitting
	name, description := s.name, s.description
	items := make([]models.MediaRef, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()
	s.changed()

	playlist, err := s.store.Create(s.userID, name, description, items)

	s.mu.Lock()
	if err != nil {
		s.state = StateIdle
		s.lastErr = err
		s.mu.Unlock()
		s.changed()
		return models.Playlist{}, err
	}
	s.playlistID = playlist.ID
	s.state = StateDone
	s.lastErr = nil
	s.mu.Unlock()
	s.changed()
	return playlist, nil
}

// RequestDelete arms the two-step delete confirmation.
func (s *Session) RequestDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playlistID == "" {
		return ErrNotAttached
	}
	s.deleteArmed = true
	return nil
}

// CancelDelete disarms a pending delete confirmation.
func (s *Session) CancelDelete() {
	s.mu.Lock()
	s.deleteArmed = false
	s.mu.Unlock()
}

// ConfirmDelete performs the irreversible remote delete. It refuses to run
// unless RequestDelete armed it first.
func (s *Session) ConfirmDelete() error {
	s.mu.Lock()
	if s.playlistID == "" {
		s.mu.Unlock()
		return ErrNotAttached
	}
	if !s.deleteArmed {
		s.mu.Unlock()
		return ErrDeleteNotArmed
	}
	userID, playlistID := s.userID, s.playlistID
	s.mu.Unlock()

	if err := s.store.Delete(userID, playlistID); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.deleteArmed = false
		s.mu.Unlock()
		s.changed()
		return err
	}

	s.mu.Lock()
	s.state = StateDone
	s.deleteArmed = false
	s.lastErr = nil
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// WatchURL derives the external viewing URL for an item. Pure derivation;
// no local or remote state is touched.
func WatchURL(item models.MediaRef) string {
	if !item.IsPlayable() {
		return ""
	}
	return fmt.Sprintf("https://vidsrc.to/embed/%s/%d", item.MediaType, item.ID)
}
