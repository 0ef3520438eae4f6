package auth

import (
	"errors"
	"sync"

	"thelyst/models"
	"thelyst/services/sessions"
)

// SessionState is the gate's view of the current session.
type SessionState int

const (
	// StatePending means session resolution has not completed yet.
	StatePending SessionState = iota
	// StateUnauthenticated means there is no live session.
	StateUnauthenticated
	// StateAuthenticated means a session was validated and is being watched.
	StateAuthenticated
	// StateError means session resolution itself failed.
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the gate's decision for a protected surface.
type Outcome int

const (
	// OutcomeLoading holds the caller while resolution is in flight.
	OutcomeLoading Outcome = iota
	// OutcomeRedirect sends the caller to the login surface.
	OutcomeRedirect
	// OutcomeAllow lets the caller through.
	OutcomeAllow
	// OutcomeError reports a resolution failure distinct from "logged out".
	OutcomeError
)

// Gate resolves a session token once and then tracks it live: a revoked or
// expired session flips the gate to unauthenticated without another lookup.
// Decide never allows access while resolution is still pending.
type Gate struct {
	sessions *sessions.Service

	mu        sync.Mutex
	state     SessionState
	accountID string
	lastErr   error
	watch     *sessions.Watch
	onChange  func(SessionState)
}

// NewGate creates a gate in the pending state. onChange, when set, fires
// after every state transition (without locks held).
func NewGate(svc *sessions.Service, onChange func(SessionState)) *Gate {
	return &Gate{sessions: svc, state: StatePending, onChange: onChange}
}

// Resolve validates the token and settles the gate. An empty, unknown, or
// expired token settles to unauthenticated; a valid one settles to
// authenticated and registers a watch so later revocation is observed.
func (g *Gate) Resolve(token string) SessionState {
	session, err := g.sessions.Validate(token)

	g.mu.Lock()
	g.cancelWatchLocked()

	switch {
	case err == nil:
		g.state = StateAuthenticated
		g.accountID = session.AccountID
		g.lastErr = nil
		g.watch = g.sessions.Watch(token, g.sessionChanged)
	case errors.Is(err, sessions.ErrInvalidToken),
		errors.Is(err, sessions.ErrSessionNotFound),
		errors.Is(err, sessions.ErrSessionExpired):
		g.state = StateUnauthenticated
		g.accountID = ""
		g.lastErr = nil
	default:
		g.state = StateError
		g.accountID = ""
		g.lastErr = err
	}
	state := g.state
	g.mu.Unlock()

	g.changed(state)
	return state
}

func (g *Gate) sessionChanged(_ models.Session, active bool) {
	if active {
		return
	}

	g.mu.Lock()
	if g.state != StateAuthenticated {
		g.mu.Unlock()
		return
	}
	g.state = StateUnauthenticated
	g.accountID = ""
	g.cancelWatchLocked()
	g.mu.Unlock()

	g.changed(StateUnauthenticated)
}

// State returns the current session state.
func (g *Gate) State() SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// AccountID returns the authenticated account, or "" otherwise.
func (g *Gate) AccountID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accountID
}

// Err returns the resolution error when the gate is in the error state.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Decide maps the session state to an access outcome. Pending never
// allows: protected surfaces hold until resolution settles.
func (g *Gate) Decide() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateAuthenticated:
		return OutcomeAllow
	case StateUnauthenticated:
		return OutcomeRedirect
	case StateError:
		return OutcomeError
	default:
		return OutcomeLoading
	}
}

// Close cancels the live watch, if any.
func (g *Gate) Close() {
	g.mu.Lock()
	g.cancelWatchLocked()
	g.mu.Unlock()
}

func (g *Gate) cancelWatchLocked() {
	if g.watch != nil {
		g.watch.Cancel()
		g.watch = nil
	}
}

func (g *Gate) changed(state SessionState) {
	if g.onChange != nil {
		g.onChange(state)
	}
}
