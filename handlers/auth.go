package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"thelyst/services/accounts"
	"thelyst/services/sessions"
)

// Fixed human-readable auth messages. The views render these verbatim, so
// the wording is part of the contract.
const (
	msgBadEmail      = "The email address is badly formatted."
	msgNoUser        = "No user found with this email."
	msgWrongPassword = "Incorrect password. Please try again."
	msgEmailInUse    = "The email address is already in use."
	msgNotVerified   = "Please verify your email before logging in."
	msgGenericError  = "An error occurred. Please try again."
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accounts *accounts.Service
	sessions *sessions.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accountsSvc *accounts.Service, sessionsSvc *sessions.Service) *AuthHandler {
	return &AuthHandler{
		accounts: accountsSvc,
		sessions: sessionsSvc,
	}
}

// CredentialsRequest represents a signup or login request body.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest carries the emailed verification code.
type VerifyRequest struct {
	Code string `json:"code"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
}

// AccountResponse represents account info response.
type AccountResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// Signup registers a new account and dispatches the verification email.
// The account is created unverified; login is refused until Verify runs.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	account, err := h.accounts.SignUp(req.Email, req.Password)
	switch {
	case errors.Is(err, accounts.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, msgBadEmail)
		return
	case errors.Is(err, accounts.ErrPasswordRequired):
		writeError(w, http.StatusBadRequest, msgGenericError)
		return
	case errors.Is(err, accounts.ErrEmailInUse):
		writeError(w, http.StatusConflict, msgEmailInUse)
		return
	case err != nil && account.ID == "":
		writeError(w, http.StatusInternalServerError, msgGenericError)
		return
	}
	// A failed verification email leaves the account in place; the code
	// can be re-sent, so the signup still succeeds.

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AccountResponse{
		ID:       account.ID,
		Email:    account.Email,
		Verified: account.Verified,
	})
}

// Login authenticates a user and returns a session token. Unverified
// accounts are refused with the verification prompt.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	account, err := h.accounts.Authenticate(req.Email, req.Password)
	switch {
	case errors.Is(err, accounts.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, msgBadEmail)
		return
	case errors.Is(err, accounts.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, msgNoUser)
		return
	case errors.Is(err, accounts.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, msgWrongPassword)
		return
	case errors.Is(err, accounts.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, msgNotVerified)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, msgGenericError)
		return
	}

	userAgent := r.Header.Get("User-Agent")
	session, err := h.sessions.Create(account.ID, userAgent, getClientIPAddress(r))
	if err != nil {
		http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
		return
	}

	resp := LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
		AccountID: account.ID,
		Email:     account.Email,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Verify consumes an emailed verification code.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	account, err := h.accounts.Verify(strings.TrimSpace(req.Code))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid verification code")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AccountResponse{
		ID:       account.ID,
		Email:    account.Email,
		Verified: account.Verified,
	})
}

// ResendVerification re-sends the verification code for an email address.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.accounts.ResendVerification(req.Email); err != nil {
		// Do not reveal whether the address exists.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Logout invalidates the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error": "no session token"}`, http.StatusBadRequest)
		return
	}

	if err := h.sessions.Revoke(token); err != nil {
		// Session not found is OK - might already be expired
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			http.Error(w, `{"error": "failed to revoke session"}`, http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

// Me returns the current authenticated account info.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Validate(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	account, ok := h.accounts.Get(session.AccountID)
	if !ok {
		http.Error(w, `{"error": "account not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AccountResponse{
		ID:       account.ID,
		Email:    account.Email,
		Verified: account.Verified,
	})
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// getClientIPAddress extracts the client IP address from the request.
func getClientIPAddress(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
