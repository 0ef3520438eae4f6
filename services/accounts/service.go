package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"thelyst/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailInUse         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("wrong password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCode        = errors.New("invalid verification code")
)

// verificationCodeLength is the size of the code dispatched at sign-up.
const verificationCodeLength = 8

// Mailer dispatches verification messages. The SMTP and log-backed
// implementations live in services/mailer.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service manages persistence of user accounts and email verification.
type Service struct {
	mu       sync.RWMutex
	path     string
	mailer   Mailer
	accounts map[string]models.AccountStorage
}

// NewService creates an accounts service storing data inside the provided
// directory. The mailer may be nil, in which case sign-up succeeds but no
// verification message is dispatched.
func NewService(storageDir string, mailer Mailer) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "accounts.json"),
		mailer:   mailer,
		accounts: make(map[string]models.AccountStorage),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Get returns the account with the given ID if present.
func (s *Service) Get(id string) (models.Account, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Account{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.accounts[id]
	if !ok {
		return models.Account{}, false
	}
	return stored.ToAccount(), true
}

// GetByEmail returns the account with the given email if present.
func (s *Service) GetByEmail(email string) (models.Account, bool) {
	email = normalizeEmail(email)
	if email == "" {
		return models.Account{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if normalizeEmail(a.Email) == email {
			return a.ToAccount(), true
		}
	}
	return models.Account{}, false
}

// Exists reports whether an account with the provided ID is registered.
func (s *Service) Exists(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// SignUp registers a new unverified account and dispatches a verification
// code to the address. The account cannot sign in until Verify is called
// with that code.
func (s *Service) SignUp(email, pw string) (models.Account, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return models.Account{}, ErrInvalidEmail
	}

	pw = strings.TrimSpace(pw)
	if pw == "" {
		return models.Account{}, ErrPasswordRequired
	}

	code, err := password.Generate(verificationCodeLength, 4, 0, true, false)
	if err != nil {
		return models.Account{}, fmt.Errorf("generate verification code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	lowered := normalizeEmail(email)
	for _, a := range s.accounts {
		if normalizeEmail(a.Email) == lowered {
			s.mu.Unlock()
			return models.Account{}, ErrEmailInUse
		}
	}

	now := time.Now().UTC()
	stored := models.AccountStorage{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     string(hash),
		Verified:         false,
		VerificationCode: code,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.accounts[stored.ID] = stored

	if err := s.saveLocked(); err != nil {
		delete(s.accounts, stored.ID)
		s.mu.Unlock()
		return models.Account{}, err
	}
	s.mu.Unlock()

	if s.mailer != nil {
		body := fmt.Sprintf("Welcome to TheLyst!\n\nYour verification code is: %s\n", code)
		if err := s.mailer.Send(email, "Verify your email", body); err != nil {
			// The account exists either way; the code can be re-sent.
			return stored.ToAccount(), fmt.Errorf("send verification email: %w", err)
		}
	}

	return stored.ToAccount(), nil
}

// Verify marks the account carrying the given code as verified.
func (s *Service) Verify(code string) (models.Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Account{}, ErrInvalidCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range s.accounts {
		if a.VerificationCode != "" && a.VerificationCode == code {
			a.Verified = true
			a.VerificationCode = ""
			a.UpdatedAt = time.Now().UTC()
			s.accounts[id] = a
			if err := s.saveLocked(); err != nil {
				return models.Account{}, err
			}
			return a.ToAccount(), nil
		}
	}
	return models.Account{}, ErrInvalidCode
}

// Authenticate verifies the email and password, returning the account if
// valid. Unverified accounts authenticate successfully; the login flow is
// responsible for rejecting them with ErrEmailNotVerified.
func (s *Service) Authenticate(email, pw string) (models.Account, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return models.Account{}, ErrInvalidEmail
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := normalizeEmail(email)
	var found *models.AccountStorage
	for _, a := range s.accounts {
		if normalizeEmail(a.Email) == lowered {
			match := a
			found = &match
			break
		}
	}

	if found == nil {
		// Burn a bcrypt comparison anyway to keep timing uniform.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummy"), []byte(pw))
		return models.Account{}, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(pw)); err != nil {
		return models.Account{}, ErrWrongPassword
	}

	// Credentials are good but the email was never verified; the caller
	// prompts for the code instead of starting a session.
	if !found.Verified {
		return models.Account{}, ErrEmailNotVerified
	}

	return found.ToAccount(), nil
}

// ResendVerification dispatches the pending verification code again.
func (s *Service) ResendVerification(email string) error {
	s.mu.RLock()
	lowered := normalizeEmail(email)
	var code, to string
	for _, a := range s.accounts {
		if normalizeEmail(a.Email) == lowered && !a.Verified {
			code = a.VerificationCode
			to = a.Email
			break
		}
	}
	s.mu.RUnlock()

	if code == "" {
		return ErrUserNotFound
	}
	if s.mailer == nil {
		return nil
	}
	body := fmt.Sprintf("Your verification code is: %s\n", code)
	return s.mailer.Send(to, "Verify your email", body)
}

// VerificationCode returns the pending code for an email. Used by the
// log-mailer dev flow and tests; never exposed over HTTP.
func (s *Service) VerificationCode(email string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := normalizeEmail(email)
	for _, a := range s.accounts {
		if normalizeEmail(a.Email) == lowered {
			return a.VerificationCode
		}
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()

	var stored []models.AccountStorage
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode accounts: %w", err)
	}

	s.accounts = make(map[string]models.AccountStorage, len(stored))
	for _, a := range stored {
		if strings.TrimSpace(a.ID) == "" {
			continue
		}
		s.accounts[a.ID] = a
	}
	return nil
}

func (s *Service) saveLocked() error {
	stored := make([]models.AccountStorage, 0, len(s.accounts))
	for _, a := range s.accounts {
		stored = append(stored, a)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create accounts temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stored); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode accounts: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync accounts: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close accounts temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}

	return nil
}
