package models

import "time"

// Account represents a registered user identified by email address.
// Accounts start unverified; sign-in is blocked until the verification
// code dispatched at sign-up has been applied.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, excluded from JSON API responses (security)
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountStorage is the internal representation used for file persistence.
// Unlike Account, this includes the password hash and verification code.
type AccountStorage struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"passwordHash"` // Included for storage only
	Verified         bool      `json:"verified"`
	VerificationCode string    `json:"verificationCode,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ToStorage converts an Account to AccountStorage for persistence.
// The verification code lives only in the storage form and is carried
// separately by the accounts service.
func (a Account) ToStorage(code string) AccountStorage {
	return AccountStorage{
		ID:               a.ID,
		Email:            a.Email,
		PasswordHash:     a.PasswordHash,
		Verified:         a.Verified,
		VerificationCode: code,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// ToAccount converts an AccountStorage back to Account.
func (as AccountStorage) ToAccount() Account {
	return Account{
		ID:           as.ID,
		Email:        as.Email,
		PasswordHash: as.PasswordHash,
		Verified:     as.Verified,
		CreatedAt:    as.CreatedAt,
		UpdatedAt:    as.UpdatedAt,
	}
}
