package tokenstore

import (
	"context"
	"encoding/json"
	"time"
)

// Persisted key names. Every key lives under a per-visitor namespace
// and all of them are removed together by ClearAll.
const (
	KeyToken       = "token"
	KeyTokenExpiry = "tokenExpiry"
	KeyUserData    = "userData"
)

// User is the admin profile returned by the backend login endpoint.
// Fields are stored verbatim and never re-validated after login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Clock abstracts time so expiry behavior is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock used outside tests.
var SystemClock Clock = systemClock{}

// Store defines durable persistence for one visitor's session
// material: the bearer token, its absolute expiry, and the user
// record. Pure storage, no auth decisions.
//
// The expiry is computed by the store at write time as now plus the
// validity window; the backend's own token lifetime is not consulted.
// Absence of data always reads as expired, never as valid.
type Store interface {
	// SetToken persists the token and stamps its absolute expiry.
	SetToken(ctx context.Context, token string) error

	// Token returns the persisted token, empty string if absent.
	Token(ctx context.Context) (string, error)

	// IsExpired reports true if no expiry is stored or it has passed.
	IsExpired(ctx context.Context) (bool, error)

	// SetUser persists the user record as JSON.
	SetUser(ctx context.Context, u User) error

	// GetUser returns the persisted user record, nil if absent or
	// malformed. A corrupted value never surfaces as an error.
	GetUser(ctx context.Context) (*User, error)

	// ClearAll removes every key in this store's session namespace.
	ClearAll(ctx context.Context) error
}

// decodeUser parses a persisted user record. Malformed JSON yields
// nil rather than an error so a corrupted value reads as "no user".
func decodeUser(raw []byte) *User {
	if len(raw) == 0 {
		return nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	if u.ID == "" {
		return nil
	}
	return &u
}
