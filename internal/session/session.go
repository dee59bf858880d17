// Package session reads the persisted profile of the authenticated user.
// The profile is an explicit input handed to whoever needs the submitting
// user's identity; nothing here touches global state.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/loggier/app-corte/internal/models"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrInvalidSession = errors.New("invalid session data")
)

// User is the stored profile blob of the authenticated user.
type User struct {
	ID      string        `json:"id"`
	Correo  string        `json:"correo"`
	Nombre  string        `json:"nombre"`
	Empresa string        `json:"empresa,omitempty"`
	Perfil  models.Perfil `json:"perfil"`
	Status  string        `json:"status,omitempty"`
}

// Reader yields the current session user, or an error when no valid session
// exists.
type Reader interface {
	Current() (*User, error)
}

// Decode parses a persisted profile blob and validates its shape.
func Decode(data []byte) (*User, error) {
	if len(data) == 0 {
		return nil, ErrNoSession
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if u.ID == "" || u.Correo == "" {
		return nil, fmt.Errorf("%w: missing id or correo", ErrInvalidSession)
	}
	if !models.IsValidPerfil(u.Perfil) {
		return nil, fmt.Errorf("%w: unknown perfil %q", ErrInvalidSession, u.Perfil)
	}
	return &u, nil
}

// Static is a Reader over an already-resolved user, typically built from the
// JWT claims of the request that is driving the form.
type Static struct {
	User *User
}

// Current returns the fixed user or ErrNoSession when unset.
func (s Static) Current() (*User, error) {
	if s.User == nil {
		return nil, ErrNoSession
	}
	return s.User, nil
}
