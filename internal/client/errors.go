package client

import (
	"errors"
	"fmt"

	"github.com/squadron/asset-verification/internal/core/domain"
)

var (
	// ErrInvalidCredentials is returned when the server rejects a login.
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	// ErrConflict is returned when registering a username that is taken.
	ErrConflict = domain.ErrUserExists
	// ErrInvalidRole is returned when registering with an unknown role.
	ErrInvalidRole = domain.ErrInvalidRole
	// ErrSuperseded is returned by a login whose result was dropped because a
	// newer login or logout started.
	ErrSuperseded = errors.New("superseded by a newer request")

	errUnauthorized = errors.New("unauthorized")
)

// ServerError covers transport failures (Status 0) and unexpected responses.
type ServerError struct {
	Status  int
	Message string
	Err     error
}

func (e *ServerError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("server error %d", e.Status)
	}
}

func (e *ServerError) Unwrap() error { return e.Err }
