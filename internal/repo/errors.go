package repo

import (
	"errors"
	"fmt"

	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidBackup      = errors.New("Invalid backup file.")
	ErrNoRandomness       = errors.New("no randomness source available")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ValidationError is returned by every write whose input is missing a
// mandatory field.
type ValidationError = normalize.ValidationError

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// APIError is a non-ok envelope (or non-2xx status) from the backend API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("api %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api %d: DB request failed", e.Status)
}
