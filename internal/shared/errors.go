package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a user, session or lesson lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyExists indicates a duplicate registration.
	ErrAlreadyExists = errors.New("already exists")
	// ErrStorage indicates a serialization or I/O failure in the key-value store.
	ErrStorage = errors.New("storage failure")
	// ErrUnauthenticated occurs when an operation needs a logged in user.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrForbidden occurs when the current user lacks the admin role.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
)

// StorageError wraps err as an ErrStorage failure for the given operation.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// ValidationError builds an ErrValidation failure with a message.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UserSafeMessage returns a message that can be shown to end users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, ErrAlreadyExists):
		return "email already registered"
	case errors.Is(err, ErrUnauthenticated):
		return "login required"
	case errors.Is(err, ErrForbidden):
		return "admin access required"
	case errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "unexpected error, please retry"
	}
}
