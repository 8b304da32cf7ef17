package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateName         = errors.New("a program with this name already exists in the event")
	ErrDuplicateChestNumber  = errors.New("chest number already assigned in this program")
	ErrInvalidParticipantSet = errors.New("invalid participant set")
	ErrProgramLocked         = errors.New("program is cancelled or its results are published")
	ErrTerminalState         = errors.New("registration is cancelled or rejected")
	ErrLockedStatus          = errors.New("participants cannot change once reported")
	ErrMissingReason         = errors.New("a reason is required")
	ErrResultsPublished      = errors.New("results are already published")
	ErrAlreadyRegistered     = errors.New("student already registered for this program")

	// ErrInvalidInput covers malformed requests that do not fit a domain category
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

func invalidParticipants(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidParticipantSet)
}
