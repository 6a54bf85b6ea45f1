package engine

import (
	"errors"
	"fmt"
)

// Error kinds for the turn engine. Callers branch with errors.Is; the
// HTTP layer maps them to status codes.
var (
	// ErrNotFound: turn, adventure, character, encounter, or plan is
	// missing. Raised before any mutation.
	ErrNotFound = errors.New("not found")

	// ErrValidation: the request conflicts with current turn state,
	// e.g. a roll submitted with no requirement or one already
	// resolved. Raised before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrAuthorization: the caller is not a member of the adventure's
	// party. Checked first.
	ErrAuthorization = errors.New("not authorized")

	// ErrOracle: the narrative oracle failed or returned an object
	// that failed validation. Fatal for classification and transition
	// decisions; flavor-text call sites swallow it.
	ErrOracle = errors.New("oracle failure")
)

func notFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func authorizationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrAuthorization)...)
}

func oraclef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrOracle)...)
}
