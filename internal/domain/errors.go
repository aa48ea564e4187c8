package domain

import "errors"

// Sentinel errors shared by the usecases and the adapters.
// Wrap them with fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	// ErrNotFound is returned when a facility, obligation, entry or category
	// does not exist for the given owner (or has been soft-deleted).
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount is returned when a monetary input is outside its allowed range.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidInput covers malformed non-monetary input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when a referenced entity belongs to another owner.
	ErrForbidden = errors.New("forbidden")
)
