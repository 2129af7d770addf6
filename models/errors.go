package models

import "errors"

var (
	// ErrValidation marks requests rejected before any gateway contact.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInconsistentState marks a local row that disagrees with gateway truth.
	// Resolution always prefers the gateway and overwrites local state.
	ErrInconsistentState = errors.New("local state inconsistent with gateway")
)
