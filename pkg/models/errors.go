package models

import "errors"

var (
	// ErrNotFound is returned when a staff or shift id is unknown
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when an add collides with an existing id
	ErrDuplicateID = errors.New("duplicate id")
	// ErrInvalidTransition is returned when a shift cannot move to the requested status
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInvalidShift is returned when a shift breaks its status or date invariants
	ErrInvalidShift = errors.New("invalid shift")
)
