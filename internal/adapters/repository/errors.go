package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrInvalid  = errors.New("invalid record")
)
