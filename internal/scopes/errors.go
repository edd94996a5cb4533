package scopes

import "errors"

var (
	ErrNotFound    = errors.New("scope not found")
	ErrDuplicate   = errors.New("scope already exists")
	ErrInvalidCode = errors.New("scope code must be 8 digits")
)
