package employees

import "errors"

var (
	ErrNotFound      = errors.New("employee not found")
	ErrDuplicate     = errors.New("employee number already exists in scope")
	ErrInvalidNumber = errors.New("employee number required")
)
