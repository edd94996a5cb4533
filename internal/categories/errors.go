package categories

import "errors"

var (
	ErrNotFound     = errors.New("category not found")
	ErrTypeNotFound = errors.New("document type not found")
	ErrDuplicate    = errors.New("category already exists")
)
