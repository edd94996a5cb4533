package rules

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound         = errors.New("rule not found")
	ErrDuplicate        = errors.New("rule name already exists in scope")
	ErrInvalidAlgorithm = errors.New("invalid match algorithm")
	ErrInvalidPattern   = errors.New("invalid rule pattern")
)

// MapHTTPStatus maps rule domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidAlgorithm), errors.Is(err, ErrInvalidPattern):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
