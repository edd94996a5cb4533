package filing

import (
	"errors"
	"net/http"
)

var (
	ErrNotFileable = errors.New("document has no employee or filing category")
	ErrNotFound    = errors.New("personnel file not found")
	ErrDuplicate   = errors.New("personnel file entry already exists")
	ErrNotActive   = errors.New("personnel file is not active")
)

// MapHTTPStatus maps filing errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, ErrNotFileable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
