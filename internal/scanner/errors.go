package scanner

import (
	"errors"
	"net/http"
)

var (
	ErrArchiveRoot   = errors.New("archive root unavailable")
	ErrManualRoot    = errors.New("manual input root unavailable")
	ErrTooLarge      = errors.New("file exceeds maximum plaintext size")
	ErrUnknownSource = errors.New("unknown scan source")
)

// MapHTTPStatus maps scan errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, ErrArchiveRoot), errors.Is(err, ErrManualRoot):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
