package scanjobs

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("scan job not found")
	ErrFinalized     = errors.New("scan job already finalized")
	ErrInvalidStatus = errors.New("invalid scan job status")
)

// MapHTTPStatus maps scan job errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFinalized):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
