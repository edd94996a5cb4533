package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/dossier/pkg/storage"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("document content already ingested")
	ErrInvalidFile       = errors.New("invalid file")
	ErrInvalidStatus     = errors.New("invalid document status")
	ErrInvalidTransition = errors.New("document status transition not allowed")
	ErrDigestMismatch    = errors.New("content digest mismatch")
	ErrNotSplittable     = errors.New("document cannot be split")
)

// MapHTTPStatus maps document domain errors to HTTP status codes. Content
// read failures fall through to the storage mapping.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotSplittable):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return storage.MapHTTPStatus(err)
	}
}
