// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes, each with its own middleware stack.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/dossier/pkg/middleware"
)

// ErrInvalidPrefix is returned for prefixes that are empty, relative or nested.
var ErrInvalidPrefix = errors.New("invalid module prefix")

// Module owns one path prefix. Requests reach its router with the prefix
// removed, after passing through the module's own middleware.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New panics when prefix fails ValidatePrefix. Prefixes are fixed when the
// server is assembled, so a bad one is a programming error.
func New(prefix string, router http.Handler) *Module {
	if err := ValidatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler wraps the router in the current middleware stack.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Serve dispatches req with the prefix removed. "/api" alone becomes "/".
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

// Use appends mw; the first added runs outermost.
func (m *Module) Use(mw middleware.Func) {
	m.middleware.Use(mw)
}

// ValidatePrefix reports whether prefix is a single path segment with a
// leading slash.
func ValidatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("%w: empty", ErrInvalidPrefix)
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("%w: %s must start with /", ErrInvalidPrefix, prefix)
	case strings.Count(prefix, "/") != 1 || prefix == "/":
		return fmt.Errorf("%w: %s must be a single segment", ErrInvalidPrefix, prefix)
	}
	return nil
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	r := req.Clone(req.Context())
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}
