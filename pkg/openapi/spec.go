// Package openapi builds an OpenAPI 3.1 document from route declarations.
package openapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates an OpenAPI 3.1 document carrying the shared error and
// paging components.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI:    "3.1.0",
		Info:       &Info{Title: title, Version: version},
		Components: NewComponents(),
		Paths:      map[string]*PathItem{},
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// SetDescription sets the API description in the info object.
func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

// AddOperation places op on path under method and reports whether the
// method is one PathItem documents. Other methods leave the spec untouched.
func (s *Spec) AddOperation(method, path string, op *Operation) bool {
	method = strings.ToUpper(method)
	if method != http.MethodGet && method != http.MethodPost {
		return false
	}

	item := s.Paths[path]
	if item == nil {
		item = &PathItem{}
		s.Paths[path] = item
	}
	if method == http.MethodGet {
		item.Get = op
	} else {
		item.Post = op
	}
	return true
}

// MarshalJSON serializes the spec to indented JSON bytes.
func MarshalJSON(spec *Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// ServeSpec serves spec bytes rendered once at startup.
func ServeSpec(spec []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mimeJSON+"; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(spec)
	}
}
