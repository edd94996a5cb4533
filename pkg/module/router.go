package module

import (
	"fmt"
	"net/http"
	"strings"
)

// Router sends each request to the module owning its first path segment.
// Paths no module owns fall through to a plain ServeMux, which is where
// probes and metrics live.
type Router struct {
	modules  map[string]*Module
	fallback *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules:  map[string]*Module{},
		fallback: http.NewServeMux(),
	}
}

// HandleFunc registers fn on the fallback mux.
func (r *Router) HandleFunc(pattern string, fn http.HandlerFunc) {
	r.fallback.HandleFunc(pattern, fn)
}

// Handle registers h on the fallback mux.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.fallback.Handle(pattern, h)
}

// Mount makes m own its prefix. Mounting two modules on one prefix panics.
func (r *Router) Mount(m *Module) {
	if _, dup := r.modules[m.prefix]; dup {
		panic(fmt.Errorf("%w: %s already mounted", ErrInvalidPrefix, m.prefix))
	}
	r.modules[m.prefix] = m
}

// ServeHTTP ignores a trailing slash when matching.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	segment, _, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	if m := r.modules["/"+segment]; m != nil {
		m.Serve(w, req)
		return
	}
	r.fallback.ServeHTTP(w, req)
}
