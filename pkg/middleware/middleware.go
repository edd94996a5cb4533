// Package middleware holds the HTTP middleware stack and the request
// middleware mounted on API modules: CORS, metrics, logging and panic recovery.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"

	"github.com/JaimeStill/dossier/pkg/handlers"
)

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first middleware
// added is the outermost.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack []Func

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(fn Func) {
	if fn != nil {
		*s = append(*s, fn)
	}
}

func (s *stack) Len() int {
	return len(*s)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, fn := range slices.Backward(*s) {
		handler = fn(handler)
	}
	return handler
}

// Recover returns middleware that turns a handler panic into a 500 JSON
// error and logs the stack. http.ErrAbortHandler is re-raised so the server
// still aborts the connection.
func Recover(logger *slog.Logger) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &headerTracker{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logger.Error("handler panic",
					"method", r.Method,
					"uri", r.URL.RequestURI(),
					"panic", v,
					"stack", string(debug.Stack()),
				)
				if !rec.wrote {
					handlers.RespondError(w, logger, http.StatusInternalServerError,
						fmt.Errorf("internal error"))
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

type headerTracker struct {
	http.ResponseWriter
	wrote bool
}

func (h *headerTracker) WriteHeader(code int) {
	h.wrote = true
	h.ResponseWriter.WriteHeader(code)
}

func (h *headerTracker) Write(b []byte) (int, error) {
	h.wrote = true
	return h.ResponseWriter.Write(b)
}

func (h *headerTracker) Unwrap() http.ResponseWriter {
	return h.ResponseWriter
}
