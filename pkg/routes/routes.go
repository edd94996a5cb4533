// Package routes declares HTTP route groups and registers them on a ServeMux
// using method-qualified patterns.
package routes

import (
	"net/http"
	"sort"

	"github.com/JaimeStill/dossier/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. Doc, when set,
// describes the route in the generated OpenAPI document.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Doc     *openapi.Operation
}

// Group organizes routes under a common prefix. Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, func(path string, route Route) {
		mux.HandleFunc(route.Method+" "+path, route.Handler)
	})
}

// Document adds every documented route of groups to spec. Routes without
// a Doc are left out.
func Document(spec *openapi.Spec, groups ...Group) {
	walk(groups, func(path string, route Route) {
		if route.Doc != nil {
			spec.AddOperation(route.Method, path, route.Doc)
		}
	})
}

// Patterns lists the registered patterns of groups, sorted.
func Patterns(groups ...Group) []string {
	var patterns []string
	walk(groups, func(path string, route Route) {
		patterns = append(patterns, route.Method+" "+path)
	})
	sort.Strings(patterns)
	return patterns
}

func walk(groups []Group, fn func(path string, route Route)) {
	for _, group := range groups {
		walkGroup("", group, fn)
	}
}

func walkGroup(parent string, group Group, fn func(path string, route Route)) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		fn(prefix+route.Pattern, route)
	}
	for _, child := range group.Children {
		walkGroup(prefix, child, fn)
	}
}
