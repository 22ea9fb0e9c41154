// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/arcsolve/pkg/middleware"
)

// Module serves an inner handler beneath a prefix such as "/api". The prefix
// is removed from the request path before the inner handler sees it.
type Module struct {
	prefix string
	inner  http.Handler
	stack  middleware.System
}

// New creates a Module. It panics on a prefix that is empty, relative, or
// more than one segment deep, since mounts are fixed at startup.
func New(prefix string, inner http.Handler, mws ...middleware.Middleware) *Module {
	if err := checkPrefix(prefix); err != nil {
		panic(err)
	}

	stack := middleware.New()
	for _, mw := range mws {
		stack.Use(mw)
	}

	return &Module{
		prefix: prefix,
		inner:  inner,
		stack:  stack,
	}
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack.
func (m *Module) Use(mw middleware.Middleware) {
	m.stack.Use(mw)
}

// Handler returns the inner handler wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.stack.Apply(m.inner)
}

func (m *Module) serve(w http.ResponseWriter, req *http.Request) {
	rest := strings.TrimPrefix(req.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	stripped := req.Clone(req.Context())
	u := *req.URL
	u.Path = rest
	u.RawPath = ""
	stripped.URL = &u

	m.Handler().ServeHTTP(w, stripped)
}

func checkPrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || prefix == "/":
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	if _, err := url.PathUnescape(prefix); err != nil {
		return fmt.Errorf("module prefix is not a valid path: %w", err)
	}
	return nil
}
