package routes

import (
	"iter"
	"net/http"
)

// Group collects routes that share a path prefix. Children inherit the
// prefix of their parent.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux as "METHOD prefix+pattern".
func Register(mux *http.ServeMux, groups ...Group) {
	for path, r := range All(groups...) {
		mux.Handle(r.Method+" "+path, r.handler())
	}
}

// All yields each route with its full path, parents before children.
func All(groups ...Group) iter.Seq2[string, Route] {
	return func(yield func(string, Route) bool) {
		for _, g := range groups {
			if !g.walk("", yield) {
				return
			}
		}
	}
}

func (g Group) walk(parent string, yield func(string, Route) bool) bool {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		if !yield(prefix+r.Pattern, r) {
			return false
		}
	}
	for _, child := range g.Children {
		if !child.walk(prefix, yield) {
			return false
		}
	}
	return true
}
