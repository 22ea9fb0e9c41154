// Package routes declares HTTP routes as data and registers them on a
// ServeMux using Go 1.22 method patterns.
package routes

import "net/http"

// Route binds a method and pattern to a handler. MaxBody, when positive,
// caps the request body size. Summary describes the route in the API
// document.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	MaxBody int64
	Summary string
}

func (r Route) handler() http.Handler {
	if r.MaxBody <= 0 {
		return r.Handler
	}
	return http.MaxBytesHandler(r.Handler, r.MaxBody)
}
