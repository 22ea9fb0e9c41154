// Package openapi generates an OpenAPI 3.1 document from registered route
// groups.
package openapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JaimeStill/arcsolve/pkg/routes"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI string               `json:"openapi"`
	Info    *Info                `json:"info"`
	Servers []*Server            `json:"servers,omitempty"`
	Paths   map[string]*PathItem `json:"paths"`
}

// New creates an empty Spec described by cfg.
func New(cfg *Config, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       cfg.Title,
			Version:     version,
			Description: cfg.Description,
		},
		Paths: make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddRoutes documents every route in groups. Path wildcards become
// required path parameters and the first path segment becomes the tag.
func (s *Spec) AddRoutes(groups ...routes.Group) {
	for path, r := range routes.All(groups...) {
		if path == "" {
			path = "/"
		}
		clean, params := pathParams(path)

		item, ok := s.Paths[clean]
		if !ok {
			item = &PathItem{}
			s.Paths[clean] = item
		}

		op := &Operation{
			Summary:    r.Summary,
			Tags:       tag(clean),
			Parameters: params,
			Responses:  responses(r.Method),
		}

		switch r.Method {
		case http.MethodGet:
			item.Get = op
		case http.MethodPost:
			item.Post = op
		case http.MethodPut:
			item.Put = op
		case http.MethodDelete:
			item.Delete = op
		}
	}
}

// Handler returns a handler that serves the spec as JSON. The document is
// serialized once.
func (s *Spec) Handler() (http.HandlerFunc, error) {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}, nil
}

// pathParams rewrites {name...} wildcards to {name} and returns a path
// parameter for each wildcard.
func pathParams(path string) (string, []*Parameter) {
	segments := strings.Split(path, "/")
	var params []*Parameter
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.Trim(seg, "{}"), "...")
		segments[i] = "{" + name + "}"
		params = append(params, &Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: "string"},
		})
	}
	return strings.Join(segments, "/"), params
}

func tag(path string) []string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "" {
		return nil
	}
	return []string{first}
}

func responses(method string) map[string]*Response {
	out := map[string]*Response{
		"400": {Description: "Invalid request"},
		"404": {Description: "Not found"},
		"500": {Description: "Internal error"},
	}
	switch method {
	case http.MethodPost:
		out["200"] = &Response{Description: "OK"}
		out["201"] = &Response{Description: "Created"}
	case http.MethodDelete:
		out["204"] = &Response{Description: "Deleted"}
	default:
		out["200"] = &Response{Description: "OK"}
	}
	return out
}
