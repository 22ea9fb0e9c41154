package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/arcsolve/pkg/openapi"
	"github.com/JaimeStill/arcsolve/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) error {
	groups := []routes.Group{
		domain.Tasks.Routes(),
		domain.Sessions.Handler(runtime.MaxBody).Routes(),
		domain.Finetune.Routes(),
		newStorageHandler(domain.Storage, runtime.Logger).routes(),
	}

	if domain.Evaluations != nil {
		groups = append(groups, domain.Evaluations.Handler().Routes())
	}

	doc := openapi.New(&runtime.OpenAPI, runtime.Version)
	doc.AddServer(runtime.BasePath)
	doc.AddRoutes(groups...)

	serveDoc, err := doc.Handler()
	if err != nil {
		return fmt.Errorf("openapi: %w", err)
	}

	routes.Register(mux, groups...)
	mux.HandleFunc("GET /openapi.json", serveDoc)
	return nil
}
