// Package api assembles the API module: domain systems, route registration,
// and the module's middleware.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/infrastructure"
	"github.com/JaimeStill/arcsolve/pkg/middleware"
	"github.com/JaimeStill/arcsolve/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Bearer authentication is applied when an issuer is configured.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux, middleware.Logger(runtime.Logger))

	if cfg.API.Auth.Enabled() {
		verifier, err := middleware.NewVerifier(ctx, &cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth verifier: %w", err)
		}
		m.Use(middleware.Auth(verifier, runtime.Logger))
	}

	return m, nil
}
