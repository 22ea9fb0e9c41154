package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/arcsolve/internal/api"
	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/infrastructure"
	"github.com/JaimeStill/arcsolve/pkg/module"
)

// Server owns the infrastructure and the HTTP listener for the API module.
type Server struct {
	infra   *infrastructure.Infrastructure
	http    *http.Server
	logger  *slog.Logger
	drainIn time.Duration
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	apiModule, err := api.NewModule(ctx, cfg, infra)
	if err != nil {
		return nil, err
	}

	router := module.NewRouter()
	registerProbes(router, infra)
	router.Mount(apiModule)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"api", apiModule.Prefix(),
		"version", cfg.Version,
		"env", cfg.Env(),
	)

	return &Server{
		infra: infra,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
			WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		},
		logger:  infra.Logger.With("system", "http"),
		drainIn: cfg.Server.ShutdownTimeoutDuration(),
	}, nil
}

// Start runs the startup hooks and begins serving once they all succeed.
// The listener is bound before Start returns so a taken port is reported.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
		s.infra.Logger.Error("startup failed", "error", err)
		return err
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "error", err)
		}
	}()

	lc := s.infra.Lifecycle
	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.drainIn)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("drain failed", "error", err)
			return
		}
		s.logger.Info("http server stopped")
	})

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down")
	return s.infra.Lifecycle.Shutdown(timeout)
}
