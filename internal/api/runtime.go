package api

import (
	"fmt"
	"io/fs"

	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/infrastructure"
	"github.com/JaimeStill/arcsolve/pkg/openapi"
	"github.com/JaimeStill/arcsolve/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	MaxBody     int64
	MaxAttempts int
	TaskSets    map[string]fs.FS
	OpenAPI     openapi.Config
	BasePath    string
	Version     string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	sets := make(map[string]fs.FS, 2)
	for _, name := range []string{config.TaskSetTraining, config.TaskSetEvaluation} {
		fsys, err := cfg.Tasks.FS(name)
		if err != nil {
			return nil, fmt.Errorf("task set %s: %w", name, err)
		}
		sets[name] = fsys
	}

	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		MaxBody:        cfg.API.MaxBodyBytes(),
		MaxAttempts:    cfg.Solver.MaxAttempts,
		TaskSets:       sets,
		OpenAPI:        cfg.API.OpenAPI,
		BasePath:       cfg.API.BasePath,
		Version:        cfg.Version,
	}, nil
}
