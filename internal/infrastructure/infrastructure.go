// Package infrastructure assembles the dependencies shared by the server and
// the CLI: logging, lifecycle, storage, the optional database, the LLM
// client, and the prompt templates.
package infrastructure

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/finetune"
	"github.com/JaimeStill/arcsolve/internal/llm"
	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/internal/workflow"
	"github.com/JaimeStill/arcsolve/pkg/database"
	"github.com/JaimeStill/arcsolve/pkg/lifecycle"
	"github.com/JaimeStill/arcsolve/pkg/storage"
)

// Infrastructure holds the core systems required by every entry point.
// Database is nil when no database name is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	LLM       *llm.Client
	Prompts   prompts.Set
}

// New creates an Infrastructure from the application configuration. It
// initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	db, err := database.New(&cfg.Database, logger)
	switch {
	case errors.Is(err, database.ErrDisabled):
		logger.Info("database disabled, evaluations will not be recorded")
		db = nil
	case err != nil:
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	client, err := llm.New(&cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("llm init failed: %w", err)
	}

	set, err := cfg.Solver.Prompts()
	if err != nil {
		return nil, fmt.Errorf("prompts init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		LLM:       client,
		Prompts:   set,
	}, nil
}

// Start registers storage and, when configured, the database with the
// lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}

// Runtime returns the workflow runtime backed by the LLM client.
func (i *Infrastructure) Runtime() *workflow.Runtime {
	return &workflow.Runtime{
		LLM:     i.LLM,
		Prompts: i.Prompts,
		Logger:  i.Logger.With("system", "workflow"),
	}
}

// Examples returns the fine-tuning example store over Storage.
func (i *Infrastructure) Examples() *finetune.Store {
	return finetune.NewStore(i.Storage, i.Logger)
}

// Jobs returns the fine-tuning job client over the LLM provider's API.
func (i *Infrastructure) Jobs() *finetune.Jobs {
	return finetune.NewJobs(i.LLM.API(), i.Examples(), i.Logger)
}
