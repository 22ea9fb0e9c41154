package api

import (
	"github.com/JaimeStill/arcsolve/internal/evaluations"
	"github.com/JaimeStill/arcsolve/internal/finetune"
	"github.com/JaimeStill/arcsolve/internal/sessions"
	"github.com/JaimeStill/arcsolve/internal/tasks"
	"github.com/JaimeStill/arcsolve/pkg/storage"
)

// Domain holds all domain systems that comprise the API. Evaluations is nil
// when the database is disabled.
type Domain struct {
	Sessions    sessions.System
	Evaluations evaluations.System
	Finetune    *finetune.Handler
	Tasks       *tasks.Handler
	Storage     storage.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	examples := runtime.Examples()

	sessionsSystem := sessions.New(
		runtime.Runtime(),
		runtime.TaskSets[tasks.DefaultSet],
		sessions.NewBlobStore(runtime.Storage),
		examples,
		runtime.MaxAttempts,
		runtime.Logger,
	)

	var evaluationsSystem evaluations.System
	if runtime.Database != nil {
		evaluationsSystem = evaluations.New(
			runtime.Database.Connection(),
			runtime.Logger,
			runtime.Pagination,
		)
	}

	return &Domain{
		Sessions:    sessionsSystem,
		Evaluations: evaluationsSystem,
		Finetune:    finetune.NewHandler(examples, runtime.Jobs(), runtime.Logger, runtime.MaxBody),
		Tasks:       tasks.NewHandler(runtime.TaskSets, runtime.Logger),
		Storage:     runtime.Storage,
	}
}
