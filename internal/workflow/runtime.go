package workflow

import (
	"log/slog"

	"github.com/JaimeStill/arcsolve/internal/llm"
	"github.com/JaimeStill/arcsolve/internal/prompts"
)

// Runtime bundles the dependencies that workflow stages require.
// It is shared read-only across machines; each Machine owns its own context.
type Runtime struct {
	LLM      llm.Capability
	Prompts  prompts.Set
	Observer Observer
	Logger   *slog.Logger
}

func (rt *Runtime) observer() Observer {
	if rt.Observer == nil {
		return noopObserver{}
	}
	return rt.Observer
}

func (rt *Runtime) logger() *slog.Logger {
	if rt.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return rt.Logger
}

// WithObserver returns a copy of rt reporting to o.
func (rt *Runtime) WithObserver(o Observer) *Runtime {
	c := *rt
	c.Observer = o
	return &c
}
