package config

import (
	"fmt"

	"github.com/JaimeStill/arcsolve/internal/prompts"
)

// SolverEnv maps solver fields to environment variable names.
type SolverEnv struct {
	MaxAttempts string
	Templates   string
}

var solverEnv = &SolverEnv{
	MaxAttempts: "ARCSOLVE_SOLVER_MAX_ATTEMPTS",
	Templates:   "ARCSOLVE_SOLVER_TEMPLATES",
}

// SolverConfig bounds interactive sessions and selects prompt templates.
// Templates names a TOML file of overrides merged over the built-in set.
type SolverConfig struct {
	MaxAttempts int    `toml:"max_attempts"`
	Templates   string `toml:"templates"`
}

// Prompts loads the configured template set.
func (c *SolverConfig) Prompts() (prompts.Set, error) {
	set, err := prompts.Load(c.Templates)
	if err != nil {
		return set, err
	}
	return set, set.Validate()
}

func (c *SolverConfig) Finalize(env *SolverEnv) error {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if env != nil {
		setInt(env.MaxAttempts, &c.MaxAttempts)
		setString(env.Templates, &c.Templates)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	return nil
}

func (c *SolverConfig) Merge(overlay *SolverConfig) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.Templates != "" {
		c.Templates = overlay.Templates
	}
}
