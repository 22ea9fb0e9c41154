// Package prompts holds the swappable prompt templates used by the solver
// workflow and the fine-tuning transcript export. Templates use text/template
// syntax against a map of named variables, e.g. {{.examples}}.
package prompts

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
)

// Set is a complete collection of template texts, one per Stage.
// Empty fields fall back to the built-in defaults when merged.
type Set struct {
	Prediction           string `toml:"prediction"`
	Reflection           string `toml:"reflection"`
	Correction           string `toml:"correction"`
	Example              string `toml:"example"`
	PastAttempt          string `toml:"past_attempt"`
	FinetuneSystem       string `toml:"finetune_system"`
	FinetuneUserTask     string `toml:"finetune_user_task"`
	FinetuneAssistant    string `toml:"finetune_assistant"`
	FinetuneUserCritique string `toml:"finetune_user_critique"`
}

// Default returns the built-in template set.
func Default() Set {
	return Set{
		Prediction:           predictionTemplate,
		Reflection:           reflectionTemplate,
		Correction:           correctionTemplate,
		Example:              exampleTemplate,
		PastAttempt:          pastAttemptTemplate,
		FinetuneSystem:       finetuneSystemTemplate,
		FinetuneUserTask:     finetuneUserTaskTemplate,
		FinetuneAssistant:    finetuneAssistantTemplate,
		FinetuneUserCritique: finetuneUserCritiqueTemplate,
	}
}

// Load reads a TOML file of template overrides and merges it over the
// defaults. An empty path returns the defaults unchanged.
func Load(path string) (Set, error) {
	set := Default()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("read templates: %w", err)
	}

	var overlay Set
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return set, fmt.Errorf("parse templates: %w", err)
	}

	set.Merge(&overlay)

	if err := set.Validate(); err != nil {
		return set, err
	}

	return set, nil
}

// Merge overwrites fields whose overlay value is non-blank.
func (s *Set) Merge(overlay *Set) {
	for _, stage := range stages {
		if v := overlay.text(stage); strings.TrimSpace(v) != "" {
			*s.field(stage) = v
		}
	}
}

// Validate parses every template in the set.
func (s *Set) Validate() error {
	for _, stage := range stages {
		if _, err := s.Template(stage); err != nil {
			return err
		}
	}
	return nil
}

// Template parses the text for stage.
func (s *Set) Template(stage Stage) (*Template, error) {
	if s.field(stage) == nil {
		return nil, ErrInvalidStage
	}

	tmpl, err := template.New(string(stage)).
		Option("missingkey=error").
		Parse(s.text(stage))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseFailed, stage, err)
	}

	return &Template{stage: stage, tmpl: tmpl}, nil
}

// MustTemplate is Template for sets already checked with Validate.
func (s *Set) MustTemplate(stage Stage) *Template {
	t, err := s.Template(stage)
	if err != nil {
		panic(err)
	}
	return t
}

func (s *Set) text(stage Stage) string {
	if f := s.field(stage); f != nil {
		return *f
	}
	return ""
}

func (s *Set) field(stage Stage) *string {
	switch stage {
	case StagePrediction:
		return &s.Prediction
	case StageReflection:
		return &s.Reflection
	case StageCorrection:
		return &s.Correction
	case StageExample:
		return &s.Example
	case StagePastAttempt:
		return &s.PastAttempt
	case StageFinetuneSystem:
		return &s.FinetuneSystem
	case StageFinetuneUserTask:
		return &s.FinetuneUserTask
	case StageFinetuneAssistant:
		return &s.FinetuneAssistant
	case StageFinetuneUserCritique:
		return &s.FinetuneUserCritique
	}
	return nil
}

// Template is a parsed prompt template bound to its stage.
type Template struct {
	stage Stage
	tmpl  *template.Template
}

// Stage returns the slot this template was parsed for.
func (t *Template) Stage() Stage {
	return t.stage
}

// Render executes the template. Every variable the template references
// must be present in vars.
func (t *Template) Render(vars map[string]string) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, t.stage, err)
	}
	return sb.String(), nil
}
