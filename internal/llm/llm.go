// Package llm defines the structured-completion capability the solver
// workflow consumes and an implementation over OpenAI-compatible chat APIs.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/pkg/formatting"
)

// Capability produces an instance of schema from a rendered template.
// Implementations apply their own retry policy and return a *CapabilityError
// rather than partially populated output when they cannot conform.
type Capability interface {
	StructuredComplete(
		ctx context.Context,
		schema Schema,
		tmpl *prompts.Template,
		vars map[string]string,
		out any,
	) error
}

// Field is a required string property of a Schema.
type Field struct {
	Name        string
	Description string
}

// Schema is the structural contract for one completion: a named object whose
// listed fields must all be present as strings.
type Schema struct {
	Name   string
	Fields []Field
}

// Instructions renders the output contract appended to every prompt.
func (s Schema) Instructions() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Respond with a single JSON object (%s) containing exactly these string fields:\n", s.Name)
	for _, f := range s.Fields {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Name, f.Description)
	}
	return sb.String()
}

// Decode parses content into out after checking every schema field is
// present and holds a string.
func (s Schema) Decode(content string, out any) error {
	var raw map[string]any
	if err := formatting.ParseInto(content, &raw); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSchemaViolation, s.Name, err)
	}

	for _, f := range s.Fields {
		v, ok := raw[f.Name]
		if !ok {
			return fmt.Errorf("%w: %s: missing field %q", ErrSchemaViolation, s.Name, f.Name)
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: %s: field %q is %T, not string", ErrSchemaViolation, s.Name, f.Name, v)
		}
	}

	if err := formatting.ParseInto(content, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSchemaViolation, s.Name, err)
	}

	return nil
}
