// Package formatting extracts structured JSON payloads from model output.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly, from a markdown code fence, or from the outermost
// object embedded in surrounding prose.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse attempts to unmarshal content as JSON into T.
// See ParseInto for the fallbacks applied.
func Parse[T any](content string) (T, error) {
	var result T
	if err := ParseInto(content, &result); err != nil {
		return result, err
	}
	return result, nil
}

// ParseInto unmarshals content into out, which must be a pointer.
// If direct parsing fails it retries on the body of a markdown code fence,
// then on the span between the first '{' and the last '}'.
func ParseInto(content string, out any) error {
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		if err := json.Unmarshal([]byte(candidate), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrParseFailed, content)
}

func candidates(content string) []string {
	out := []string{content}

	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		out = append(out, strings.TrimSpace(matches[1]))
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}
