// Package grid converts ARC puzzle boards between their structured form and
// the comma/newline text form used in prompts, predictions, and stored results.
package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedGrid is matched by every MalformedGridError.
var ErrMalformedGrid = errors.New("malformed grid")

// MalformedGridError describes why a text or structured grid was rejected.
// Row and Col are 1-indexed; zero means the position does not apply.
type MalformedGridError struct {
	Row    int
	Col    int
	Reason string
}

func (e *MalformedGridError) Error() string {
	switch {
	case e.Row > 0 && e.Col > 0:
		return fmt.Sprintf("%s: row %d, column %d: %s", ErrMalformedGrid, e.Row, e.Col, e.Reason)
	case e.Row > 0:
		return fmt.Sprintf("%s: row %d: %s", ErrMalformedGrid, e.Row, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", ErrMalformedGrid, e.Reason)
	}
}

// Is allows errors.Is(err, ErrMalformedGrid).
func (e *MalformedGridError) Is(target error) bool {
	return target == ErrMalformedGrid
}

// Grid is a rectangular board of small non-negative integers.
type Grid [][]int

// Validate requires a non-empty grid of equal-length non-empty rows with
// non-negative cells.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return &MalformedGridError{Reason: "grid has no rows"}
	}

	width := len(g[0])
	for i, row := range g {
		if len(row) == 0 {
			return &MalformedGridError{Row: i + 1, Reason: "row is empty"}
		}
		if len(row) != width {
			return &MalformedGridError{
				Row:    i + 1,
				Reason: fmt.Sprintf("row has %d cells, expected %d", len(row), width),
			}
		}
		for j, v := range row {
			if v < 0 {
				return &MalformedGridError{Row: i + 1, Col: j + 1, Reason: "cell is negative"}
			}
		}
	}

	return nil
}

// Dims returns the row and column counts.
func (g Grid) Dims() (rows, cols int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// Equal reports whether a and b hold the same cells in the same positions.
func Equal(a, b Grid) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// Encode renders each row as comma-joined integers and joins rows with newlines.
func Encode(g Grid) string {
	var sb strings.Builder
	for i, row := range g {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(v))
		}
	}
	return sb.String()
}

// Decode parses text produced by Encode, or by an LLM imitating it. Tokens may
// carry surrounding whitespace and the text may end with a single newline.
// Any other deviation yields a *MalformedGridError.
func Decode(text string) (Grid, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil, &MalformedGridError{Reason: "text is empty"}
	}

	lines := strings.Split(text, "\n")
	g := make(Grid, len(lines))

	for i, line := range lines {
		tokens := strings.Split(line, ",")
		row := make([]int, len(tokens))
		for j, tok := range tokens {
			v, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				return nil, &MalformedGridError{
					Row:    i + 1,
					Col:    j + 1,
					Reason: fmt.Sprintf("invalid integer %q", tok),
				}
			}
			row[j] = v
		}
		g[i] = row
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}
