// Package tasks loads ARC puzzle files keyed by task name from an fs.FS.
// A task named "0a1d4ef5" lives in "0a1d4ef5.json".
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/JaimeStill/arcsolve/internal/workflow"
)

const ext = ".json"

var (
	ErrNotFound    = errors.New("task not found")
	ErrInvalidName = errors.New("invalid task name")
)

// MapHTTPStatus maps task errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidName), errors.Is(err, workflow.ErrInvalidTask):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// List returns the sorted names of every task file at the root of fsys.
func List(fsys fs.FS) ([]string, error) {
	matches, err := fs.Glob(fsys, "*"+ext)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = strings.TrimSuffix(m, ext)
	}
	slices.Sort(names)

	return names, nil
}

// Load reads and validates the named task.
func Load(fsys fs.FS, name string) (workflow.Task, error) {
	if name == "" || path.Base(name) != name || !fs.ValidPath(name) {
		return workflow.Task{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	data, err := fs.ReadFile(fsys, name+ext)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return workflow.Task{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return workflow.Task{}, fmt.Errorf("read task %s: %w", name, err)
	}

	var task workflow.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return workflow.Task{}, fmt.Errorf("%w: %s: %w", workflow.ErrInvalidTask, name, err)
	}
	task.Name = name

	if err := task.Validate(); err != nil {
		return workflow.Task{}, fmt.Errorf("task %s: %w", name, err)
	}

	return task, nil
}

// LoadAll loads names in order, failing on the first error.
func LoadAll(fsys fs.FS, names []string) ([]workflow.Task, error) {
	out := make([]workflow.Task, 0, len(names))
	for _, name := range names {
		task, err := Load(fsys, name)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}
