package tasks

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"slices"

	"github.com/JaimeStill/arcsolve/pkg/handlers"
	"github.com/JaimeStill/arcsolve/pkg/routes"
)

// DefaultSet is served when a request names no set.
const DefaultSet = "training"

// Handler serves task listings and task bodies from named task sets.
type Handler struct {
	sets   map[string]fs.FS
	logger *slog.Logger
}

// NewHandler creates a Handler over sets keyed by name, e.g. "training".
func NewHandler(sets map[string]fs.FS, logger *slog.Logger) *Handler {
	return &Handler{
		sets:   sets,
		logger: logger.With("handler", "tasks"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tasks",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list, Summary: "List task names in a set"},
			{Method: "GET", Pattern: "/sets", Handler: h.listSets, Summary: "List task sets"},
			{Method: "GET", Pattern: "/{name}", Handler: h.find, Summary: "Get a task"},
		},
	}
}

func (h *Handler) set(r *http.Request) (fs.FS, error) {
	name := r.URL.Query().Get("set")
	if name == "" {
		name = DefaultSet
	}
	fsys, ok := h.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown set %q", ErrNotFound, name)
	}
	return fsys, nil
}

func (h *Handler) listSets(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(h.sets))
	for name := range h.sets {
		names = append(names, name)
	}
	slices.Sort(names)
	handlers.RespondJSON(w, http.StatusOK, names)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	fsys, err := h.set(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	names, err := List(fsys)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, names)
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) {
	fsys, err := h.set(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	task, err := Load(fsys, r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, task)
}
