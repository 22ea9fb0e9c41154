package sessions

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/internal/workflow"
	"github.com/JaimeStill/arcsolve/pkg/grid"
	"github.com/JaimeStill/arcsolve/pkg/handlers"
	"github.com/JaimeStill/arcsolve/pkg/routes"
)

// Handler provides HTTP endpoints for interactive sessions.
type Handler struct {
	sys     System
	logger  *slog.Logger
	maxBody int64
}

// StartRequest names the task to solve.
type StartRequest struct {
	Task string `json:"task"`
}

// ContinueRequest carries the analyst's critique. An empty critique accepts
// the model's own.
type ContinueRequest struct {
	Critique string `json:"critique"`
}

// View is the response shape for a single session.
type View struct {
	*Session
	History    []workflow.Attempt `json:"history"`
	Prediction grid.Grid          `json:"prediction,omitempty"`
}

// NewHandler creates a Handler. maxBody caps request bodies.
func NewHandler(sys System, logger *slog.Logger, maxBody int64) *Handler {
	return &Handler{
		sys:     sys,
		logger:  logger.With("handler", "sessions"),
		maxBody: maxBody,
	}
}

// Routes returns the route group for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Summary: "List sessions"},
			{Method: "POST", Pattern: "", Handler: h.Start, Summary: "Start a session and run the first cycle"},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, Summary: "Get a session"},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Abort, Summary: "Abort a session"},
			{Method: "POST", Pattern: "/{id}/continue", Handler: h.Continue, Summary: "Continue a session with a critique"},
			{Method: "GET", Pattern: "/{id}/finetune", Handler: h.Preview, Summary: "Preview the fine-tuning example for a session"},
			{Method: "POST", Pattern: "/{id}/finetune", Handler: h.SaveExample, Summary: "Save the fine-tuning example for a session"},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := handlers.DecodeJSON(r, h.maxBody, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if req.Task == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: task required", handlers.ErrInvalidBody))
		return
	}

	s, err := h.sys.Start(r.Context(), req.Task)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, view(s))
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	s, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view(s))
}

func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req ContinueRequest
	if err := handlers.DecodeJSON(r, h.maxBody, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	s, err := h.sys.Continue(r.Context(), id, req.Critique)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view(s))
}

func (h *Handler) Abort(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Abort(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	ex, err := h.sys.Preview(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, ex)
}

func (h *Handler) SaveExample(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	ex, err := h.sys.SaveExample(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, ex)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid session id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}

// view decorates s with newest-first history and the latest prediction
// decoded as a grid when it parses.
func view(s *Session) View {
	v := View{Session: s, History: s.History()}
	if s.Context != nil {
		if latest := s.Context.Latest(); latest != nil {
			if g, err := grid.Decode(latest.Prediction.Prediction); err == nil {
				v.Prediction = g
			}
		}
	}
	return v
}
