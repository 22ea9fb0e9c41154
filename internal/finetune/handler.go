package finetune

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/arcsolve/pkg/handlers"
	"github.com/JaimeStill/arcsolve/pkg/routes"
)

// Handler exposes saved examples and fine-tuning jobs over HTTP.
type Handler struct {
	store   *Store
	jobs    *Jobs
	logger  *slog.Logger
	maxBody int64
}

func NewHandler(store *Store, jobs *Jobs, logger *slog.Logger, maxBody int64) *Handler {
	return &Handler{
		store:   store,
		jobs:    jobs,
		logger:  logger.With("handler", "finetune"),
		maxBody: maxBody,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/finetune",
		Children: []routes.Group{
			{
				Prefix: "/examples",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.listExamples, Summary: "List saved fine-tuning examples"},
					{Method: "GET", Pattern: "/{name}", Handler: h.findExample, Summary: "Get a fine-tuning example"},
				},
			},
			{
				Prefix: "/jobs",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.submit, MaxBody: h.maxBody, Summary: "Submit a fine-tuning job"},
					{Method: "GET", Pattern: "/latest", Handler: h.latest, Summary: "Get the most recent fine-tuning job"},
					{Method: "GET", Pattern: "/{id}", Handler: h.status, Summary: "Get a fine-tuning job"},
				},
			},
		},
	}
}

func (h *Handler) listExamples(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.Saved(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if names == nil {
		names = []string{}
	}
	handlers.RespondJSON(w, http.StatusOK, names)
}

func (h *Handler) findExample(w http.ResponseWriter, r *http.Request) {
	ex, err := h.store.Load(r.Context(), r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, ex)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var opts SubmitOptions
	if err := handlers.DecodeJSON(r, h.maxBody, &opts); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	job, err := h.jobs.Submit(r.Context(), opts)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, job)
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.jobs.Latest(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, job)
}
