package tasks_test

import (
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/arcsolve/internal/tasks"
	"github.com/JaimeStill/arcsolve/pkg/routes"
)

func TestHandler(t *testing.T) {
	sets := map[string]fs.FS{
		"training":   fixture(),
		"evaluation": fixture(),
	}

	mux := http.NewServeMux()
	routes.Register(mux, tasks.NewHandler(sets, slog.New(slog.DiscardHandler)).Routes())

	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"sets", "/tasks/sets", http.StatusOK, `["evaluation","training"]`},
		{"list default", "/tasks", http.StatusOK, `"flip"`},
		{"list evaluation", "/tasks?set=evaluation", http.StatusOK, `"abc123"`},
		{"unknown set", "/tasks?set=holdout", http.StatusNotFound, "unknown set"},
		{"find", "/tasks/flip", http.StatusOK, `"train"`},
		{"missing", "/tasks/nope", http.StatusNotFound, "task not found"},
		{"invalid", "/tasks/ragged", http.StatusBadRequest, "invalid task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s, want substring %s", rec.Body, tt.want)
			}
		})
	}
}
