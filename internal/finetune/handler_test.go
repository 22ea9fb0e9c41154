package finetune_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/arcsolve/internal/finetune"
	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/internal/workflow"
	"github.com/JaimeStill/arcsolve/pkg/routes"
)

func TestHandler(t *testing.T) {
	store, _ := newStore(t)

	fake := &fakeOpenAI{jobs: map[string]openai.FineTuningJob{}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-token")
	cfg.BaseURL = srv.URL + "/v1"
	jobs := finetune.NewJobs(openai.NewClientWithConfig(cfg), store, discard)

	mux := http.NewServeMux()
	routes.Register(mux, finetune.NewHandler(store, jobs, discard, 1<<20).Routes())

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	if rec := do("GET", "/finetune/examples", ""); rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list = %d %s", rec.Code, rec.Body)
	}
	if rec := do("POST", "/finetune/jobs", "{}"); rec.Code != http.StatusConflict {
		t.Errorf("submit without examples = %d, want 409", rec.Code)
	}

	ex, err := finetune.FromAttempts("t1", "EX", "1", []workflow.Attempt{attempt("0", workflow.SuccessCritique)}, prompts.Default())
	if err != nil {
		t.Fatalf("FromAttempts error: %v", err)
	}
	if err := store.Save(context.Background(), ex); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"list", "GET", "/finetune/examples", "", http.StatusOK, `"t1.json"`},
		{"find", "GET", "/finetune/examples/t1", "", http.StatusOK, `"messages"`},
		{"find missing", "GET", "/finetune/examples/t2", "", http.StatusNotFound, "not found"},
		{"latest before submit", "GET", "/finetune/jobs/latest", "", http.StatusNotFound, "error"},
		{"unknown field", "POST", "/finetune/jobs", `{"epochs":3}`, http.StatusBadRequest, "error"},
		{"submit", "POST", "/finetune/jobs", `{"model":"gpt-4o-mini"}`, http.StatusCreated, `"ftjob-new"`},
		{"latest", "GET", "/finetune/jobs/latest", "", http.StatusOK, `"start_job_id":"ftjob-new"`},
		{"status", "GET", "/finetune/jobs/ftjob-new", "", http.StatusOK, "validating_files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s, want substring %s", rec.Body, tt.want)
			}
		})
	}
}
