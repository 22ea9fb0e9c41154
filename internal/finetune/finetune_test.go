package finetune_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/arcsolve/internal/finetune"
	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/internal/workflow"
	"github.com/JaimeStill/arcsolve/pkg/storage"
)

var discard = slog.New(slog.DiscardHandler)

func attempt(pred, critique string) workflow.Attempt {
	return workflow.Attempt{
		ID:         uuid.New(),
		Prediction: workflow.Prediction{Rationale: "mirror rows", Prediction: pred},
		Critique:   &workflow.Critique{Critique: critique},
	}
}

func newStore(t *testing.T) (*finetune.Store, storage.System) {
	t.Helper()
	cfg := &storage.Config{Provider: storage.ProviderLocal, Path: filepath.Join(t.TempDir(), "assets")}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	sys, err := storage.New(cfg, discard)
	if err != nil {
		t.Fatalf("storage.New error: %v", err)
	}
	return finetune.NewStore(sys, discard), sys
}

func TestFromAttempts(t *testing.T) {
	set := prompts.Default()

	t.Run("solved transcript", func(t *testing.T) {
		attempts := []workflow.Attempt{
			attempt("1,0\n0,1", "The diagonal is flipped."),
			attempt("0,1\n1,0", workflow.SuccessCritique),
		}

		ex, err := finetune.FromAttempts("007bbfb7.json", "EX", "1,1", attempts, set)
		if err != nil {
			t.Fatalf("FromAttempts error: %v", err)
		}

		roles := make([]string, len(ex.Messages))
		for i, m := range ex.Messages {
			roles[i] = m.Role
		}
		want := "system,user,assistant,user,assistant,user,assistant"
		if got := strings.Join(roles, ","); got != want {
			t.Errorf("roles = %s, want %s", got, want)
		}

		if !strings.Contains(ex.Messages[1].Content, "EX") || !strings.Contains(ex.Messages[1].Content, "1,1") {
			t.Errorf("task message = %q", ex.Messages[1].Content)
		}
		if !strings.Contains(ex.Messages[2].Content, "1,0\n0,1") || !strings.Contains(ex.Messages[2].Content, "mirror rows") {
			t.Errorf("assistant message = %q", ex.Messages[2].Content)
		}
		if !strings.Contains(ex.Messages[3].Content, "The diagonal is flipped.") {
			t.Errorf("critique message = %q", ex.Messages[3].Content)
		}
		if last := ex.Messages[len(ex.Messages)-1].Content; last != finetune.SolvedClosing {
			t.Errorf("closing = %q", last)
		}
	})

	t.Run("unsolved transcript", func(t *testing.T) {
		ex, err := finetune.FromAttempts("t", "EX", "1", []workflow.Attempt{attempt("0", "Wrong colour.")}, set)
		if err != nil {
			t.Fatalf("FromAttempts error: %v", err)
		}
		if last := ex.Messages[len(ex.Messages)-1].Content; last != finetune.UnsolvedClosing {
			t.Errorf("closing = %q", last)
		}
	})

	t.Run("no attempts", func(t *testing.T) {
		if _, err := finetune.FromAttempts("t", "EX", "1", nil, set); !errors.Is(err, finetune.ErrNoAttempts) {
			t.Errorf("error = %v, want ErrNoAttempts", err)
		}
		if _, err := finetune.FromContext("t", nil, set); !errors.Is(err, finetune.ErrNoAttempts) {
			t.Errorf("nil context error = %v, want ErrNoAttempts", err)
		}
	})

	t.Run("from context", func(t *testing.T) {
		ec := &workflow.ExecutionContext{
			Attempts: []workflow.Attempt{attempt("0", "")},
			PromptVars: map[string]string{
				workflow.VarExamples:  "EXAMPLES-BLOCK",
				workflow.VarTestInput: "9,9",
			},
		}
		ex, err := finetune.FromContext("t", ec, set)
		if err != nil {
			t.Fatalf("FromContext error: %v", err)
		}
		if !strings.Contains(ex.Messages[1].Content, "EXAMPLES-BLOCK") {
			t.Errorf("task message = %q", ex.Messages[1].Content)
		}
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	set := prompts.Default()

	if _, err := store.PrepareJSONL(ctx); !errors.Is(err, finetune.ErrNoExamples) {
		t.Fatalf("PrepareJSONL on empty store = %v, want ErrNoExamples", err)
	}

	for _, name := range []string{"b.json", "a"} {
		ex, err := finetune.FromAttempts(name, "EX", "1", []workflow.Attempt{attempt("0", workflow.SuccessCritique)}, set)
		if err != nil {
			t.Fatalf("FromAttempts error: %v", err)
		}
		if err := store.Save(ctx, ex); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	names, err := store.Saved(ctx)
	if err != nil {
		t.Fatalf("Saved error: %v", err)
	}
	if strings.Join(names, ",") != "a.json,b.json" {
		t.Errorf("saved = %v", names)
	}

	loaded, err := store.Load(ctx, "a")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.TaskName != "a.json" || len(loaded.Messages) != 5 {
		t.Errorf("loaded = %+v", loaded)
	}

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, finetune.ErrNotFound) {
		t.Errorf("Load missing = %v, want ErrNotFound", err)
	}
	if err := store.Save(ctx, &finetune.Example{TaskName: "../escape"}); !errors.Is(err, finetune.ErrInvalidName) {
		t.Errorf("Save traversal = %v, want ErrInvalidName", err)
	}

	n, err := store.PrepareJSONL(ctx)
	if err != nil || n != 2 {
		t.Fatalf("PrepareJSONL = %d, %v", n, err)
	}

	data, err := store.TrainingFile(ctx)
	if err != nil {
		t.Fatalf("TrainingFile error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for _, line := range lines {
		var rec struct {
			Messages []finetune.Message `json:"messages"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil || len(rec.Messages) == 0 {
			t.Errorf("line %q did not decode: %v", line, err)
		}
	}
}

type fakeOpenAI struct {
	mu       sync.Mutex
	uploaded []byte
	created  []openai.FineTuningJobRequest
	jobs     map[string]openai.FineTuningJob
}

func (f *fakeOpenAI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/files", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		if got := r.FormValue("purpose"); got != string(openai.PurposeFineTune) {
			t.Errorf("purpose = %q", got)
		}

		f.mu.Lock()
		f.uploaded = data
		f.mu.Unlock()

		json.NewEncoder(w).Encode(openai.File{ID: "file-1", Purpose: string(openai.PurposeFineTune)})
	})

	mux.HandleFunc("POST /v1/fine_tuning/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req openai.FineTuningJobRequest
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.created = append(f.created, req)
		job := openai.FineTuningJob{ID: "ftjob-new", Model: req.Model, Status: "validating_files", TrainingFile: req.TrainingFile}
		f.jobs[job.ID] = job
		f.mu.Unlock()

		json.NewEncoder(w).Encode(job)
	})

	mux.HandleFunc("GET /v1/fine_tuning/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		job, ok := f.jobs[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"message":"job not found","type":"invalid_request_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(job)
	})

	return mux
}

func TestJobs(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	fake := &fakeOpenAI{jobs: map[string]openai.FineTuningJob{
		"ftjob-old": {ID: "ftjob-old", Status: "succeeded", FineTunedModel: "ft:gpt-4o-2024-08-06:org::abc"},
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-token")
	cfg.BaseURL = srv.URL + "/v1"
	jobs := finetune.NewJobs(openai.NewClientWithConfig(cfg), store, discard)

	if _, err := jobs.Latest(ctx); !errors.Is(err, finetune.ErrNoJobs) {
		t.Fatalf("Latest before submit = %v, want ErrNoJobs", err)
	}
	if _, err := jobs.Submit(ctx, finetune.SubmitOptions{}); !errors.Is(err, finetune.ErrNoExamples) {
		t.Fatalf("Submit without examples = %v, want ErrNoExamples", err)
	}

	ex, err := finetune.FromAttempts("t1", "EX", "1", []workflow.Attempt{attempt("0", workflow.SuccessCritique)}, prompts.Default())
	if err != nil {
		t.Fatalf("FromAttempts error: %v", err)
	}
	if err := store.Save(ctx, ex); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	t.Run("fresh submit", func(t *testing.T) {
		job, err := jobs.Submit(ctx, finetune.SubmitOptions{})
		if err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		if job.ID != "ftjob-new" {
			t.Errorf("job = %+v", job)
		}
		if got := fake.created[0]; got.Model != finetune.DefaultModel || got.TrainingFile != "file-1" {
			t.Errorf("request = %+v", got)
		}
		if !strings.Contains(string(fake.uploaded), `"messages"`) {
			t.Errorf("uploaded = %s", fake.uploaded)
		}
	})

	t.Run("continue from previous job", func(t *testing.T) {
		if _, err := jobs.Submit(ctx, finetune.SubmitOptions{StartJobID: "ftjob-old"}); err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		if got := fake.created[1].Model; got != "ft:gpt-4o-2024-08-06:org::abc" {
			t.Errorf("model = %s, want previous fine-tuned model", got)
		}

		latest, err := jobs.Latest(ctx)
		if err != nil {
			t.Fatalf("Latest error: %v", err)
		}
		if latest.StartJobID != "ftjob-new" || latest.Model != "ft:gpt-4o-2024-08-06:org::abc" {
			t.Errorf("latest = %+v", latest)
		}
	})

	t.Run("status", func(t *testing.T) {
		job, err := jobs.Status(ctx, "ftjob-new")
		if err != nil || job.Status != "validating_files" {
			t.Errorf("Status = %+v, %v", job, err)
		}
		if _, err := jobs.Status(ctx, "ftjob-missing"); err == nil {
			t.Error("expected error for unknown job")
		}
		if _, err := jobs.Status(ctx, ""); !errors.Is(err, finetune.ErrMissingInput) {
			t.Errorf("Status(\"\") = %v, want ErrMissingInput", err)
		}
	})

	t.Run("unknown start job", func(t *testing.T) {
		if _, err := jobs.Submit(ctx, finetune.SubmitOptions{StartJobID: "ftjob-missing"}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{finetune.ErrNotFound, http.StatusNotFound},
		{finetune.ErrNoJobs, http.StatusNotFound},
		{finetune.ErrNoAttempts, http.StatusBadRequest},
		{finetune.ErrNoExamples, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := finetune.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
