package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/arcsolve/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	checks := []struct {
		name string
		ok   bool
	}{
		{"server addr", cfg.Server.Addr() == "0.0.0.0:8080"},
		{"database disabled", !cfg.Database.Enabled()},
		{"storage local", cfg.Storage.Provider == "local"},
		{"api base path", cfg.API.BasePath == "/api"},
		{"max body", cfg.API.MaxBodyBytes() == 1<<20},
		{"auth disabled", !cfg.API.Auth.Enabled()},
		{"llm model", cfg.LLM.Model == "gpt-4o"},
		{"max attempts", cfg.Solver.MaxAttempts == 3},
		{"batch", cfg.Batch.BatchSize == 5 && cfg.Batch.Workers == 3 && cfg.Batch.Sleep == "10s"},
		{"tasks", cfg.Tasks.TrainingDir == "data/training"},
		{"log level", cfg.Level() == slog.LevelInfo},
		{"shutdown", cfg.ShutdownTimeoutDuration() == 30*time.Second},
	}

	for _, c := range checks {
		if !c.ok {
			t.Errorf("%s: unexpected default in %+v", c.name, cfg)
		}
	}
}

func TestLoadOverlayAndEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.toml")

	writeFile(t, base, `
log_level = "debug"

[llm]
provider = "ollama"
model = "llama3"

[solver]
max_attempts = 5

[batch]
workers = 4
`)
	writeFile(t, filepath.Join(dir, "config.test.toml"), `
[batch]
workers = 8

[api]
max_body_size = "2MB"
`)

	t.Setenv("ARCSOLVE_ENV", "test")
	t.Setenv("ARCSOLVE_BATCH_SIZE", "7")
	t.Setenv("ARCSOLVE_SERVER_PORT", "9090")

	cfg, err := config.LoadFile(base)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	if cfg.Env() != "test" {
		t.Errorf("Env = %s", cfg.Env())
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level = %v", cfg.Level())
	}
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("ollama base url = %s", cfg.LLM.BaseURL)
	}
	if cfg.Solver.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d", cfg.Solver.MaxAttempts)
	}
	if cfg.Batch.Workers != 8 || cfg.Batch.BatchSize != 7 {
		t.Errorf("batch = %+v", cfg.Batch)
	}
	if cfg.API.MaxBodyBytes() != 2<<20 {
		t.Errorf("MaxBodyBytes = %d", cfg.API.MaxBodyBytes())
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `log_level = `},
		{"bad log level", `log_level = "loud"`},
		{"bad body size", "[api]\nmax_body_size = \"lots\""},
		{"auth without client", "[api.auth]\nissuer = \"https://login.example.com\""},
		{"unknown llm provider", "[llm]\nprovider = \"bard\""},
		{"bad sleep", "[batch]\nsleep = \"soon\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "sk-test")
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.content)

			if _, err := config.LoadFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTasksFS(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "abc.json"), `{}`)

	cfg := config.TasksConfig{TrainingDir: dir}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	fsys, err := cfg.FS(config.TaskSetTraining)
	if err != nil {
		t.Fatalf("FS error: %v", err)
	}
	if _, err := fsys.Open("abc.json"); err != nil {
		t.Errorf("Open error: %v", err)
	}

	if _, err := cfg.FS("holdout"); err == nil {
		t.Error("expected unknown set error")
	}
}

func TestSolverPrompts(t *testing.T) {
	cfg := config.SolverConfig{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	set, err := cfg.Prompts()
	if err != nil {
		t.Fatalf("Prompts error: %v", err)
	}
	if set.Prediction == "" {
		t.Error("expected default prediction template")
	}
}
