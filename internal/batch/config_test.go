package batch_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/arcsolve/internal/batch"
)

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg batch.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.BatchSize != 5 || cfg.Workers != 3 || cfg.Cycles != 1 {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.SleepDuration() != 10*time.Second {
			t.Errorf("sleep = %s", cfg.SleepDuration())
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_BATCH_WORKERS", "8")
		t.Setenv("TEST_BATCH_SLEEP", "250ms")

		var cfg batch.Config
		env := &batch.Env{Workers: "TEST_BATCH_WORKERS", Sleep: "TEST_BATCH_SLEEP"}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.Workers != 8 || cfg.SleepDuration() != 250*time.Millisecond {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("rejects bad sleep", func(t *testing.T) {
		cfg := batch.Config{Sleep: "later"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error")
		}
	})

	for _, cfg := range []batch.Config{{BatchSize: -1}, {Workers: -2}, {Cycles: -1}} {
		t.Run("rejects negative sizes", func(t *testing.T) {
			if err := cfg.Finalize(nil); err == nil {
				t.Errorf("Finalize(%+v) = nil, want error", cfg)
			}
		})
	}

	t.Run("rejects zero from env", func(t *testing.T) {
		t.Setenv("TEST_BATCH_SIZE", "0")

		var cfg batch.Config
		if err := cfg.Finalize(&batch.Env{BatchSize: "TEST_BATCH_SIZE"}); err == nil {
			t.Errorf("Finalize = nil, want error for batch size %d", cfg.BatchSize)
		}
	})

	t.Run("rejects negative sleep", func(t *testing.T) {
		cfg := batch.Config{Sleep: "-1s"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error")
		}
	})
}

func TestConfigMerge(t *testing.T) {
	cfg := batch.Config{BatchSize: 5, Workers: 3, Sleep: "10s", Cycles: 1}
	cfg.Merge(&batch.Config{Workers: 6, Sleep: "0s"})

	if cfg.Workers != 6 || cfg.Sleep != "0s" || cfg.BatchSize != 5 {
		t.Errorf("Merge = %+v", cfg)
	}
}
