package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/arcsolve/internal/llm"
	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/internal/workflow"
	"github.com/JaimeStill/arcsolve/pkg/grid"
)

type call struct {
	stage prompts.Stage
	vars  map[string]string
}

// scriptedLLM replays canned JSON replies per schema and records every call.
type scriptedLLM struct {
	mu          sync.Mutex
	predictions []string
	critiques   []string
	failOn      prompts.Stage
	calls       []call
}

func (s *scriptedLLM) StructuredComplete(
	_ context.Context,
	schema llm.Schema,
	tmpl *prompts.Template,
	vars map[string]string,
	out any,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call{stage: tmpl.Stage(), vars: vars})

	if s.failOn == tmpl.Stage() {
		return &llm.CapabilityError{Stage: tmpl.Stage(), Attempts: 1, Err: errors.New("provider unavailable")}
	}

	if _, err := tmpl.Render(vars); err != nil {
		return err
	}

	var queue *[]string
	switch schema.Name {
	case workflow.PredictionSchema.Name:
		queue = &s.predictions
	case workflow.CritiqueSchema.Name:
		queue = &s.critiques
	default:
		return fmt.Errorf("unexpected schema %s", schema.Name)
	}

	if len(*queue) == 0 {
		return fmt.Errorf("no scripted %s reply", schema.Name)
	}
	content := (*queue)[0]
	*queue = (*queue)[1:]

	return schema.Decode(content, out)
}

func (s *scriptedLLM) stages() []prompts.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]prompts.Stage, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.stage
	}
	return out
}

func predictionReply(prediction string) string {
	b, _ := json.Marshal(workflow.Prediction{Rationale: "swap rows", Prediction: prediction})
	return string(b)
}

func critiqueReply(critique string) string {
	b, _ := json.Marshal(workflow.Critique{Critique: critique})
	return string(b)
}

func flipTask() workflow.Task {
	return workflow.Task{
		Name: "flip",
		Train: []workflow.Pair{{
			Input:  grid.Grid{{0, 1}, {1, 0}},
			Output: grid.Grid{{1, 0}, {0, 1}},
		}},
		Test: []workflow.Pair{{
			Input:  grid.Grid{{0, 0}, {1, 1}},
			Output: grid.Grid{{1, 1}, {0, 0}},
		}},
	}
}

func newRuntime(fake *scriptedLLM) *workflow.Runtime {
	return &workflow.Runtime{
		LLM:     fake,
		Prompts: prompts.Default(),
		Logger:  slog.New(slog.DiscardHandler),
	}
}

func stagesEqual(got, want []prompts.Stage) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestEndToEndResume(t *testing.T) {
	ctx := context.Background()
	fake := &scriptedLLM{
		predictions: []string{predictionReply("0,0\n1,1"), predictionReply("1,1\n0,0")},
		critiques:   []string{critiqueReply("rows were not swapped")},
	}
	rt := newRuntime(fake)
	task := flipTask()

	m, err := workflow.New(rt, task)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("cycle 1 error: %v", err)
	}
	if out.Passing {
		t.Error("cycle 1 should fail")
	}
	if len(out.Attempts) != 1 {
		t.Fatalf("cycle 1 attempts = %d, want 1", len(out.Attempts))
	}
	if m.Stage() != workflow.StageContinue {
		t.Errorf("stage = %s, want continue", m.Stage())
	}
	if got := out.Attempts[0].CritiqueText(); got != "rows were not swapped" {
		t.Errorf("critique = %q", got)
	}

	data, err := json.Marshal(m.Context())
	if err != nil {
		t.Fatalf("marshal context: %v", err)
	}
	var saved workflow.ExecutionContext
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("unmarshal context: %v", err)
	}

	resumed, err := workflow.Resume(rt, task, &saved, "the rows should be swapped top to bottom")
	if err != nil {
		t.Fatalf("Resume error: %v", err)
	}

	out, err = resumed.Run(ctx)
	if err != nil {
		t.Fatalf("cycle 2 error: %v", err)
	}
	if !out.Passing {
		t.Error("cycle 2 should pass")
	}
	if len(out.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(out.Attempts))
	}
	if resumed.Stage() != workflow.StageStop {
		t.Errorf("stage = %s, want stop", resumed.Stage())
	}
	if out.Attempts[0].CritiqueText() != "the rows should be swapped top to bottom" {
		t.Errorf("edited critique not kept: %q", out.Attempts[0].CritiqueText())
	}
	if out.Attempts[1].CritiqueText() != workflow.SuccessCritique {
		t.Errorf("final critique = %q", out.Attempts[1].CritiqueText())
	}

	want := []prompts.Stage{prompts.StagePrediction, prompts.StageReflection, prompts.StageCorrection}
	if got := fake.stages(); !stagesEqual(got, want) {
		t.Fatalf("LLM calls = %v, want %v", got, want)
	}

	correction := fake.calls[2].vars[workflow.VarPastAttempts]
	if !strings.Contains(correction, "the rows should be swapped top to bottom") {
		t.Errorf("correction past_attempts missing edited critique:\n%s", correction)
	}
	if strings.Contains(correction, "rows were not swapped") {
		t.Error("correction past_attempts still carries the replaced critique")
	}
}

func TestPromptVarsLifetime(t *testing.T) {
	ctx := context.Background()
	fake := &scriptedLLM{
		predictions: []string{predictionReply("0,0\n1,1"), predictionReply("0,0\n1,1")},
		critiques:   []string{critiqueReply("first"), critiqueReply("second")},
	}
	rt := newRuntime(fake)

	m, err := workflow.New(rt, flipTask())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := m.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	ec := m.Context()
	if ec.PromptVars[workflow.VarTestInput] != "0,0\n1,1" {
		t.Errorf("test_input = %q", ec.PromptVars[workflow.VarTestInput])
	}
	if strings.Contains(ec.PromptVars[workflow.VarExamples], "1,1\n0,0") {
		t.Error("examples must not include the test ground truth")
	}

	ec.PromptVars[workflow.VarExamples] = "PRESERVED EXAMPLES"

	resumed, err := workflow.Resume(rt, flipTask(), ec, "")
	if err != nil {
		t.Fatalf("Resume error: %v", err)
	}
	if _, err := resumed.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	for _, c := range fake.calls[2:] {
		if c.vars[workflow.VarExamples] != "PRESERVED EXAMPLES" {
			t.Errorf("%s call recomputed examples", c.stage)
		}
	}

	reflection := fake.calls[1].vars[workflow.VarPastAttempts]
	if !strings.Contains(reflection, "PAST ATTEMPT 1") {
		t.Errorf("reflection past_attempts should include the scored attempt:\n%s", reflection)
	}

	finalReflection := fake.calls[3].vars[workflow.VarPastAttempts]
	if !strings.Contains(finalReflection, "PAST ATTEMPT 2") || !strings.Contains(finalReflection, "first") {
		t.Errorf("past_attempts not recomputed before reflection:\n%s", finalReflection)
	}
}

func TestEvaluateExactMatch(t *testing.T) {
	tests := []struct {
		name       string
		prediction string
		passing    bool
	}{
		{"exact", "1,1\n0,0", true},
		{"tolerates whitespace", " 1, 1 \n0,0\n", true},
		{"one cell differs", "1,1\n0,1", false},
		{"transposed", "1,0\n1,0", false},
		{"extra row", "1,1\n0,0\n0,0", false},
		{"ragged", "1,2\n3", false},
		{"not a grid", "I think the answer is rows swapped", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &scriptedLLM{
				predictions: []string{predictionReply(tt.prediction)},
				critiques:   []string{critiqueReply("wrong")},
			}

			m, err := workflow.New(newRuntime(fake), flipTask())
			if err != nil {
				t.Fatalf("New error: %v", err)
			}

			out, err := m.Run(context.Background())
			if err != nil {
				t.Fatalf("Run error: %v", err)
			}
			if out.Passing != tt.passing {
				t.Errorf("passing = %v, want %v", out.Passing, tt.passing)
			}
			if out.Attempts[0].Passing != tt.passing {
				t.Errorf("attempt passing = %v, want %v", out.Attempts[0].Passing, tt.passing)
			}

			wantCalls := 2
			if tt.passing {
				wantCalls = 1
			}
			if len(fake.calls) != wantCalls {
				t.Errorf("LLM calls = %d, want %d", len(fake.calls), wantCalls)
			}
		})
	}
}

func TestAttemptMonotonicity(t *testing.T) {
	ctx := context.Background()
	fake := &scriptedLLM{
		predictions: []string{predictionReply("0"), predictionReply("1"), predictionReply("2"), predictionReply("3")},
		critiques:   []string{critiqueReply("a"), critiqueReply("b"), critiqueReply("c"), critiqueReply("d")},
	}

	m, err := workflow.New(newRuntime(fake), flipTask())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	var seen []workflow.Prediction
	for k := 1; k <= 4; k++ {
		out, err := m.Run(ctx)
		if err != nil {
			t.Fatalf("cycle %d error: %v", k, err)
		}
		if len(out.Attempts) != k {
			t.Fatalf("cycle %d: attempts = %d", k, len(out.Attempts))
		}
		for i, p := range seen {
			if out.Attempts[i].Prediction != p {
				t.Errorf("cycle %d: attempt %d prediction changed", k, i)
			}
		}
		seen = append(seen, out.Attempts[k-1].Prediction)

		if k < 4 {
			if err := m.Continue(""); err != nil {
				t.Fatalf("Continue error: %v", err)
			}
		}
	}

	if seen[3].Prediction != "3" {
		t.Errorf("last prediction = %q", seen[3].Prediction)
	}
}

func TestTerminalRule(t *testing.T) {
	ctx := context.Background()
	fake := &scriptedLLM{predictions: []string{predictionReply("1,1\n0,0")}}

	m, err := workflow.New(newRuntime(fake), flipTask())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !out.Passing || m.Stage() != workflow.StageStop {
		t.Fatalf("passing = %v, stage = %s", out.Passing, m.Stage())
	}
	if out.Attempts[0].CritiqueText() != workflow.SuccessCritique {
		t.Errorf("critique = %q", out.Attempts[0].CritiqueText())
	}

	if _, err := m.Step(ctx); !errors.Is(err, workflow.ErrCycleComplete) {
		t.Errorf("Step after stop: %v, want ErrCycleComplete", err)
	}
	if err := m.Continue("try again"); !errors.Is(err, workflow.ErrCycleComplete) {
		t.Errorf("Continue after stop: %v, want ErrCycleComplete", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("LLM calls = %d, want 1", len(fake.calls))
	}
}

func TestResumeWithoutContext(t *testing.T) {
	rt := newRuntime(&scriptedLLM{})
	task := flipTask()

	tests := []struct {
		name string
		ec   *workflow.ExecutionContext
	}{
		{"nil", nil},
		{"no attempts", &workflow.ExecutionContext{
			Task:       task,
			PromptVars: map[string]string{workflow.VarExamples: "e", workflow.VarTestInput: "t"},
		}},
		{"missing prompt vars", &workflow.ExecutionContext{
			Task:     task,
			Attempts: []workflow.Attempt{{Prediction: workflow.Prediction{Prediction: "0"}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := workflow.Resume(rt, task, tt.ec, "critique"); !errors.Is(err, workflow.ErrResumeWithoutContext) {
				t.Errorf("error = %v, want ErrResumeWithoutContext", err)
			}
		})
	}
}

func TestCapabilityErrorDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	fake := &scriptedLLM{
		predictions: []string{predictionReply("1,1\n0,0")},
		failOn:      prompts.StagePrediction,
	}

	m, err := workflow.New(newRuntime(fake), flipTask())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	_, err = m.Run(ctx)
	if !errors.Is(err, llm.ErrCapability) {
		t.Fatalf("error = %v, want ErrCapability", err)
	}
	if m.Stage() != workflow.StagePredict {
		t.Errorf("stage = %s, want predict", m.Stage())
	}
	if n := len(m.Context().Attempts); n != 0 {
		t.Errorf("attempts = %d, want 0", n)
	}

	fake.failOn = ""
	out, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if !out.Passing || len(out.Attempts) != 1 {
		t.Errorf("retry output = %+v", out)
	}
}

func TestObserver(t *testing.T) {
	ctx := context.Background()

	t.Run("receives every completed stage", func(t *testing.T) {
		fake := &scriptedLLM{
			predictions: []string{predictionReply("0,0\n1,1")},
			critiques:   []string{critiqueReply("nope")},
		}
		events := make(chan workflow.StageEvent, 8)
		rt := newRuntime(fake).WithObserver(workflow.NewChannelObserver(events))

		m, err := workflow.New(rt, flipTask())
		if err != nil {
			t.Fatalf("New error: %v", err)
		}
		if _, err := m.Run(ctx); err != nil {
			t.Fatalf("Run error: %v", err)
		}
		close(events)

		var got []workflow.Stage
		for e := range events {
			if e.Task != "flip" {
				t.Errorf("event task = %q", e.Task)
			}
			got = append(got, e.Stage)
		}

		want := []workflow.Stage{workflow.StageFormat, workflow.StagePredict, workflow.StageEvaluate, workflow.StageReflect}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("events = %v, want %v", got, want)
		}
	})

	t.Run("unread channel does not block", func(t *testing.T) {
		fake := &scriptedLLM{predictions: []string{predictionReply("1,1\n0,0")}}
		rt := newRuntime(fake).WithObserver(workflow.NewChannelObserver(make(chan workflow.StageEvent)))

		m, err := workflow.New(rt, flipTask())
		if err != nil {
			t.Fatalf("New error: %v", err)
		}
		out, err := m.Run(ctx)
		if err != nil || !out.Passing {
			t.Errorf("Run = %+v, %v", out, err)
		}
	})

	t.Run("func observer", func(t *testing.T) {
		fake := &scriptedLLM{predictions: []string{predictionReply("1,1\n0,0")}}
		var count int
		rt := newRuntime(fake).WithObserver(workflow.ObserverFunc(func(context.Context, workflow.StageEvent) {
			count++
		}))

		m, _ := workflow.New(rt, flipTask())
		if _, err := m.Run(ctx); err != nil {
			t.Fatalf("Run error: %v", err)
		}
		if err := m.Flush(ctx); err != nil {
			t.Fatalf("Flush error: %v", err)
		}
		if count != 4 {
			t.Errorf("events = %d, want 4", count)
		}
	})

	t.Run("func observer keeps stage order", func(t *testing.T) {
		fake := &scriptedLLM{
			predictions: []string{predictionReply("0,0\n1,1")},
			critiques:   []string{critiqueReply("nope")},
		}
		var got []workflow.Stage
		rt := newRuntime(fake).WithObserver(workflow.ObserverFunc(func(_ context.Context, e workflow.StageEvent) {
			time.Sleep(time.Millisecond)
			got = append(got, e.Stage)
		}))

		m, _ := workflow.New(rt, flipTask())
		if _, err := m.Run(ctx); err != nil {
			t.Fatalf("Run error: %v", err)
		}
		if err := m.Flush(ctx); err != nil {
			t.Fatalf("Flush error: %v", err)
		}

		want := []workflow.Stage{workflow.StageFormat, workflow.StagePredict, workflow.StageEvaluate, workflow.StageReflect}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("events = %v, want %v", got, want)
		}
	})

	t.Run("panicking observer does not fail the cycle", func(t *testing.T) {
		fake := &scriptedLLM{predictions: []string{predictionReply("1,1\n0,0")}}
		rt := newRuntime(fake).WithObserver(workflow.ObserverFunc(func(context.Context, workflow.StageEvent) {
			panic("display closed")
		}))

		m, _ := workflow.New(rt, flipTask())
		out, err := m.Run(ctx)
		if err != nil || !out.Passing {
			t.Fatalf("Run = %+v, %v", out, err)
		}
		if err := m.Flush(ctx); err != nil {
			t.Errorf("Flush error: %v", err)
		}
	})

	t.Run("slow observer does not delay the cycle", func(t *testing.T) {
		fake := &scriptedLLM{predictions: []string{predictionReply("1,1\n0,0")}}
		release := make(chan struct{})
		rt := newRuntime(fake).WithObserver(workflow.ObserverFunc(func(context.Context, workflow.StageEvent) {
			<-release
		}))

		m, _ := workflow.New(rt, flipTask())

		done := make(chan error, 1)
		go func() {
			_, err := m.Run(ctx)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run blocked on observer")
		}

		short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		if err := m.Flush(short); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Flush with blocked observer = %v, want deadline exceeded", err)
		}

		close(release)
		if err := m.Flush(ctx); err != nil {
			t.Errorf("Flush after release: %v", err)
		}
	})
}

func TestSolve(t *testing.T) {
	ctx := context.Background()

	t.Run("passes within cap", func(t *testing.T) {
		fake := &scriptedLLM{
			predictions: []string{predictionReply("0,0\n1,1"), predictionReply("1,1\n0,0")},
			critiques:   []string{critiqueReply("swap the rows")},
		}
		out, err := workflow.Solve(ctx, newRuntime(fake), flipTask(), 3)
		if err != nil {
			t.Fatalf("Solve error: %v", err)
		}
		if !out.Passing || len(out.Attempts) != 2 {
			t.Errorf("passing = %v, attempts = %d", out.Passing, len(out.Attempts))
		}
	})

	t.Run("cap reached reports last result", func(t *testing.T) {
		fake := &scriptedLLM{
			predictions: []string{predictionReply("0"), predictionReply("0"), predictionReply("0")},
			critiques:   []string{critiqueReply("a"), critiqueReply("b"), critiqueReply("c")},
		}
		out, err := workflow.Solve(ctx, newRuntime(fake), flipTask(), 2)
		if err != nil {
			t.Fatalf("Solve error: %v", err)
		}
		if out.Passing || len(out.Attempts) != 2 {
			t.Errorf("passing = %v, attempts = %d", out.Passing, len(out.Attempts))
		}
	})

	t.Run("capability error surfaces", func(t *testing.T) {
		fake := &scriptedLLM{
			predictions: []string{predictionReply("0")},
			failOn:      prompts.StageReflection,
		}
		if _, err := workflow.Solve(ctx, newRuntime(fake), flipTask(), 3); !errors.Is(err, llm.ErrCapability) {
			t.Errorf("error = %v, want ErrCapability", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := workflow.Solve(cctx, newRuntime(&scriptedLLM{}), flipTask(), 3); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestNewInvalidTask(t *testing.T) {
	rt := newRuntime(&scriptedLLM{})

	tests := []struct {
		name string
		task workflow.Task
	}{
		{"no train", workflow.Task{Test: flipTask().Test}},
		{"no test", workflow.Task{Train: flipTask().Train}},
		{"ragged grid", workflow.Task{
			Train: []workflow.Pair{{Input: grid.Grid{{1, 2}, {3}}, Output: grid.Grid{{1}}}},
			Test:  flipTask().Test,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := workflow.New(rt, tt.task); !errors.Is(err, workflow.ErrInvalidTask) {
				t.Errorf("error = %v, want ErrInvalidTask", err)
			}
		})
	}
}

func TestContextIsolation(t *testing.T) {
	fake := &scriptedLLM{
		predictions: []string{predictionReply("0")},
		critiques:   []string{critiqueReply("original")},
	}
	m, _ := workflow.New(newRuntime(fake), flipTask())
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	ec := m.Context()
	ec.Attempts[0].Critique.Critique = "mutated"
	ec.PromptVars[workflow.VarExamples] = "mutated"

	again := m.Context()
	if again.Attempts[0].CritiqueText() != "original" {
		t.Error("Context copy shares attempt critique")
	}
	if again.PromptVars[workflow.VarExamples] == "mutated" {
		t.Error("Context copy shares prompt vars")
	}
}
