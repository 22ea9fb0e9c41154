package sessions

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/internal/finetune"
	"github.com/JaimeStill/arcsolve/internal/tasks"
	"github.com/JaimeStill/arcsolve/internal/workflow"
)

// System defines the interactive session operations.
type System interface {
	Handler(maxBody int64) *Handler

	// Start loads the task and runs the first cycle.
	Start(ctx context.Context, task string) (*Session, error)
	// Continue resumes a suspended session for one more cycle. A blank
	// critique keeps the critique already recorded on the latest attempt.
	Continue(ctx context.Context, id uuid.UUID, critique string) (*Session, error)
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	List(ctx context.Context) ([]Summary, error)
	Abort(ctx context.Context, id uuid.UUID) error

	// Preview renders the session as a fine-tuning transcript.
	Preview(ctx context.Context, id uuid.UUID) (*finetune.Example, error)
	// SaveExample stores the transcript keyed by the session's task.
	SaveExample(ctx context.Context, id uuid.UUID) (*finetune.Example, error)
}

type host struct {
	rt          *workflow.Runtime
	tasks       fs.FS
	store       Store
	examples    *finetune.Store
	maxAttempts int
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]struct{}
}

// New creates a session host. Tasks are read from taskFS by name.
func New(
	rt *workflow.Runtime,
	taskFS fs.FS,
	store Store,
	examples *finetune.Store,
	maxAttempts int,
	logger *slog.Logger,
) System {
	return &host{
		rt:          rt,
		tasks:       taskFS,
		store:       store,
		examples:    examples,
		maxAttempts: maxAttempts,
		logger:      logger.With("system", "sessions"),
		locks:       make(map[uuid.UUID]struct{}),
	}
}

func (h *host) Handler(maxBody int64) *Handler {
	return NewHandler(h, h.logger, maxBody)
}

// lock claims id for one operation. Only claimed ids are tracked, so the
// set never outgrows the operations in flight.
func (h *host) lock(id uuid.UUID) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, held := h.locks[id]; held {
		return nil, ErrBusy
	}
	h.locks[id] = struct{}{}

	return func() {
		h.mu.Lock()
		delete(h.locks, id)
		h.mu.Unlock()
	}, nil
}

func (h *host) Start(ctx context.Context, name string) (*Session, error) {
	task, err := tasks.Load(h.tasks, name)
	if err != nil {
		return nil, err
	}

	m, err := workflow.New(h.rt, task)
	if err != nil {
		return nil, err
	}

	out, err := m.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", task.Name, err)
	}

	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.New(),
		Task:      task.Name,
		Status:    statusFor(out.Passing, len(out.Attempts), h.maxAttempts),
		Passing:   out.Passing,
		Context:   m.Context(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Save(ctx, s); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "session started", "id", s.ID, "task", s.Task, "passing", s.Passing)
	return s, nil
}

func (h *host) Continue(ctx context.Context, id uuid.UUID, critique string) (*Session, error) {
	unlock, err := h.lock(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := h.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Passing {
		return nil, ErrTerminal
	}
	if s.Context == nil {
		return nil, workflow.ErrResumeWithoutContext
	}
	if len(s.Context.Attempts) >= h.maxAttempts {
		return nil, fmt.Errorf("%w: %d of %d", workflow.ErrCapExceeded, len(s.Context.Attempts), h.maxAttempts)
	}

	m, err := workflow.Resume(h.rt, s.Context.Task, s.Context, critique)
	if err != nil {
		return nil, err
	}

	out, err := m.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("continue %s: %w", s.ID, err)
	}

	s.Context = m.Context()
	s.Passing = out.Passing
	s.Status = statusFor(out.Passing, len(out.Attempts), h.maxAttempts)
	s.UpdatedAt = time.Now().UTC()

	if err := h.store.Save(ctx, s); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "session continued",
		"id", s.ID,
		"task", s.Task,
		"attempts", len(out.Attempts),
		"passing", s.Passing,
	)
	return s, nil
}

func (h *host) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	return h.store.Load(ctx, id)
}

func (h *host) List(ctx context.Context) ([]Summary, error) {
	return h.store.List(ctx)
}

func (h *host) Abort(ctx context.Context, id uuid.UUID) error {
	unlock, err := h.lock(id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := h.store.Delete(ctx, id); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "session aborted", "id", id)
	return nil
}

func (h *host) Preview(ctx context.Context, id uuid.UUID) (*finetune.Example, error) {
	s, err := h.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return finetune.FromContext(s.Task, s.Context, h.rt.Prompts)
}

func (h *host) SaveExample(ctx context.Context, id uuid.UUID) (*finetune.Example, error) {
	ex, err := h.Preview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := h.examples.Save(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}
