package finetune

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/JaimeStill/arcsolve/pkg/storage"
)

// Storage keys for fine-tuning assets.
const (
	ExamplesPrefix = "finetuning/examples/"
	JSONLKey       = "finetuning/finetuning.jsonl"
	JobsKey        = "finetuning/finetuning_jobs.jsonl"
)

// Store persists fine-tuning examples, one object per task.
type Store struct {
	storage storage.System
	logger  *slog.Logger
}

// NewStore creates a Store over the given blob storage.
func NewStore(store storage.System, logger *slog.Logger) *Store {
	return &Store{
		storage: store,
		logger:  logger.With("system", "finetune"),
	}
}

func exampleKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return ExamplesPrefix + name, nil
}

// Save writes the example keyed by its task name, replacing any earlier one.
func (s *Store) Save(ctx context.Context, ex *Example) error {
	key, err := exampleKey(ex.TaskName)
	if err != nil {
		return err
	}

	line, err := ex.Line()
	if err != nil {
		return fmt.Errorf("encode example: %w", err)
	}

	if err := s.storage.Upload(ctx, key, bytes.NewReader(line), "application/json"); err != nil {
		return fmt.Errorf("save example %s: %w", ex.TaskName, err)
	}

	s.logger.InfoContext(ctx, "fine-tuning example saved", "task", ex.TaskName, "messages", len(ex.Messages))
	return nil
}

// Load reads a saved example.
func (s *Store) Load(ctx context.Context, name string) (*Example, error) {
	key, err := exampleKey(name)
	if err != nil {
		return nil, err
	}

	data, err := s.read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var ex Example
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("decode example %s: %w", name, err)
	}
	ex.TaskName = path.Base(key)

	return &ex, nil
}

// Saved returns the task names that have saved examples, sorted.
func (s *Store) Saved(ctx context.Context) ([]string, error) {
	objects, err := s.storage.List(ctx, ExamplesPrefix)
	if err != nil {
		return nil, fmt.Errorf("list examples: %w", err)
	}

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, ExamplesPrefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// PrepareJSONL concatenates every saved example into the training file and
// returns the number of records written.
func (s *Store) PrepareJSONL(ctx context.Context) (int, error) {
	names, err := s.Saved(ctx)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, ErrNoExamples
	}

	var buf bytes.Buffer
	for _, name := range names {
		ex, err := s.Load(ctx, name)
		if err != nil {
			return 0, err
		}
		line, err := ex.Line()
		if err != nil {
			return 0, fmt.Errorf("encode example %s: %w", name, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if err := s.storage.Upload(ctx, JSONLKey, &buf, "application/jsonl"); err != nil {
		return 0, fmt.Errorf("write training file: %w", err)
	}

	s.logger.InfoContext(ctx, "training file prepared", "examples", len(names))
	return len(names), nil
}

// TrainingFile returns the contents of the prepared training file.
func (s *Store) TrainingFile(ctx context.Context) ([]byte, error) {
	data, err := s.read(ctx, JSONLKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoExamples
	}
	return data, err
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
