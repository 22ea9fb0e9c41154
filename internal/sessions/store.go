package sessions

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/pkg/storage"
)

// Store persists session snapshots.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Summary, error)
}

// MemoryStore keeps sessions in process, listed in creation order.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID][]byte
	order    []uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID][]byte)}
}

// Save stores an encoded copy so later mutation by the caller has no effect.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	m.sessions[s.ID] = data
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.order = slices.DeleteFunc(m.order, func(v uuid.UUID) bool { return v == id })
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.order))
	for _, id := range m.order {
		s, err := decode(m.sessions[id])
		if err != nil {
			return nil, err
		}
		out = append(out, s.Summary())
	}
	return out, nil
}

const blobPrefix = "sessions/"

// BlobStore persists each session as sessions/<id>.json in blob storage, so
// suspended runs survive restarts.
type BlobStore struct {
	storage storage.System
}

// NewBlobStore creates a BlobStore over store.
func NewBlobStore(store storage.System) *BlobStore {
	return &BlobStore{storage: store}
}

func blobKey(id uuid.UUID) string {
	return blobPrefix + id.String() + ".json"
}

func (b *BlobStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := b.storage.Upload(ctx, blobKey(s.ID), bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (b *BlobStore) Load(ctx context.Context, id uuid.UUID) (*Session, error) {
	rc, err := b.storage.Download(ctx, blobKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return decode(data)
}

func (b *BlobStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := b.storage.Delete(ctx, blobKey(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// List loads every stored session, ordered by creation time.
func (b *BlobStore) List(ctx context.Context) ([]Summary, error) {
	objects, err := b.storage.List(ctx, blobPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	type entry struct {
		summary Summary
		created int64
	}
	entries := make([]entry, 0, len(objects))

	for _, obj := range objects {
		name := strings.TrimSuffix(path.Base(obj.Key), ".json")
		id, err := uuid.Parse(name)
		if err != nil {
			continue
		}
		s, err := b.Load(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, entry{summary: s.Summary(), created: s.CreatedAt.UnixNano()})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.created, b.created)
	})

	out := make([]Summary, len(entries))
	for i, e := range entries {
		out[i] = e.summary
	}
	return out, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
