package index

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Entry
	byPath map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory entry repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[uuid.UUID]*Entry),
		byPath: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, entry *Entry) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneEntry(entry)
	if cloned.ID == uuid.Nil {
		cloned.ID = uuid.New()
	}
	m.byID[cloned.ID] = cloned
	m.byPath[cloned.Path] = cloned.ID
	return cloneEntry(cloned), nil
}

func (m *memoryRepository) Update(_ context.Context, entry *Entry) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[entry.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "entry", Key: entry.Path}
	}
	if existing.Path != entry.Path {
		delete(m.byPath, existing.Path)
	}
	cloned := cloneEntry(entry)
	m.byID[cloned.ID] = cloned
	m.byPath[cloned.Path] = cloned.ID
	return cloneEntry(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "entry", Key: id.String()}
	}
	return cloneEntry(record), nil
}

func (m *memoryRepository) GetByPath(_ context.Context, path string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byPath[path]
	if !ok {
		return nil, &NotFoundError{Resource: "entry", Key: path}
	}
	return cloneEntry(m.byID[id]), nil
}

func (m *memoryRepository) List(context.Context) ([]*Entry, error) {
	return m.filter(func(*Entry) bool { return true }, byPath), nil
}

func (m *memoryRepository) ListByCollection(_ context.Context, collection string) ([]*Entry, error) {
	return m.filter(func(e *Entry) bool { return e.Collection == collection }, byDateThenPath), nil
}

func (m *memoryRepository) ListByPermalink(_ context.Context, permalink string) ([]*Entry, error) {
	return m.filter(func(e *Entry) bool { return e.Permalink == permalink }, byPath), nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "entry", Key: id.String()}
	}
	delete(m.byPath, existing.Path)
	delete(m.byID, id)
	return nil
}

func (m *memoryRepository) filter(keep func(*Entry) bool, less func(a, b *Entry) bool) []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Entry, 0, len(m.byID))
	for _, entry := range m.byID {
		if keep(entry) {
			out = append(out, cloneEntry(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byPath(a, b *Entry) bool {
	return a.Path < b.Path
}

func byDateThenPath(a, b *Entry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.Path < b.Path
}
