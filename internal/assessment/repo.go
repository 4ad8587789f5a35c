package assessment

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// CatalogReader lists conditions in a stable order across calls.
type CatalogReader interface {
	ListConditions(ctx context.Context) ([]Condition, error)
	GetCondition(ctx context.Context, name string) (Condition, error)
}

// CatalogWriter is used by seeding; the HTTP surface never edits the catalog.
type CatalogWriter interface {
	PutCondition(ctx context.Context, c Condition) error
}

type ListOpts struct {
	Condition string
	Limit     int
	Offset    int
}

// ResultRecorder persists submissions. UpsertSubmission keeps the first
// CreatedAt of an existing id; InsertSubmission fails if the id exists.
type ResultRecorder interface {
	UpsertSubmission(ctx context.Context, s Submission) (Submission, error)
	InsertSubmission(ctx context.Context, s Submission) (Submission, error)
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, opts ListOpts) ([]Submission, error)
}

type Store interface {
	CatalogReader
	CatalogWriter
	ResultRecorder
	Ping(ctx context.Context) error
	Close() error
}

type memoryStore struct {
	mu          sync.RWMutex
	order       []string
	conditions  map[string]Condition
	submissions map[string]Submission
}

func NewInMemoryStore() Store {
	return &memoryStore{
		conditions:  map[string]Condition{},
		submissions: map[string]Submission{},
	}
}

func (m *memoryStore) PutCondition(_ context.Context, c Condition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conditions[c.Name]; !ok {
		m.order = append(m.order, c.Name)
	}
	m.conditions[c.Name] = cloneCondition(c)
	return nil
}

func (m *memoryStore) ListConditions(_ context.Context) ([]Condition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Condition, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, cloneCondition(m.conditions[name]))
	}
	return out, nil
}

func (m *memoryStore) GetCondition(_ context.Context, name string) (Condition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conditions[name]
	if !ok {
		return Condition{}, fmt.Errorf("condition %q: %w", name, ErrNotFound)
	}
	return cloneCondition(c), nil
}

func (m *memoryStore) UpsertSubmission(_ context.Context, s Submission) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.submissions[s.ID]; ok {
		s.CreatedAt = prev.CreatedAt
	}
	m.submissions[s.ID] = s
	return s, nil
}

func (m *memoryStore) InsertSubmission(_ context.Context, s Submission) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[s.ID]; ok {
		return Submission{}, fmt.Errorf("submission %q: %w", s.ID, ErrAlreadyExists)
	}
	m.submissions[s.ID] = s
	return s, nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, fmt.Errorf("submission %q: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, opts ListOpts) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Submission, 0, len(m.submissions))
	for _, s := range m.submissions {
		if opts.Condition != "" && s.Condition != opts.Condition {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }
func (m *memoryStore) Close() error               { return nil }

func page(in []Submission, limit, offset int) []Submission {
	if offset >= len(in) {
		return []Submission{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func cloneCondition(c Condition) Condition {
	qs := make([]Question, len(c.Questions))
	copy(qs, c.Questions)
	c.Questions = qs
	return c
}
