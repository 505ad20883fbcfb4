package issue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-semantic-release/release-registry/pkg/registry"
)

type MemoryStore struct {
	mu     sync.RWMutex
	issues map[string]registry.Issue
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{issues: make(map[string]registry.Issue)}
}

func (m *MemoryStore) Save(_ context.Context, issue *registry.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[issue.ID] = *issue
	return nil
}

func (m *MemoryStore) sorted() []*registry.Issue {
	res := make([]*registry.Issue, 0, len(m.issues))
	for _, i := range m.issues {
		issue := i
		res = append(res, &issue)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].OccurredAt.Equal(res[j].OccurredAt) {
			return res[i].OccurredAt.After(res[j].OccurredAt)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

func (m *MemoryStore) List(_ context.Context, offset, limit int) ([]*registry.Issue, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.sorted()
	if offset >= len(all) {
		return []*registry.Issue{}, len(all), nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*registry.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, ErrIssueNotFound
	}
	return &issue, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.issues, id)
	return nil
}

func (m *MemoryStore) Find(_ context.Context, from, to time.Time) ([]*registry.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]*registry.Issue, 0)
	for _, issue := range m.sorted() {
		if issue.OccurredAt.Before(from) || issue.OccurredAt.After(to) {
			continue
		}
		res = append(res, issue)
	}
	return res, nil
}
