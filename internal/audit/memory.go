package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-semantic-release/release-registry/pkg/registry"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records []registry.AuditRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, record *registry.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

func (m *MemoryStore) Find(_ context.Context, kind registry.AuditKind, platform *registry.PlatformType, from, to time.Time) ([]*registry.AuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]*registry.AuditRecord, 0)
	for _, r := range m.records {
		if r.Kind != kind || (platform != nil && r.PlatformType != *platform) {
			continue
		}
		if r.OccurredAt.Before(from) || r.OccurredAt.After(to) {
			continue
		}
		record := r
		res = append(res, &record)
	}
	return res, nil
}

func (m *MemoryStore) CountDownloadsByVersion(_ context.Context) ([]*registry.VersionCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type key struct {
		appVersion string
		platform   registry.PlatformType
	}
	counts := make(map[key]*registry.VersionCount)
	res := make([]*registry.VersionCount, 0)
	for _, r := range m.records {
		if r.Kind != registry.AuditKindDownload {
			continue
		}
		k := key{r.AppVersion, r.PlatformType}
		vc, ok := counts[k]
		if !ok {
			vc = &registry.VersionCount{AppVersion: r.AppVersion, PlatformType: r.PlatformType}
			counts[k] = vc
			res = append(res, vc)
		}
		vc.Count++
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].AppVersion != res[j].AppVersion {
			return res[i].AppVersion < res[j].AppVersion
		}
		return res[i].PlatformType < res[j].PlatformType
	})
	return res, nil
}
