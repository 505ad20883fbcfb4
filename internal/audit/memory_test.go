package audit

import (
	"context"
	"testing"
	"time"

	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFind(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	for _, at := range []time.Time{from, to, from.Add(-time.Nanosecond), to.Add(time.Nanosecond)} {
		require.NoError(t, store.Append(ctx, &registry.AuditRecord{
			Kind:         registry.AuditKindDownload,
			AppVersion:   "1.0.0",
			PlatformType: registry.PlatformLinuxPackage,
			OccurredAt:   at,
		}))
	}

	platform := registry.PlatformLinuxPackage
	found, err := store.Find(ctx, registry.AuditKindDownload, &platform, from, to)
	require.NoError(t, err)
	require.Len(t, found, 2)

	other := registry.PlatformWindowsInstaller
	found, err = store.Find(ctx, registry.AuditKindDownload, &other, from, to)
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = store.Find(ctx, registry.AuditKindVersion, nil, from, to)
	require.NoError(t, err)
	require.Empty(t, found)
}
