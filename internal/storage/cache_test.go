package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*LocalStore
	lists int
}

func (c *countingStore) List(ctx context.Context) ([]ObjectInfo, error) {
	c.lists++
	return c.LocalStore.List(ctx)
}

func TestCachedStore(t *testing.T) {
	backend := &countingStore{LocalStore: NewLocalStore(t.TempDir(), "")}
	store := NewCachedStore(backend, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "app-1.0.0.deb", []byte("deb")))
	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	objects, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, 1, backend.lists)

	require.NoError(t, store.Put(ctx, "app-2.0.0.deb", []byte("deb")))
	objects, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	require.Equal(t, 2, backend.lists)

	require.NoError(t, store.Delete(ctx, "app-1.0.0.deb"))
	objects, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, 3, backend.lists)
}
