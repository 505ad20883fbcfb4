package issue

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFirestoreStore(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}
	ctx := context.Background()
	fsClient, err := firestore.NewClient(ctx, "release-registry")
	require.NoError(t, err)
	defer fsClient.Close()
	store := NewFirestoreStore(fsClient, fmt.Sprintf("test-%s", uuid.NewString()))

	day := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, &registry.Issue{
			ID:         fmt.Sprintf("issue-%d", i),
			Value:      "issue",
			AppVersion: "1.0.0",
			OccurredAt: day.AddDate(0, 0, i),
		}))
	}

	issues, total, err := store.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, issues, 2)
	require.Equal(t, "issue-2", issues[0].ID)

	issue, err := store.Get(ctx, "issue-1")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", issue.AppVersion)
	require.True(t, day.AddDate(0, 0, 1).Equal(issue.OccurredAt))

	found, err := store.Find(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, found, 2)

	require.NoError(t, store.Delete(ctx, "issue-1"))
	_, err = store.Get(ctx, "issue-1")
	require.ErrorIs(t, err, ErrIssueNotFound)
}
