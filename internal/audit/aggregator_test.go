package audit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*MemoryStore
	err error
}

func (f *failingStore) Append(context.Context, *registry.AuditRecord) error {
	return f.err
}

func (f *failingStore) Find(context.Context, registry.AuditKind, *registry.PlatformType, time.Time, time.Time) ([]*registry.AuditRecord, error) {
	return nil, f.err
}

func newTestAggregator(store Store, loc *time.Location) *Aggregator {
	log := logrus.New()
	log.Out = io.Discard
	return New(log, store, loc)
}

func recordAt(t *testing.T, a *Aggregator, kind registry.AuditKind, platform registry.PlatformType, at time.Time) {
	a.now = func() time.Time { return at }
	var err error
	if kind == registry.AuditKindDownload {
		err = a.RecordDownload(context.Background(), "1.0.0", platform)
	} else {
		err = a.RecordVersionCheck(context.Background(), "1.0.0", platform)
	}
	require.NoError(t, err)
}

func TestDownloadsByDate(t *testing.T) {
	a := newTestAggregator(NewMemoryStore(), time.UTC)
	events := []time.Time{
		time.Date(2023, time.December, 31, 23, 59, 59, 999999999, time.UTC),
		time.Date(2024, time.January, 1, 23, 59, 59, 900000000, time.UTC),
		time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC),
	}
	for _, at := range events {
		recordAt(t, a, registry.AuditKindDownload, registry.PlatformLinuxPackage, at)
	}
	recordAt(t, a, registry.AuditKindDownload, registry.PlatformWindowsInstaller, events[1])
	recordAt(t, a, registry.AuditKindVersion, registry.PlatformLinuxPackage, events[1])

	buckets, err := a.DownloadsByDate(context.Background(), registry.PlatformLinuxPackage,
		registry.NewDate(2024, time.January, 1), registry.NewDate(2024, time.January, 2))
	require.NoError(t, err)
	require.Equal(t, registry.DateBucketCount{
		registry.NewDate(2024, time.January, 1): 1,
		registry.NewDate(2024, time.January, 2): 1,
	}, buckets)
}

func TestDownloadsByDateIncludesEndOfDay(t *testing.T) {
	a := newTestAggregator(NewMemoryStore(), time.UTC)
	day := registry.NewDate(2024, time.March, 5)
	recordAt(t, a, registry.AuditKindDownload, registry.PlatformLinuxArchive, day.EndOfDay(time.UTC))
	recordAt(t, a, registry.AuditKindDownload, registry.PlatformLinuxArchive, day.StartOfDay(time.UTC))

	buckets, err := a.DownloadsByDate(context.Background(), registry.PlatformLinuxArchive, day, day)
	require.NoError(t, err)
	require.Equal(t, registry.DateBucketCount{day: 2}, buckets)
}

func TestDownloadsByDateNoZeroFill(t *testing.T) {
	a := newTestAggregator(NewMemoryStore(), time.UTC)
	recordAt(t, a, registry.AuditKindDownload, registry.PlatformLinuxArchive, time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC))
	recordAt(t, a, registry.AuditKindDownload, registry.PlatformLinuxArchive, time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC))
	recordAt(t, a, registry.AuditKindDownload, registry.PlatformLinuxArchive, time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC))

	buckets, err := a.DownloadsByDate(context.Background(), registry.PlatformLinuxArchive,
		registry.NewDate(2024, time.January, 1), registry.NewDate(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	require.Equal(t, int64(2), buckets[registry.NewDate(2024, time.January, 1)])
	require.Equal(t, int64(1), buckets[registry.NewDate(2024, time.January, 10)])
}

func TestVersionChecksByDate(t *testing.T) {
	a := newTestAggregator(NewMemoryStore(), time.UTC)
	at := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	for _, p := range registry.PlatformTypes() {
		recordAt(t, a, registry.AuditKindVersion, p, at)
	}
	recordAt(t, a, registry.AuditKindDownload, registry.PlatformLinuxPackage, at)

	buckets, err := a.VersionChecksByDate(context.Background(), registry.NewDate(2024, time.January, 1), registry.NewDate(2024, time.January, 1))
	require.NoError(t, err)
	require.Equal(t, registry.DateBucketCount{registry.NewDate(2024, time.January, 1): 3}, buckets)
}

func TestByDateUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	a := newTestAggregator(NewMemoryStore(), loc)
	// 2024-01-01 23:30 UTC is 2024-01-02 01:30 in UTC+2
	recordAt(t, a, registry.AuditKindVersion, registry.PlatformLinuxPackage, time.Date(2024, time.January, 1, 23, 30, 0, 0, time.UTC))

	buckets, err := a.VersionChecksByDate(context.Background(), registry.NewDate(2024, time.January, 2), registry.NewDate(2024, time.January, 2))
	require.NoError(t, err)
	require.Equal(t, registry.DateBucketCount{registry.NewDate(2024, time.January, 2): 1}, buckets)
}

func TestByDateInvalidRange(t *testing.T) {
	a := newTestAggregator(NewMemoryStore(), time.UTC)
	_, err := a.VersionChecksByDate(context.Background(), registry.NewDate(2024, time.January, 2), registry.NewDate(2024, time.January, 1))
	require.ErrorContains(t, err, "is before start date")
}

func TestRecordObservedImmediately(t *testing.T) {
	a := newTestAggregator(NewMemoryStore(), time.UTC)
	require.NoError(t, a.RecordDownload(context.Background(), "2.0.0", registry.PlatformWindowsInstaller))
	today := registry.DateOf(time.Now().UTC())
	buckets, err := a.DownloadsByDate(context.Background(), registry.PlatformWindowsInstaller, today, today)
	require.NoError(t, err)
	require.Equal(t, int64(1), buckets[today])
}

func TestDownloadCountsByVersion(t *testing.T) {
	a := newTestAggregator(NewMemoryStore(), time.UTC)
	ctx := context.Background()
	require.NoError(t, a.RecordDownload(ctx, "1.0.0", registry.PlatformLinuxPackage))
	require.NoError(t, a.RecordDownload(ctx, "1.0.0", registry.PlatformLinuxPackage))
	require.NoError(t, a.RecordDownload(ctx, "1.0.0", registry.PlatformWindowsInstaller))
	require.NoError(t, a.RecordDownload(ctx, "1.1.0", registry.PlatformLinuxPackage))
	require.NoError(t, a.RecordVersionCheck(ctx, "1.1.0", registry.PlatformLinuxPackage))

	counts, err := a.DownloadCountsByVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, []*registry.VersionCount{
		{AppVersion: "1.0.0", PlatformType: registry.PlatformLinuxPackage, Count: 2},
		{AppVersion: "1.0.0", PlatformType: registry.PlatformWindowsInstaller, Count: 1},
		{AppVersion: "1.1.0", PlatformType: registry.PlatformLinuxPackage, Count: 1},
	}, counts)
}

func TestStoreErrorsArePropagated(t *testing.T) {
	storeErr := errors.New("database unavailable")
	a := newTestAggregator(&failingStore{MemoryStore: NewMemoryStore(), err: storeErr}, time.UTC)
	ctx := context.Background()

	err := a.RecordDownload(ctx, "1.0.0", registry.PlatformLinuxPackage)
	require.ErrorIs(t, err, storeErr)
	err = a.RecordVersionCheck(ctx, "1.0.0", registry.PlatformLinuxPackage)
	require.ErrorIs(t, err, storeErr)
	_, err = a.DownloadsByDate(ctx, registry.PlatformLinuxPackage, registry.NewDate(2024, time.January, 1), registry.NewDate(2024, time.January, 1))
	require.ErrorIs(t, err, storeErr)
}

func TestGroupByDate(t *testing.T) {
	require.Empty(t, GroupByDate(nil, time.UTC))
}
