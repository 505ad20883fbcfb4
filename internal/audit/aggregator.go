package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-semantic-release/release-registry/internal/metrics"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

// Aggregator records download and version check events and counts them per
// calendar date in its location.
type Aggregator struct {
	log      *logrus.Logger
	store    Store
	location *time.Location
	now      func() time.Time
}

func New(log *logrus.Logger, store Store, location *time.Location) *Aggregator {
	if location == nil {
		location = time.UTC
	}
	return &Aggregator{
		log:      log,
		store:    store,
		location: location,
		now:      time.Now,
	}
}

func (a *Aggregator) record(ctx context.Context, kind registry.AuditKind, appVersion string, platform registry.PlatformType) error {
	record := &registry.AuditRecord{
		ID:           uuid.NewString(),
		Kind:         kind,
		AppVersion:   appVersion,
		PlatformType: platform,
		OccurredAt:   a.now(),
	}
	if err := a.store.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to record %s audit for %s@%s: %w", kind, platform, appVersion, err)
	}
	a.log.WithFields(logrus.Fields{
		"kind":         kind,
		"appVersion":   appVersion,
		"platformType": platform,
	}).Debug("recorded audit")

	measure := metrics.CounterDownloads
	if kind == registry.AuditKindVersion {
		measure = metrics.CounterVersionChecks
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TagPlatform, string(platform)), tag.Upsert(metrics.TagAppVersion, appVersion))
	stats.Record(ctx, measure.M(1))
	return nil
}

func (a *Aggregator) RecordDownload(ctx context.Context, appVersion string, platform registry.PlatformType) error {
	return a.record(ctx, registry.AuditKindDownload, appVersion, platform)
}

func (a *Aggregator) RecordVersionCheck(ctx context.Context, appVersion string, platform registry.PlatformType) error {
	return a.record(ctx, registry.AuditKindVersion, appVersion, platform)
}

// GroupByDate counts records per calendar date of their timestamp in loc.
// Dates without records are absent from the result.
func GroupByDate(records []*registry.AuditRecord, loc *time.Location) registry.DateBucketCount {
	res := make(registry.DateBucketCount)
	for _, r := range records {
		res[registry.DateOf(r.OccurredAt.In(loc))]++
	}
	return res
}

func (a *Aggregator) byDate(ctx context.Context, kind registry.AuditKind, platform *registry.PlatformType, start, end registry.Date) (registry.DateBucketCount, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	records, err := a.store.Find(ctx, kind, platform, start.StartOfDay(a.location), end.EndOfDay(a.location))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s audits: %w", kind, err)
	}
	return GroupByDate(records, a.location), nil
}

// DownloadsByDate counts the downloads of platform between start and end,
// both inclusive.
func (a *Aggregator) DownloadsByDate(ctx context.Context, platform registry.PlatformType, start, end registry.Date) (registry.DateBucketCount, error) {
	return a.byDate(ctx, registry.AuditKindDownload, &platform, start, end)
}

// VersionChecksByDate counts the version checks of all platforms between
// start and end, both inclusive.
func (a *Aggregator) VersionChecksByDate(ctx context.Context, start, end registry.Date) (registry.DateBucketCount, error) {
	return a.byDate(ctx, registry.AuditKindVersion, nil, start, end)
}

func (a *Aggregator) DownloadCountsByVersion(ctx context.Context) ([]*registry.VersionCount, error) {
	counts, err := a.store.CountDownloadsByVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count downloads by version: %w", err)
	}
	return counts, nil
}
