package metrics

import (
	"fmt"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"github.com/go-semantic-release/release-registry/internal/config"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	CounterDownloads     = stats.Int64("release_downloads", "Number of recorded release downloads", "1")
	CounterVersionChecks = stats.Int64("release_version_checks", "Number of recorded version checks", "1")
	CounterUploads       = stats.Int64("release_uploads", "Number of uploaded release artifacts", "1")

	TagPlatform   = tag.MustNewKey("platform")
	TagAppVersion = tag.MustNewKey("app_version")
)

var Views = []*view.View{
	{
		Name:        "release_downloads",
		Measure:     CounterDownloads,
		Description: "Number of recorded release downloads",
		TagKeys:     []tag.Key{TagPlatform, TagAppVersion},
		Aggregation: view.Count(),
	},
	{
		Name:        "release_version_checks",
		Measure:     CounterVersionChecks,
		Description: "Number of recorded version checks",
		TagKeys:     []tag.Key{TagPlatform, TagAppVersion},
		Aggregation: view.Count(),
	},
	{
		Name:        "release_uploads",
		Measure:     CounterUploads,
		Description: "Number of uploaded release artifacts",
		TagKeys:     []tag.Key{TagPlatform},
		Aggregation: view.Count(),
	},
}

func NewExporter(cfg *config.Config) (*stackdriver.Exporter, error) {
	err := view.Register(Views...)
	if err != nil {
		return nil, err
	}
	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.ProjectID,
		MetricPrefix: fmt.Sprintf("release-registry/%s", cfg.Stage),
	})
	if err != nil {
		return nil, err
	}
	err = exporter.StartMetricsExporter()
	if err != nil {
		return nil, err
	}
	return exporter, nil
}
