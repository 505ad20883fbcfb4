package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-semantic-release/release-registry/internal/audit"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/spf13/cobra"
)

func addDateRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "first date of the range (YYYY-MM-DD, default: 30 days before --to)")
	cmd.Flags().String("to", "", "last date of the range (YYYY-MM-DD, default: today)")
}

func getDateRange(cmd *cobra.Command, loc *time.Location) (registry.Date, registry.Date, error) {
	to := registry.DateOf(time.Now().In(loc))
	if s := must(cmd.Flags().GetString("to")); s != "" {
		d, err := registry.ParseDate(s)
		if err != nil {
			return registry.Date{}, registry.Date{}, err
		}
		to = d
	}
	from := registry.DateOf(to.StartOfDay(loc).AddDate(0, 0, -30))
	if s := must(cmd.Flags().GetString("from")); s != "" {
		d, err := registry.ParseDate(s)
		if err != nil {
			return registry.Date{}, registry.Date{}, err
		}
		from = d
	}
	return from, to, nil
}

type auditRunFunc func(ctx context.Context, a *app, aggregator *audit.Aggregator, cmd *cobra.Command, args []string) error

func runAudit(fn auditRunFunc) func(*cobra.Command, []string) error {
	return runE(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		aggregator, err := a.auditAggregator(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, a, aggregator, cmd, args)
	})
}

func newRecordCmd(kind registry.AuditKind) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("record-%s <app-version> <platform>", kind),
		Short: fmt.Sprintf("Record a %s event", kind),
		Args:  cobra.ExactArgs(2),
		RunE: runAudit(func(ctx context.Context, _ *app, aggregator *audit.Aggregator, _ *cobra.Command, args []string) error {
			platform, err := registry.ParsePlatformType(args[1])
			if err != nil {
				return err
			}
			if kind == registry.AuditKindDownload {
				return aggregator.RecordDownload(ctx, args[0], platform)
			}
			return aggregator.RecordVersionCheck(ctx, args[0], platform)
		}),
	}
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Record and query download and version check audits",
	}

	downloadsCmd := &cobra.Command{
		Use:   "downloads <platform>",
		Short: "Count the downloads of a platform per day",
		Args:  cobra.ExactArgs(1),
		RunE: runAudit(func(ctx context.Context, a *app, aggregator *audit.Aggregator, cmd *cobra.Command, args []string) error {
			platform, err := registry.ParsePlatformType(args[0])
			if err != nil {
				return err
			}
			from, to, err := getDateRange(cmd, must(a.cfg.GetLocation()))
			if err != nil {
				return err
			}
			counts, err := aggregator.DownloadsByDate(ctx, platform, from, to)
			if err != nil {
				return err
			}
			return a.out.printDateCounts(counts)
		}),
	}
	addDateRangeFlags(downloadsCmd)

	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "Count the version checks per day",
		Args:  cobra.NoArgs,
		RunE: runAudit(func(ctx context.Context, a *app, aggregator *audit.Aggregator, cmd *cobra.Command, _ []string) error {
			from, to, err := getDateRange(cmd, must(a.cfg.GetLocation()))
			if err != nil {
				return err
			}
			counts, err := aggregator.VersionChecksByDate(ctx, from, to)
			if err != nil {
				return err
			}
			return a.out.printDateCounts(counts)
		}),
	}
	addDateRangeFlags(versionsCmd)

	byVersionCmd := &cobra.Command{
		Use:   "by-version",
		Short: "Count the downloads per app version and platform",
		Args:  cobra.NoArgs,
		RunE: runAudit(func(ctx context.Context, a *app, aggregator *audit.Aggregator, _ *cobra.Command, _ []string) error {
			counts, err := aggregator.DownloadCountsByVersion(ctx)
			if err != nil {
				return err
			}
			return a.out.print(counts, func(w io.Writer) {
				fmt.Fprintln(w, "APP VERSION\tPLATFORM\tDOWNLOADS")
				for _, c := range counts {
					fmt.Fprintf(w, "%s\t%s\t%d\n", c.AppVersion, c.PlatformType, c.Count)
				}
			})
		}),
	}

	cmd.AddCommand(
		newRecordCmd(registry.AuditKindDownload),
		newRecordCmd(registry.AuditKindVersion),
		downloadsCmd,
		versionsCmd,
		byVersionCmd,
	)
	return cmd
}
