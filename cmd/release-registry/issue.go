package main

import (
	"context"
	"fmt"
	"io"

	"github.com/go-semantic-release/release-registry/internal/issue"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/spf13/cobra"
)

type issueRunFunc func(ctx context.Context, a *app, issues *issue.Service, cmd *cobra.Command, args []string) error

func runIssue(fn issueRunFunc) func(*cobra.Command, []string) error {
	return runE(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		issues, err := a.issueService(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, a, issues, cmd, args)
	})
}

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Report and browse issues of released app versions",
	}

	reportCmd := &cobra.Command{
		Use:   "report <description>",
		Short: "Report an issue of an app version",
		Args:  cobra.ExactArgs(1),
		RunE: runIssue(func(ctx context.Context, a *app, issues *issue.Service, cmd *cobra.Command, args []string) error {
			reported, err := issues.Report(ctx, args[0], must(cmd.Flags().GetString("app-version")))
			if err != nil {
				return err
			}
			return a.out.printIssues([]*registry.Issue{reported})
		}),
	}
	reportCmd.Flags().String("app-version", "", "the app version the issue was found in")
	_ = reportCmd.MarkFlagRequired("app-version")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List reported issues, newest first",
		Args:  cobra.NoArgs,
		RunE: runIssue(func(ctx context.Context, a *app, issues *issue.Service, cmd *cobra.Command, _ []string) error {
			page, err := issues.List(ctx, must(cmd.Flags().GetInt("page")), must(cmd.Flags().GetInt("size")))
			if err != nil {
				return err
			}
			return a.out.print(page, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tAPP VERSION\tREPORTED\tVALUE")
				for _, i := range page.Issues {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.ID, i.AppVersion, i.OccurredAt.Format("2006-01-02 15:04:05"), i.Value)
				}
				fmt.Fprintf(w, "page %d (size %d) of %d issues\n", page.Page, page.Size, page.Total)
			})
		}),
	}
	listCmd.Flags().Int("page", 0, "zero based page number")
	listCmd.Flags().Int("size", 20, "page size")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single issue",
		Args:  cobra.ExactArgs(1),
		RunE: runIssue(func(ctx context.Context, a *app, issues *issue.Service, _ *cobra.Command, args []string) error {
			found, err := issues.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.out.printIssues([]*registry.Issue{found})
		}),
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an issue",
		Args:  cobra.ExactArgs(1),
		RunE: runIssue(func(ctx context.Context, _ *app, issues *issue.Service, _ *cobra.Command, args []string) error {
			return issues.Remove(ctx, args[0])
		}),
	}

	byDateCmd := &cobra.Command{
		Use:   "by-date",
		Short: "Count the reported issues per day",
		Args:  cobra.NoArgs,
		RunE: runIssue(func(ctx context.Context, a *app, issues *issue.Service, cmd *cobra.Command, _ []string) error {
			from, to, err := getDateRange(cmd, must(a.cfg.GetLocation()))
			if err != nil {
				return err
			}
			counts, err := issues.ByDate(ctx, from, to)
			if err != nil {
				return err
			}
			return a.out.printDateCounts(counts)
		}),
	}
	addDateRangeFlags(byDateCmd)

	cmd.AddCommand(reportCmd, listCmd, getCmd, removeCmd, byDateCmd)
	return cmd
}
