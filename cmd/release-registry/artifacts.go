package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/spf13/cobra"
)

func newLatestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest [platform]",
		Short: "Show the latest artifact of a platform, or of every platform",
		Args:  cobra.MaximumNArgs(1),
		RunE: runE(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			constraint := must(cmd.Flags().GetString("constraint"))
			if len(args) == 0 {
				if constraint != "" {
					return fmt.Errorf("--constraint requires a platform")
				}
				artifacts, err := a.resolver().LatestAll(ctx)
				if err != nil {
					return err
				}
				return a.out.printArtifacts(artifacts)
			}
			platform, err := registry.ParsePlatformType(args[0])
			if err != nil {
				return err
			}
			artifact, err := a.resolver().LatestMatching(ctx, platform, constraint)
			if err != nil {
				return err
			}
			if artifact == nil {
				return fmt.Errorf("no artifact found for platform %s", platform)
			}
			return a.out.printArtifacts([]*registry.Artifact{artifact})
		}),
	}
	cmd.Flags().String("constraint", "", "semver constraint the version has to satisfy (e.g. ^1.2)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every artifact of every platform",
		Args:  cobra.NoArgs,
		RunE: runE(func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			artifacts, err := a.resolver().List(ctx)
			if err != nil {
				return err
			}
			return a.out.printArtifacts(artifacts)
		}),
	}
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an artifact, replacing an existing one with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := must(cmd.Flags().GetString("name"))
			if name == "" {
				name = filepath.Base(args[0])
			}
			if err := a.resolver().UploadOrReplace(ctx, name, data); err != nil {
				return err
			}
			return a.out.printValue(a.store.Location(name))
		}),
	}
	cmd.Flags().String("name", "", "store the artifact under this name instead of the file name")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an artifact if it exists",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			return a.resolver().DeleteIfExists(ctx, args[0])
		}),
	}
}

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <name>",
		Short: "Download an artifact and record the download",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			body, artifact, err := a.resolver().StreamFor(ctx, args[0])
			if err != nil {
				return err
			}
			defer body.Close()

			outPath := must(cmd.Flags().GetString("out-file"))
			if outPath == "" {
				outPath = artifact.Name
			}
			var n int64
			if outPath == "-" {
				n, err = io.Copy(os.Stdout, body)
			} else {
				var f *os.File
				f, err = os.Create(outPath)
				if err != nil {
					return err
				}
				n, err = copyAndClose(f, body)
			}
			if err != nil {
				return fmt.Errorf("failed to write artifact: %w", err)
			}
			a.log.Infof("downloaded %s (%d bytes)", artifact.Name, n)

			if must(cmd.Flags().GetBool("no-audit")) {
				return nil
			}
			aggregator, err := a.auditAggregator(ctx)
			if err != nil {
				return err
			}
			return aggregator.RecordDownload(ctx, artifact.Version, artifact.PlatformType)
		}),
	}
	cmd.Flags().StringP("out-file", "o", "", "write the artifact to this path (- for stdout)")
	cmd.Flags().Bool("no-audit", false, "do not record the download")
	return cmd
}

// copyAndClose copies r into w and closes w. A failed close is reported even
// if the copy succeeded.
func copyAndClose(w io.WriteCloser, r io.Reader) (int64, error) {
	n, err := io.Copy(w, r)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

func newResolveVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve-version <platform>",
		Short: "Print the version of the single artifact of a platform",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			platform, err := registry.ParsePlatformType(args[0])
			if err != nil {
				return err
			}
			v, err := a.resolver().ResolveVersion(ctx, platform)
			if err != nil {
				return err
			}
			return a.out.printValue(v)
		}),
	}
}
