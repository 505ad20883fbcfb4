package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newMirrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mirror <owner/repo> [tag]",
		Short: "Copy the platform artifacts of a GitHub release into the registry",
		Long:  "Copy the platform artifacts of a GitHub release into the registry. The latest release is used if no tag is given.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: runE(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			tag := ""
			if len(args) == 2 {
				tag = args[1]
			}
			mirrored, err := a.mirror(ctx).Mirror(ctx, args[0], tag)
			if err != nil {
				return err
			}
			return a.out.print(mirrored, func(w io.Writer) {
				for _, name := range mirrored {
					fmt.Fprintln(w, name)
				}
			})
		}),
	}
}
