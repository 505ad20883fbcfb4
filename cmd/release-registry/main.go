package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "release-registry",
		Short:         "Manage release artifacts, download audits and issue reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().String("output", outputText, "output format (text, json or yaml)")
	cmd.PersistentFlags().SortFlags = false

	cmd.AddCommand(
		newLatestCmd(),
		newListCmd(),
		newUploadCmd(),
		newDeleteCmd(),
		newDownloadCmd(),
		newResolveVersionCmd(),
		newAuditCmd(),
		newIssueCmd(),
		newMirrorCmd(),
	)
	return cmd
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
	if err := newRootCmd().Execute(); err != nil {
		log.Errorf("ERROR: %v", err)
		os.Exit(1)
	}
}
