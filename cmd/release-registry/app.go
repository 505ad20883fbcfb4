package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	"github.com/go-semantic-release/release-registry/internal/audit"
	"github.com/go-semantic-release/release-registry/internal/binary"
	"github.com/go-semantic-release/release-registry/internal/config"
	"github.com/go-semantic-release/release-registry/internal/issue"
	"github.com/go-semantic-release/release-registry/internal/logger"
	"github.com/go-semantic-release/release-registry/internal/metrics"
	"github.com/go-semantic-release/release-registry/internal/mirror"
	"github.com/go-semantic-release/release-registry/internal/storage"
	versionCodec "github.com/go-semantic-release/release-registry/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds the components shared by all commands. Backends that need
// network connections are created on first use.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	out      *printer
	codec    *versionCodec.Codec
	store    storage.Store
	fsClient *firestore.Client
	closers  []func() error
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Version = version

	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}
	out, err := newPrinter(must(cmd.Flags().GetString("output")), os.Stdout)
	if err != nil {
		return nil, err
	}
	codec, err := versionCodec.New(cfg.VersionPattern)
	if err != nil {
		return nil, err
	}
	store, err := cfg.CreateArtifactStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		out:   out,
		codec: codec,
		store: store,
	}
	if !cfg.DisableMetrics {
		log.Debug("starting metrics exporter...")
		exporter, err := metrics.NewExporter(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to start metrics exporter: %w", err)
		}
		a.closers = append(a.closers, func() error {
			exporter.Flush()
			exporter.StopMetricsExporter()
			return nil
		})
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error(err)
		}
	}
}

func (a *app) resolver() *binary.Resolver {
	return binary.New(a.log, a.store, a.codec)
}

func (a *app) firestoreClient(ctx context.Context) (*firestore.Client, error) {
	if a.fsClient != nil {
		return a.fsClient, nil
	}
	a.log.Debug("connecting to database...")
	db, err := a.cfg.CreateFirestoreClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to firestore: %w", err)
	}
	a.fsClient = db
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *app) auditAggregator(ctx context.Context) (*audit.Aggregator, error) {
	loc := must(a.cfg.GetLocation())
	db, err := a.firestoreClient(ctx)
	if err != nil {
		return nil, err
	}
	return audit.New(a.log, audit.NewFirestoreStore(db, a.cfg.GetCollectionPrefix()), loc), nil
}

func (a *app) issueService(ctx context.Context) (*issue.Service, error) {
	loc := must(a.cfg.GetLocation())
	db, err := a.firestoreClient(ctx)
	if err != nil {
		return nil, err
	}
	return issue.New(a.log, issue.NewFirestoreStore(db, a.cfg.GetCollectionPrefix()), a.codec, loc), nil
}

func (a *app) mirror(ctx context.Context) *mirror.Mirror {
	return mirror.New(a.log, a.cfg.CreateGitHubClient(ctx), a.codec, a.resolver())
}

type runFunc func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error

// runE sets up the app for a single command invocation and tears it down
// afterwards.
func runE(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a, cmd, args)
	}
}
