package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/clock/system"
	"github.com/finfeed/edgar-ingest/internal/edgar"
	"github.com/finfeed/edgar-ingest/internal/extract"
	"github.com/finfeed/edgar-ingest/internal/pipeline"
	"github.com/finfeed/edgar-ingest/internal/publisher"
	"github.com/finfeed/edgar-ingest/internal/publisher/pubsub"
	"github.com/finfeed/edgar-ingest/internal/ratelimit"
	"github.com/finfeed/edgar-ingest/internal/sink"
	sinkfs "github.com/finfeed/edgar-ingest/internal/sink/fs"
	sinkpg "github.com/finfeed/edgar-ingest/internal/sink/postgres"
	"github.com/finfeed/edgar-ingest/internal/storage"
	"github.com/finfeed/edgar-ingest/internal/storage/gcs"
	"github.com/finfeed/edgar-ingest/internal/storage/local"
)

// newFetchCmd creates the 'fetch' subcommand, which downloads and extracts
// every matching filing for one entity.
func newFetchCmd() *cobra.Command {
	var (
		cik       string
		formType  string
		startYear int
		endYear   int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Downloads and extracts filings for one entity",
		Long: `Resolves the quarterly form indexes for the requested year range,
downloads every filing whose form type matches, extracts entity, filing and
holdings records, and persists them through the configured sink.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runFetch(ctx, cik, formType, startYear, endYear)
		},
	}

	cmd.Flags().StringVar(&cik, "cik", "", "entity CIK (required)")
	cmd.Flags().StringVar(&formType, "form", "13F", "form type substring to match")
	cmd.Flags().IntVar(&startYear, "start-year", 0, "first index year (required)")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "last index year (default: current year)")
	_ = cmd.MarkFlagRequired("cik")
	_ = cmd.MarkFlagRequired("start-year")

	return cmd
}

func runFetch(ctx context.Context, cik, formType string, startYear, endYear int) error {
	bucket, initialized := ratelimit.Shared(ratelimit.SharedConfig{
		NominalRate:  cfg.Rate.RequestsPerSecond,
		SafetyFactor: cfg.Rate.SafetyFactor,
		Capacity:     cfg.Rate.Capacity,
	}, ratelimit.WithLogger(logger))
	if !initialized {
		logger.Warn("rate limiter already initialized, ignoring new parameters")
	}

	retry := edgar.NewRetryPolicy(edgar.RetryPolicyConfig{
		MaxRetries:    cfg.HTTP.MaxRetries,
		BaseDelay:     cfg.BackoffInitial(),
		MaxDelay:      cfg.BackoffMax(),
		RetryStatuses: cfg.HTTP.RetryStatusCodes,
	})
	fetcher, err := edgar.NewFetcher(edgar.FetcherConfig{
		Host:      cfg.Archive.Host,
		UserAgent: cfg.Archive.UserAgent,
		Headers:   cfg.Archive.Headers,
		Timeout:   cfg.HTTPTimeout(),
	}, bucket, retry, logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	blobs, err := buildBlobStore(ctx)
	if err != nil {
		return err
	}
	recordSink, closeSink, err := buildSink(ctx, blobs)
	if err != nil {
		return err
	}
	defer closeSink()

	events, err := buildPublisher(ctx)
	if err != nil {
		return err
	}

	clk := system.New()
	resolver := edgar.NewIndexResolver(fetcher, clk, logger)
	registry := extract.NewRegistry(logger)
	processor := pipeline.NewProcessor(fetcher, registry, recordSink, cfg.Storage.SaveRaw, logger)
	batch := pipeline.NewBatch(resolver, processor, events, clk, pipeline.BatchConfig{
		Workers: cfg.Batch.Workers,
		Topic:   cfg.PubSub.TopicName,
	}, logger)

	summary, err := batch.Run(ctx, cik, formType, startYear, endYear)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run batch: %w", err)
	}
	logger.Info("fetch finished",
		zap.Int("located", summary.Located),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return nil
}

// buildBlobStore picks GCS when a bucket is configured, else the local
// filesystem under the storage base path.
func buildBlobStore(ctx context.Context) (storage.BlobStore, error) {
	if !cfg.Storage.SaveRaw {
		return nil, nil
	}
	if cfg.Storage.GCSBucket != "" {
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		return gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
	}
	return local.New(local.Config{BaseDir: cfg.Storage.BasePath})
}

// buildSink picks Postgres when a DSN is configured, else CSV flat files.
func buildSink(ctx context.Context, blobs storage.BlobStore) (sink.Sink, func(), error) {
	if cfg.DB.DSN != "" {
		store, err := sinkpg.New(ctx, sinkpg.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		}, blobs)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres sink: %w", err)
		}
		return store, store.Close, nil
	}
	fsSink, err := sinkfs.New(cfg.Storage.BasePath, blobs, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init file sink: %w", err)
	}
	return fsSink, func() {}, nil
}

// buildPublisher wires Pub/Sub completion events when configured.
func buildPublisher(ctx context.Context) (publisher.Publisher, error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return nil, nil
	}
	client, err := gpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	return pubsub.New(client), nil
}
