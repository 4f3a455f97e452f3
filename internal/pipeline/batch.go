package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/edgar"
	"github.com/finfeed/edgar-ingest/internal/publisher"
	"github.com/finfeed/edgar-ingest/internal/telemetry"
)

// BatchConfig controls the batch driver.
type BatchConfig struct {
	Workers int
	// Topic receives the completion event when a publisher is configured.
	Topic string
}

// Batch resolves a query to locators and fans the documents out over a
// worker pool. The shared rate limiter inside the fetcher is the only
// cross-worker synchronization point.
type Batch struct {
	resolver  *edgar.IndexResolver
	processor *Processor
	events    publisher.Publisher
	clock     edgar.Clock
	cfg       BatchConfig
	logger    *zap.Logger
}

// NewBatch constructs the batch driver. events may be nil.
func NewBatch(resolver *edgar.IndexResolver, processor *Processor, events publisher.Publisher, clock edgar.Clock, cfg BatchConfig, logger *zap.Logger) *Batch {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Batch{
		resolver:  resolver,
		processor: processor,
		events:    events,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Summary aggregates the per-document results of one batch run.
type Summary struct {
	BatchID    string    `json:"batch_id"`
	CIK        string    `json:"cik"`
	FormType   string    `json:"form_type"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Located    int       `json:"located"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Holdings   int       `json:"holdings"`
}

// Run downloads every matching filing in the year range and processes each
// document. Failures are counted, logged and carried in the summary rather
// than aborting the batch; cancellation is observed between documents.
func (b *Batch) Run(ctx context.Context, cik, formType string, startYear, endYear int) (Summary, error) {
	summary := Summary{
		BatchID:   uuid.NewString(),
		CIK:       edgar.NormalizeCIK(cik),
		FormType:  formType,
		StartedAt: b.clock.Now(),
	}
	logger := b.logger.With(zap.String("batch_id", summary.BatchID))

	locators, err := b.resolver.ListFilings(ctx, cik, formType, startYear, endYear)
	if err != nil {
		return summary, fmt.Errorf("resolve filings: %w", err)
	}
	summary.Located = len(locators)
	logger.Info("filings located",
		zap.String("cik", summary.CIK),
		zap.String("form_type", formType),
		zap.Int("count", len(locators)),
	)

	work := make(chan edgar.DocumentLocator)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range b.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loc := range work {
				telemetry.IncActiveWorkers()
				res := b.processor.ProcessDocument(ctx, loc)
				telemetry.DecActiveWorkers()

				mu.Lock()
				switch {
				case res.Err != nil:
					summary.Failed++
				case res.Skipped:
					summary.Skipped++
				default:
					summary.Processed++
					summary.Holdings += res.Holdings
				}
				mu.Unlock()

				if res.Err != nil {
					logger.Error("document failed",
						zap.String("accession", loc.AccessionID),
						zap.Error(res.Err),
					)
				}
			}
		}()
	}

feed:
	for _, loc := range locators {
		select {
		case <-ctx.Done():
			logger.Warn("batch interrupted", zap.Error(ctx.Err()))
			break feed
		case work <- loc:
		}
	}
	close(work)
	wg.Wait()

	summary.FinishedAt = b.clock.Now()
	logger.Info("batch finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("holdings", summary.Holdings),
	)

	b.publishSummary(ctx, summary, logger)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("batch interrupted: %w", err)
	}
	return summary, nil
}

func (b *Batch) publishSummary(ctx context.Context, summary Summary, logger *zap.Logger) {
	if b.events == nil {
		return
	}
	if _, err := b.events.Publish(ctx, b.cfg.Topic, summary); err != nil {
		logger.Warn("publish batch summary", zap.Error(err))
	}
}
