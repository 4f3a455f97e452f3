// Package pipeline runs the fetch-extract-persist loop over located
// filings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/edgar"
	"github.com/finfeed/edgar-ingest/internal/extract"
	"github.com/finfeed/edgar-ingest/internal/sink"
	"github.com/finfeed/edgar-ingest/internal/telemetry"
)

// Processor executes the per-document pipeline: fetch, select a variant,
// extract, persist. It is stateless across documents and safe for
// concurrent use.
type Processor struct {
	fetcher  *edgar.Fetcher
	registry *extract.Registry
	sink     sink.Sink
	saveRaw  bool
	logger   *zap.Logger
}

// NewProcessor wires the pipeline stages together. When saveRaw is set the
// unmodified body is persisted through the sink before extraction.
func NewProcessor(fetcher *edgar.Fetcher, registry *extract.Registry, s sink.Sink, saveRaw bool, logger *zap.Logger) *Processor {
	return &Processor{
		fetcher:  fetcher,
		registry: registry,
		sink:     s,
		saveRaw:  saveRaw,
		logger:   logger,
	}
}

// Result reports the outcome of one document. A nil Err with Skipped set
// means the archive would not serve the document, which is a normal
// outcome; the batch driver decides whether that matters.
type Result struct {
	Locator  edgar.DocumentLocator
	Skipped  bool
	Holdings int
	Err      error
}

// ProcessDocument runs the pipeline for one located filing. One bad
// document never aborts a batch: failures come back in the Result, not as
// panics or swallowed silence.
func (p *Processor) ProcessDocument(ctx context.Context, loc edgar.DocumentLocator) Result {
	res := Result{Locator: loc}

	doc, err := p.fetcher.FetchDocument(ctx, loc.CIK, loc.AccessionID)
	if err != nil {
		if errors.Is(err, edgar.ErrDocumentUnavailable) {
			res.Skipped = true
			telemetry.ObserveDocument("unavailable")
			return res
		}
		res.Err = fmt.Errorf("fetch %s: %w", loc.AccessionID, err)
		telemetry.ObserveDocument("fetch_error")
		return res
	}

	if p.saveRaw {
		amendment := strings.Contains(loc.FormType, "/A")
		if err := p.sink.WriteRawDocument(ctx, []byte(doc.Body), loc.CIK, loc.FormType, loc.AccessionID, amendment); err != nil {
			// Raw persistence is a side effect; extraction still proceeds.
			p.logger.Warn("raw persistence failed",
				zap.String("accession", loc.AccessionID),
				zap.Error(err),
			)
		}
	}

	variant := p.registry.Select(loc.FormType, doc.Body)

	header := variant.ExtractHeader(doc.Body)
	if header.CIK == "" {
		header.CIK = loc.CIK
	}
	meta := variant.ExtractFilingMeta(doc.Body)
	if meta.AccessionID == "" {
		meta.AccessionID = edgar.StripAccession(loc.AccessionID)
	}
	if meta.CIK == "" {
		meta.CIK = loc.CIK
	}
	holdings := variant.ExtractHoldings(doc.Body)
	telemetry.ObserveHoldings(len(holdings))

	if err := p.sink.UpsertHeader(ctx, header); err != nil {
		res.Err = fmt.Errorf("persist header %s: %w", loc.AccessionID, err)
		telemetry.ObserveDocument("sink_error")
		return res
	}
	if err := p.sink.AppendFiling(ctx, meta); err != nil {
		res.Err = fmt.Errorf("persist filing %s: %w", loc.AccessionID, err)
		telemetry.ObserveDocument("sink_error")
		return res
	}
	if err := p.sink.WriteHoldings(ctx, holdings, meta.CIK, meta.AccessionID); err != nil {
		res.Err = fmt.Errorf("persist holdings %s: %w", loc.AccessionID, err)
		telemetry.ObserveDocument("sink_error")
		return res
	}

	res.Holdings = len(holdings)
	telemetry.ObserveDocument("processed")
	p.logger.Debug("document processed",
		zap.String("accession", loc.AccessionID),
		zap.String("variant", variant.Name()),
		zap.Int("holdings", len(holdings)),
	)
	return res
}
