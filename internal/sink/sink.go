// Package sink defines the storage contract consumed by the pipeline.
package sink

import (
	"context"

	"github.com/finfeed/edgar-ingest/internal/edgar"
)

// Sink persists extracted records. Implementations must tolerate being
// invoked concurrently for distinct documents; per-key read-modify-write is
// serialized inside the sink.
type Sink interface {
	// AppendFiling stores one filing row. Re-ingesting the same accession
	// id must not produce a duplicate.
	AppendFiling(ctx context.Context, rec edgar.FilingRecord) error
	// UpsertHeader merges one entity row by CIK, overwriting on conflict.
	UpsertHeader(ctx context.Context, rec edgar.HeaderRecord) error
	// WriteHoldings replaces the holdings table for one accession id.
	WriteHoldings(ctx context.Context, holdings []edgar.HoldingRecord, cik, accession string) error
	// WriteRawDocument stores the unmodified filing body. Amendments are
	// routed to a distinguishable sub-path.
	WriteRawDocument(ctx context.Context, body []byte, cik, formType, accession string, amendment bool) error
}
