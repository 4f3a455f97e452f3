// Package memory holds an in-memory sink implementation for tests.
package memory

import (
	"context"
	"sync"

	"github.com/finfeed/edgar-ingest/internal/edgar"
)

// Sink accumulates records in memory with the same keying semantics as the
// flat-file sink: filings unique by accession id, headers last-writer-wins
// by CIK, holdings replaced per accession.
type Sink struct {
	mu       sync.RWMutex
	filings  map[string]edgar.FilingRecord
	headers  map[string]edgar.HeaderRecord
	holdings map[string][]edgar.HoldingRecord
	raw      map[string][]byte
}

// New returns an empty memory sink.
func New() *Sink {
	return &Sink{
		filings:  make(map[string]edgar.FilingRecord),
		headers:  make(map[string]edgar.HeaderRecord),
		holdings: make(map[string][]edgar.HoldingRecord),
		raw:      make(map[string][]byte),
	}
}

// AppendFiling stores the record, keeping the first row per accession id.
func (s *Sink) AppendFiling(_ context.Context, rec edgar.FilingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.filings[rec.AccessionID]; dup {
		return nil
	}
	s.filings[rec.AccessionID] = rec
	return nil
}

// UpsertHeader overwrites the entity row.
func (s *Sink) UpsertHeader(_ context.Context, rec edgar.HeaderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers[rec.CIK] = rec
	return nil
}

// WriteHoldings replaces the holdings for one accession id.
func (s *Sink) WriteHoldings(_ context.Context, holdings []edgar.HoldingRecord, _, accession string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[accession] = append([]edgar.HoldingRecord(nil), holdings...)
	return nil
}

// WriteRawDocument keeps the body keyed by accession id.
func (s *Sink) WriteRawDocument(_ context.Context, body []byte, _, _, accession string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[accession] = append([]byte(nil), body...)
	return nil
}

// Filings returns the stored filing rows keyed by accession id.
func (s *Sink) Filings() map[string]edgar.FilingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]edgar.FilingRecord, len(s.filings))
	for k, v := range s.filings {
		out[k] = v
	}
	return out
}

// Headers returns the stored entity rows keyed by CIK.
func (s *Sink) Headers() map[string]edgar.HeaderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]edgar.HeaderRecord, len(s.headers))
	for k, v := range s.headers {
		out[k] = v
	}
	return out
}

// Holdings returns the stored holdings for one accession id.
func (s *Sink) Holdings(accession string) []edgar.HoldingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]edgar.HoldingRecord(nil), s.holdings[accession]...)
}

// Raw returns the stored raw body for one accession id.
func (s *Sink) Raw(accession string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.raw[accession]...)
}
