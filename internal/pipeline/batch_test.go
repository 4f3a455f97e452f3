package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/edgar"
	pubmemory "github.com/finfeed/edgar-ingest/internal/publisher/memory"
	"github.com/finfeed/edgar-ingest/internal/sink/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func batchIndex() string {
	row := func(formType, name, cik, date, filename string) string {
		return fmt.Sprintf("%-12s%-62s%-12s%-12s%s", formType, name, cik, date, filename)
	}
	return strings.Join([]string{
		"Form Type   Company Name   CIK   Date Filed  File Name",
		strings.Repeat("-", 110),
		row("13F-HR", "SAMPLE CAPITAL MANAGEMENT LP", "123456", "2024-05-15", "edgar/data/123456/0000123456-24-000789.txt"),
		row("13F-HR", "SAMPLE CAPITAL MANAGEMENT LP", "123456", "2024-05-20", "edgar/data/123456/0000123456-24-000800.txt"),
		"",
	}, "\n")
}

func TestBatchRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/full-index/2024/QTR2/"):
			_, _ = w.Write([]byte(batchIndex()))
		case strings.Contains(r.URL.Path, "/full-index/"):
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "0000123456-24-000789.txt"):
			_, _ = w.Write([]byte(sampleFiling))
		default:
			// The second located filing is unavailable; the batch counts
			// it as skipped and keeps going.
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := memory.New()
	p := newTestProcessor(t, srv.URL, store, false)

	fetcher, err := edgar.NewFetcher(edgar.FetcherConfig{
		Host:      srv.URL,
		UserAgent: "edgar-ingest-test/0.1 (dev@example.com)",
	}, allowAll{}, edgar.NewRetryPolicy(edgar.RetryPolicyConfig{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	}), zap.NewNop())
	require.NoError(t, err)

	clk := fixedClock{now: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}
	resolver := edgar.NewIndexResolver(fetcher, clk, zap.NewNop())
	events := pubmemory.New()

	b := NewBatch(resolver, p, events, clk, BatchConfig{Workers: 2, Topic: "filings-batches"}, zap.NewNop())
	summary, err := b.Run(context.Background(), "123456", "13F", 2024, 2024)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.BatchID)
	assert.Equal(t, "0000123456", summary.CIK)
	assert.Equal(t, 2, summary.Located)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Holdings)

	require.Len(t, store.Filings(), 1)

	msgs := events.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "filings-batches", msgs[0].Topic)
	published, ok := msgs[0].Payload.(Summary)
	require.True(t, ok)
	assert.Equal(t, summary.BatchID, published.BatchID)
}

func TestBatchRunWithoutPublisher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher, err := edgar.NewFetcher(edgar.FetcherConfig{
		Host:      srv.URL,
		UserAgent: "edgar-ingest-test/0.1 (dev@example.com)",
	}, allowAll{}, edgar.NewRetryPolicy(edgar.RetryPolicyConfig{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	}), zap.NewNop())
	require.NoError(t, err)

	clk := fixedClock{now: time.Now()}
	resolver := edgar.NewIndexResolver(fetcher, clk, zap.NewNop())
	p := newTestProcessor(t, srv.URL, memory.New(), false)

	b := NewBatch(resolver, p, nil, clk, BatchConfig{}, zap.NewNop())
	summary, err := b.Run(context.Background(), "123456", "13F", 2024, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Located)
}

func TestBatchRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher, err := edgar.NewFetcher(edgar.FetcherConfig{
		Host:      "http://127.0.0.1:0",
		UserAgent: "edgar-ingest-test/0.1 (dev@example.com)",
	}, allowAll{}, nil, zap.NewNop())
	require.NoError(t, err)

	clk := fixedClock{now: time.Now()}
	resolver := edgar.NewIndexResolver(fetcher, clk, zap.NewNop())
	p := newTestProcessor(t, "http://127.0.0.1:0", memory.New(), false)

	b := NewBatch(resolver, p, nil, clk, BatchConfig{}, zap.NewNop())
	_, err = b.Run(ctx, "123456", "13F", 2024, 2024)
	require.Error(t, err)
}
