package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/edgar"
	"github.com/finfeed/edgar-ingest/internal/extract"
	"github.com/finfeed/edgar-ingest/internal/sink/memory"
)

// sampleFiling is a trimmed holdings filing: SGML header, XML cover page,
// XML information table.
const sampleFiling = `<SEC-DOCUMENT>0000123456-24-000789.txt : 20240515
<SEC-HEADER>0000123456-24-000789.hdr.sgml : 20240515
ACCESSION NUMBER:		0000123456-24-000789
CONFORMED SUBMISSION TYPE:	13F-HR
CONFORMED PERIOD OF REPORT:	20240331
FILED AS OF DATE:		20240515

FILER:

	COMPANY DATA:
		COMPANY CONFORMED NAME:			SAMPLE CAPITAL MANAGEMENT LP
		CENTRAL INDEX KEY:			0000123456
		STATE OF INCORPORATION:			DE
</SEC-HEADER>
<DOCUMENT>
<TEXT>
<XML>
<?xml version="1.0" encoding="UTF-8"?>
<edgarSubmission>
  <formData>
    <summaryPage>
      <tableEntryTotal>1</tableEntryTotal>
      <tableValueTotal>1000000</tableValueTotal>
    </summaryPage>
  </formData>
</edgarSubmission>
</XML>
</TEXT>
</DOCUMENT>
<DOCUMENT>
<TEXT>
<XML>
<?xml version="1.0" encoding="UTF-8"?>
<informationTable xmlns="http://www.sec.gov/edgar/document/thirteenf/informationtable">
  <infoTable>
    <nameOfIssuer>APPLE INC</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>037833100</cusip>
    <value>1000000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>10000</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
    <investmentDiscretion>SOLE</investmentDiscretion>
    <votingAuthority>
      <Sole>10000</Sole>
      <Shared>0</Shared>
      <None>0</None>
    </votingAuthority>
  </infoTable>
</informationTable>
</XML>
</TEXT>
</DOCUMENT>
</SEC-DOCUMENT>
`

type allowAll struct{}

func (allowAll) Acquire(context.Context, float64) bool { return true }

func newTestProcessor(t *testing.T, serverURL string, s *memory.Sink, saveRaw bool) *Processor {
	t.Helper()
	fetcher, err := edgar.NewFetcher(edgar.FetcherConfig{
		Host:      serverURL,
		UserAgent: "edgar-ingest-test/0.1 (dev@example.com)",
	}, allowAll{}, edgar.NewRetryPolicy(edgar.RetryPolicyConfig{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	}), zap.NewNop())
	require.NoError(t, err)
	return NewProcessor(fetcher, extract.NewRegistry(zap.NewNop()), s, saveRaw, zap.NewNop())
}

func sampleLocator() edgar.DocumentLocator {
	return edgar.DocumentLocator{
		CIK:         "0000123456",
		CompanyName: "SAMPLE CAPITAL MANAGEMENT LP",
		FormType:    "13F-HR",
		FiledDate:   "2024-05-15",
		AccessionID: "0000123456-24-000789",
	}
}

func TestProcessDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFiling))
	}))
	defer srv.Close()

	store := memory.New()
	p := newTestProcessor(t, srv.URL, store, true)

	res := p.ProcessDocument(context.Background(), sampleLocator())
	require.NoError(t, res.Err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Holdings)

	filings := store.Filings()
	require.Len(t, filings, 1)
	filing, ok := filings["000012345624000789"]
	require.True(t, ok)
	assert.Equal(t, "13F-HR", filing.SubmissionType)
	require.NotNil(t, filing.TotalValue)
	assert.Equal(t, int64(1000000), *filing.TotalValue)

	header, ok := store.Headers()["0000123456"]
	require.True(t, ok)
	assert.Equal(t, "SAMPLE CAPITAL MANAGEMENT LP", header.ConformedName)
	assert.Equal(t, "DE", header.StateOfInc)

	holdings := store.Holdings("000012345624000789")
	require.Len(t, holdings, 1)
	assert.Equal(t, "APPLE INC", holdings[0].IssuerName)
	assert.Equal(t, "037833100", holdings[0].CUSIP)
	assert.Equal(t, int64(1000000), holdings[0].Value)
	assert.Equal(t, int64(10000), holdings[0].Quantity)
	assert.Equal(t, "20240331", holdings[0].Period)

	assert.Equal(t, sampleFiling, string(store.Raw("0000123456-24-000789")))
}

func TestProcessDocumentReprocessIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFiling))
	}))
	defer srv.Close()

	store := memory.New()
	p := newTestProcessor(t, srv.URL, store, false)

	require.NoError(t, p.ProcessDocument(context.Background(), sampleLocator()).Err)
	require.NoError(t, p.ProcessDocument(context.Background(), sampleLocator()).Err)

	assert.Len(t, store.Filings(), 1)
	assert.Len(t, store.Holdings("000012345624000789"), 1)
}

func TestProcessDocumentUnavailableIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := memory.New()
	p := newTestProcessor(t, srv.URL, store, false)

	res := p.ProcessDocument(context.Background(), sampleLocator())
	require.NoError(t, res.Err)
	assert.True(t, res.Skipped)
	assert.Empty(t, store.Filings())
}

func TestProcessDocumentRawDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFiling))
	}))
	defer srv.Close()

	store := memory.New()
	p := newTestProcessor(t, srv.URL, store, false)

	require.NoError(t, p.ProcessDocument(context.Background(), sampleLocator()).Err)
	assert.Nil(t, store.Raw("0000123456-24-000789"))
}

func TestProcessDocumentNonHoldingsForm(t *testing.T) {
	body := strings.ReplaceAll(sampleFiling, "13F-HR", "10-K")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	store := memory.New()
	p := newTestProcessor(t, srv.URL, store, false)

	loc := sampleLocator()
	loc.FormType = "10-K"
	res := p.ProcessDocument(context.Background(), loc)
	require.NoError(t, res.Err)
	assert.Equal(t, 0, res.Holdings)

	// The base variant yields no holdings rows.
	assert.Empty(t, store.Holdings("000012345624000789"))
	assert.Len(t, store.Filings(), 1)
}
