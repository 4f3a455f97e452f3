// Package fs implements the flat-file storage sink: CSV tables plus raw
// filing bodies delegated to a blob store.
package fs

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/edgar"
	"github.com/finfeed/edgar-ingest/internal/storage"
)

const (
	filingsFile = "accession_info.csv"
	headersFile = "company_info.csv"
	holdingsDir = "holdings"
	rawPrefix   = "raw"
	dateLayout  = "2006-01-02"
	rawContent  = "text/plain; charset=utf-8"
)

var filingColumns = []string{
	"cik", "accession_number", "submission_type", "document_type",
	"period_of_report", "filed_date", "effectiveness_date", "document_count",
	"sec_act", "sec_file_number", "film_number", "trade_count", "total_value",
	"other_managers_count", "confidential_omitted", "report_type",
	"form_13f_file_number", "instruction_5", "signature_name",
	"signature_title", "signature_phone",
}

var headerColumns = []string{
	"cik", "irs_number", "conformed_name", "date_of_change", "state_of_inc",
	"sic", "organization_name", "fiscal_year_end", "business_street_1",
	"business_street_2", "business_city", "business_state", "business_zip",
	"business_phone", "mail_street_1", "mail_street_2", "mail_city",
	"mail_state", "mail_zip", "former_name", "name_change_date",
}

var holdingColumns = []string{
	"accession_number", "period", "issuer_name", "class_title", "cusip",
	"value", "quantity", "quantity_type", "put_call", "discretion",
	"sole_voting", "shared_voting", "none_voting",
}

// Sink persists records as CSV flat files under a base directory.
type Sink struct {
	baseDir string
	blobs   storage.BlobStore
	logger  *zap.Logger

	mu sync.Mutex
	// seen holds accession ids already appended to the filings table so
	// re-ingesting a document cannot duplicate its row.
	seen map[string]struct{}
}

// New creates the flat-file sink rooted at baseDir. Existing filing rows
// are indexed at startup so idempotency survives process restarts. The
// blob store receives raw bodies; pass nil to disable raw persistence.
func New(baseDir string, blobs storage.BlobStore, logger *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(filepath.Join(baseDir, holdingsDir), 0o750); err != nil {
		return nil, fmt.Errorf("create sink dirs under %s: %w", baseDir, err)
	}
	s := &Sink{
		baseDir: baseDir,
		blobs:   blobs,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
	if err := s.loadSeen(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) loadSeen() error {
	rows, err := readCSV(filepath.Join(s.baseDir, filingsFile))
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		s.seen[row[1]] = struct{}{}
	}
	return nil
}

// AppendFiling appends one filing row, writing the header line on first
// use. A previously stored accession id is skipped, keeping the table
// unique under reprocessing.
func (s *Sink) AppendFiling(_ context.Context, rec edgar.FilingRecord) error {
	if rec.AccessionID == "" {
		return fmt.Errorf("filing record has no accession id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[rec.AccessionID]; dup {
		s.logger.Debug("filing already stored", zap.String("accession", rec.AccessionID))
		return nil
	}

	path := filepath.Join(s.baseDir, filingsFile)
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open filings table: %w", err)
	}
	defer closeLogged(f, s.logger)

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(filingColumns); err != nil {
			return fmt.Errorf("write filings header: %w", err)
		}
	}
	if err := w.Write(filingRow(rec)); err != nil {
		return fmt.Errorf("write filing row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush filings table: %w", err)
	}
	s.seen[rec.AccessionID] = struct{}{}
	return nil
}

// UpsertHeader merges one entity row by CIK with last-writer-wins
// semantics, rewriting the table.
func (s *Sink) UpsertHeader(_ context.Context, rec edgar.HeaderRecord) error {
	if rec.CIK == "" {
		return fmt.Errorf("header record has no cik")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.baseDir, headersFile)
	rows, err := readCSV(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		rows = [][]string{headerColumns}
	}

	updated := false
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if row[0] == rec.CIK {
			rows[i] = headerRow(rec)
			updated = true
			break
		}
	}
	if !updated {
		rows = append(rows, headerRow(rec))
	}
	return writeCSV(path, rows)
}

// WriteHoldings replaces the holdings table for one accession id. An empty
// holdings slice writes a header-only file, which keeps reprocessing
// idempotent for filings that lost their table.
func (s *Sink) WriteHoldings(_ context.Context, holdings []edgar.HoldingRecord, cik, accession string) error {
	if accession == "" {
		return fmt.Errorf("holdings write has no accession id")
	}
	dir := filepath.Join(s.baseDir, holdingsDir, edgar.NormalizeCIK(cik))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create holdings dir: %w", err)
	}

	rows := make([][]string, 0, len(holdings)+1)
	rows = append(rows, holdingColumns)
	for _, h := range holdings {
		rows = append(rows, holdingRow(h))
	}
	return writeCSV(filepath.Join(dir, accession+".csv"), rows)
}

// WriteRawDocument stores the unmodified filing body through the blob
// store. Amendment filings land under an A sub-path.
func (s *Sink) WriteRawDocument(ctx context.Context, body []byte, cik, formType, accession string, amendment bool) error {
	if s.blobs == nil {
		return nil
	}
	uri, err := s.blobs.PutObject(ctx, RawPath(cik, formType, accession, amendment), rawContent, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("write raw document: %w", err)
	}
	s.logger.Debug("raw document stored", zap.String("uri", uri))
	return nil
}

// RawPath builds the blob path for one raw filing body:
// raw/{cik}/{baseFormType}[/A]/{cik}_{formType}_{accession}.txt.
func RawPath(cik, formType, accession string, amendment bool) string {
	cik = edgar.NormalizeCIK(cik)
	baseForm := formType
	if amendment {
		baseForm = strings.SplitN(formType, "/A", 2)[0]
	}
	segments := []string{rawPrefix, cik, baseForm}
	if amendment {
		segments = append(segments, "A")
	}
	// The form type can contain a path separator ("13F-HR/A"); flatten it
	// inside the filename.
	name := fmt.Sprintf("%s_%s_%s.txt", cik, strings.ReplaceAll(formType, "/", "-"), accession)
	return strings.Join(append(segments, name), "/")
}

func filingRow(rec edgar.FilingRecord) []string {
	return []string{
		rec.CIK, rec.AccessionID, rec.SubmissionType, rec.DocumentType,
		formatDate(rec.PeriodOfReport), formatDate(rec.FiledDate),
		formatDate(rec.EffectivenessDate), rec.DocumentCount, rec.SECAct,
		rec.SECFileNumber, rec.FilmNumber, formatOptionalInt(rec.TradeCount),
		formatOptionalInt(rec.TotalValue), formatOptionalInt(rec.OtherManagersCount),
		formatOptionalBool(rec.ConfidentialOmitted), rec.ReportType,
		rec.Form13FFileNumber, rec.Instruction5, rec.SignatureName,
		rec.SignatureTitle, rec.SignaturePhone,
	}
}

func headerRow(rec edgar.HeaderRecord) []string {
	return []string{
		rec.CIK, rec.IRSNumber, rec.ConformedName, formatDate(rec.DateOfChange),
		rec.StateOfInc, rec.SIC, rec.OrganizationName, rec.FiscalYearEnd,
		rec.BusinessStreet1, rec.BusinessStreet2, rec.BusinessCity,
		rec.BusinessState, rec.BusinessZip, rec.BusinessPhone,
		rec.MailStreet1, rec.MailStreet2, rec.MailCity, rec.MailState,
		rec.MailZip, rec.FormerName, formatDate(rec.NameChangeDate),
	}
}

func holdingRow(h edgar.HoldingRecord) []string {
	return []string{
		h.AccessionID, h.Period, h.IssuerName, h.ClassTitle, h.CUSIP,
		strconv.FormatInt(h.Value, 10), strconv.FormatInt(h.Quantity, 10),
		h.QuantityType, h.PutCall, h.Discretion,
		strconv.FormatInt(h.SoleVoting, 10), strconv.FormatInt(h.SharedVoting, 10),
		strconv.FormatInt(h.NoneVoting, 10),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatOptionalInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func formatOptionalBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func closeLogged(f *os.File, logger *zap.Logger) {
	if err := f.Close(); err != nil {
		logger.Warn("close file", zap.String("path", f.Name()), zap.Error(err))
	}
}
