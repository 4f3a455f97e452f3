// Package postgres provides a Postgres-backed sink implementation.
package postgres

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finfeed/edgar-ingest/internal/edgar"
	"github.com/finfeed/edgar-ingest/internal/sink/fs"
	"github.com/finfeed/edgar-ingest/internal/storage"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes filing, header and holdings rows into Postgres. Raw bodies
// go to an optional blob store; the relational side holds records only.
type Store struct {
	pool  execCloser
	blobs storage.BlobStore
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config, blobs storage.BlobStore) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, blobs: blobs}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewWithPool(pool execCloser, blobs storage.BlobStore) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool, blobs: blobs}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// AppendFiling inserts one filing row. The accession id is the primary
// key; re-ingesting the same document is a no-op.
func (s *Store) AppendFiling(ctx context.Context, rec edgar.FilingRecord) error {
	if rec.AccessionID == "" {
		return fmt.Errorf("filing record has no accession id")
	}
	query := `
INSERT INTO filings (
	accession_number,
	cik,
	submission_type,
	document_type,
	period_of_report,
	filed_date,
	effectiveness_date,
	document_count,
	sec_act,
	sec_file_number,
	film_number,
	trade_count,
	total_value,
	other_managers_count,
	confidential_omitted,
	report_type,
	form_13f_file_number,
	instruction_5,
	signature_name,
	signature_title,
	signature_phone
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
ON CONFLICT (accession_number) DO NOTHING`
	_, err := s.pool.Exec(ctx, query,
		rec.AccessionID,
		rec.CIK,
		rec.SubmissionType,
		rec.DocumentType,
		nullTime(rec.PeriodOfReport),
		nullTime(rec.FiledDate),
		nullTime(rec.EffectivenessDate),
		rec.DocumentCount,
		rec.SECAct,
		rec.SECFileNumber,
		rec.FilmNumber,
		rec.TradeCount,
		rec.TotalValue,
		rec.OtherManagersCount,
		rec.ConfidentialOmitted,
		rec.ReportType,
		rec.Form13FFileNumber,
		rec.Instruction5,
		rec.SignatureName,
		rec.SignatureTitle,
		rec.SignaturePhone,
	)
	if err != nil {
		return fmt.Errorf("insert filing %s: %w", rec.AccessionID, err)
	}
	return nil
}

// UpsertHeader merges one entity row by CIK, last writer wins.
func (s *Store) UpsertHeader(ctx context.Context, rec edgar.HeaderRecord) error {
	if rec.CIK == "" {
		return fmt.Errorf("header record has no cik")
	}
	query := `
INSERT INTO companies (
	cik,
	irs_number,
	conformed_name,
	date_of_change,
	state_of_inc,
	sic,
	organization_name,
	fiscal_year_end,
	business_street_1,
	business_street_2,
	business_city,
	business_state,
	business_zip,
	business_phone,
	mail_street_1,
	mail_street_2,
	mail_city,
	mail_state,
	mail_zip,
	former_name,
	name_change_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
ON CONFLICT (cik) DO UPDATE SET
	irs_number = EXCLUDED.irs_number,
	conformed_name = EXCLUDED.conformed_name,
	date_of_change = EXCLUDED.date_of_change,
	state_of_inc = EXCLUDED.state_of_inc,
	sic = EXCLUDED.sic,
	organization_name = EXCLUDED.organization_name,
	fiscal_year_end = EXCLUDED.fiscal_year_end,
	business_street_1 = EXCLUDED.business_street_1,
	business_street_2 = EXCLUDED.business_street_2,
	business_city = EXCLUDED.business_city,
	business_state = EXCLUDED.business_state,
	business_zip = EXCLUDED.business_zip,
	business_phone = EXCLUDED.business_phone,
	mail_street_1 = EXCLUDED.mail_street_1,
	mail_street_2 = EXCLUDED.mail_street_2,
	mail_city = EXCLUDED.mail_city,
	mail_state = EXCLUDED.mail_state,
	mail_zip = EXCLUDED.mail_zip,
	former_name = EXCLUDED.former_name,
	name_change_date = EXCLUDED.name_change_date`
	_, err := s.pool.Exec(ctx, query,
		rec.CIK,
		rec.IRSNumber,
		rec.ConformedName,
		nullTime(rec.DateOfChange),
		rec.StateOfInc,
		rec.SIC,
		rec.OrganizationName,
		rec.FiscalYearEnd,
		rec.BusinessStreet1,
		rec.BusinessStreet2,
		rec.BusinessCity,
		rec.BusinessState,
		rec.BusinessZip,
		rec.BusinessPhone,
		rec.MailStreet1,
		rec.MailStreet2,
		rec.MailCity,
		rec.MailState,
		rec.MailZip,
		rec.FormerName,
		nullTime(rec.NameChangeDate),
	)
	if err != nil {
		return fmt.Errorf("upsert company %s: %w", rec.CIK, err)
	}
	return nil
}

// WriteHoldings replaces the holdings rows for one accession id.
func (s *Store) WriteHoldings(ctx context.Context, holdings []edgar.HoldingRecord, cik, accession string) error {
	if accession == "" {
		return fmt.Errorf("holdings write has no accession id")
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM holdings WHERE accession_number = $1`, accession); err != nil {
		return fmt.Errorf("clear holdings %s: %w", accession, err)
	}
	query := `
INSERT INTO holdings (
	accession_number,
	cik,
	period,
	issuer_name,
	class_title,
	cusip,
	value,
	quantity,
	quantity_type,
	put_call,
	discretion,
	sole_voting,
	shared_voting,
	none_voting
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for _, h := range holdings {
		if _, err := s.pool.Exec(ctx, query,
			accession,
			edgar.NormalizeCIK(cik),
			h.Period,
			h.IssuerName,
			h.ClassTitle,
			h.CUSIP,
			h.Value,
			h.Quantity,
			h.QuantityType,
			h.PutCall,
			h.Discretion,
			h.SoleVoting,
			h.SharedVoting,
			h.NoneVoting,
		); err != nil {
			return fmt.Errorf("insert holding %s/%s: %w", accession, h.CUSIP, err)
		}
	}
	return nil
}

// WriteRawDocument delegates the body to the blob store when configured.
func (s *Store) WriteRawDocument(ctx context.Context, body []byte, cik, formType, accession string, amendment bool) error {
	if s.blobs == nil {
		return nil
	}
	path := fs.RawPath(cik, formType, accession, amendment)
	if _, err := s.blobs.PutObject(ctx, path, "text/plain; charset=utf-8", bytes.NewReader(body)); err != nil {
		return fmt.Errorf("write raw document: %w", err)
	}
	return nil
}

// nullTime maps the record-level absent value (zero time) to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
