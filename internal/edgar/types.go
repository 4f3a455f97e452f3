// Package edgar defines core types shared across subsystems and implements
// retrieval from the EDGAR archive.
package edgar

import "time"

// DocumentLocator identifies one filing document discovered in a quarterly
// index. Immutable once produced by the index resolver.
type DocumentLocator struct {
	// CIK is the zero-padded 10-digit entity identifier.
	CIK         string
	CompanyName string
	FormType    string
	// FiledDate is the index's date column, YYYY-MM-DD.
	FiledDate string
	// AccessionID keeps the hyphenated form used in archive URLs.
	AccessionID    string
	SourceFilename string
}

// RawDocument carries a fetched filing body across the fetch-extract
// boundary. It is never persisted as-is; raw persistence is a sink concern.
type RawDocument struct {
	Locator DocumentLocator
	Body    string
}

// HeaderRecord holds entity-level descriptive fields extracted from the
// filing header. Missing fields stay at their zero value; zero means the
// labeled line was absent from the document.
type HeaderRecord struct {
	CIK               string
	IRSNumber         string
	ConformedName     string
	DateOfChange      time.Time
	StateOfInc        string
	SIC               string
	OrganizationName  string
	FiscalYearEnd     string
	BusinessStreet1   string
	BusinessStreet2   string
	BusinessCity      string
	BusinessState     string
	BusinessZip       string
	BusinessPhone     string
	MailStreet1       string
	MailStreet2       string
	MailCity          string
	MailState         string
	MailZip           string
	FormerName        string
	NameChangeDate    time.Time
}

// FilingRecord is one row per document. AccessionID is the natural key and
// is stored hyphen-stripped. Pointer fields distinguish absent from zero
// for the holdings-family aggregates.
type FilingRecord struct {
	CIK               string
	AccessionID       string
	SubmissionType    string
	DocumentType      string
	PeriodOfReport    time.Time
	FiledDate         time.Time
	EffectivenessDate time.Time
	DocumentCount     string
	SECAct            string
	SECFileNumber     string
	FilmNumber        string

	// Holdings-family aggregates; nil when the field was absent.
	TradeCount          *int64
	TotalValue          *int64
	OtherManagersCount  *int64
	ConfidentialOmitted *bool
	ReportType          string
	Form13FFileNumber   string
	Instruction5        string
	SignatureName       string
	SignatureTitle      string
	SignaturePhone      string
}

// HoldingRecord is one holdings table entry. Numeric fields are zero-filled
// when empty or unparsable; that asymmetry with the metadata absence policy
// is deliberate and load-bearing for downstream aggregation.
type HoldingRecord struct {
	AccessionID  string
	Period       string
	IssuerName   string
	ClassTitle   string
	CUSIP        string
	Value        int64
	Quantity     int64
	QuantityType string
	PutCall      string
	Discretion   string
	SoleVoting   int64
	SharedVoting int64
	NoneVoting   int64
}
