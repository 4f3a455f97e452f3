package extract

import (
	"github.com/finfeed/edgar-ingest/internal/edgar"
)

// Variant is one selectable extraction strategy for a filing-type family.
// All variants expose the same interface; the dispatcher picks one by form
// type marker before documents are fed to it.
type Variant interface {
	// Name identifies the variant in logs.
	Name() string
	// ExtractHeader pulls entity-level descriptive fields.
	ExtractHeader(text string) edgar.HeaderRecord
	// ExtractFilingMeta pulls one filing row.
	ExtractFilingMeta(text string) edgar.FilingRecord
	// ExtractHoldings pulls holdings table entries; variants without a
	// holdings concept return an empty slice.
	ExtractHoldings(text string) []edgar.HoldingRecord
}

// BaseVariant extracts header and generic filing metadata. It covers every
// form family the archive hosts, minus family-specific tables.
type BaseVariant struct{}

// NewBaseVariant returns the generic extraction variant.
func NewBaseVariant() *BaseVariant {
	return &BaseVariant{}
}

// Name implements Variant.
func (*BaseVariant) Name() string { return "base" }

// ExtractHeader matches each header field independently; a missing labeled
// line leaves that field at its absent value.
func (*BaseVariant) ExtractHeader(text string) edgar.HeaderRecord {
	fields := applyRules(text, headerRules)

	mail := map[string]string{}
	if block := mailBlockRe.FindStringSubmatch(text); block != nil {
		mail = applyRules(block[1], mailRules)
	}

	return edgar.HeaderRecord{
		CIK:              fields["cik"],
		IRSNumber:        fields["irs_number"],
		ConformedName:    fields["conformed_name"],
		DateOfChange:     parseDate(fields["date_of_change"]),
		StateOfInc:       fields["state_of_inc"],
		SIC:              fields["sic"],
		OrganizationName: fields["organization_name"],
		FiscalYearEnd:    fields["fiscal_year_end"],
		BusinessStreet1:  fields["business_street_1"],
		BusinessStreet2:  fields["business_street_2"],
		BusinessCity:     fields["business_city"],
		BusinessState:    fields["business_state"],
		BusinessZip:      fields["business_zip"],
		BusinessPhone:    fields["business_phone"],
		MailStreet1:      mail["mail_street_1"],
		MailStreet2:      mail["mail_street_2"],
		MailCity:         mail["mail_city"],
		MailState:        mail["mail_state"],
		MailZip:          mail["mail_zip"],
		FormerName:       fields["former_name"],
		NameChangeDate:   parseDate(fields["name_change_date"]),
	}
}

// ExtractFilingMeta matches the accession block fields independently. The
// accession id is stored hyphen-stripped.
func (*BaseVariant) ExtractFilingMeta(text string) edgar.FilingRecord {
	fields := applyRules(text, filingRules)

	return edgar.FilingRecord{
		CIK:               fields["cik"],
		AccessionID:       edgar.StripAccession(fields["accession"]),
		SubmissionType:    fields["submission_type"],
		DocumentType:      fields["document_type"],
		PeriodOfReport:    parseDate(fields["period"]),
		FiledDate:         parseDate(fields["filed_date"]),
		EffectivenessDate: parseDate(fields["effectiveness_date"]),
		DocumentCount:     fields["document_count"],
		SECAct:            fields["sec_act"],
		SECFileNumber:     fields["sec_file_number"],
		FilmNumber:        fields["film_number"],
	}
}

// ExtractHoldings implements Variant; the base variant has no holdings
// table.
func (*BaseVariant) ExtractHoldings(string) []edgar.HoldingRecord {
	return nil
}
