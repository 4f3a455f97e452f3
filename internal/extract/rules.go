// Package extract pulls structured records out of the archive's mixed
// plain-text/XML filing documents. Extraction is tolerant by design: every
// field is matched independently, and a miss leaves that one field absent
// without affecting the rest of the record.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rule is one declarative extraction entry: a field name and the pattern
// whose first capture group yields its value. Fields with no match are
// simply missing from the result map; the absent-vs-zero policy is applied
// where the typed record is assembled.
type rule struct {
	name string
	re   *regexp.Regexp
}

// applyRules evaluates every rule independently over the document text.
// Only matched fields appear in the result.
func applyRules(text string, rules []rule) map[string]string {
	out := make(map[string]string, len(rules))
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out[r.name] = strings.TrimSpace(m[1])
	}
	return out
}

// Header field rules, matching the archive's LABEL:<whitespace><value>
// lines.
var headerRules = []rule{
	{"cik", regexp.MustCompile(`CENTRAL INDEX KEY:\s+(\d+)`)},
	{"irs_number", regexp.MustCompile(`IRS NUMBER:\s+(\d+)`)},
	{"conformed_name", regexp.MustCompile(`COMPANY CONFORMED NAME:\s+(.+)`)},
	{"date_of_change", regexp.MustCompile(`DATE AS OF CHANGE:\s+(\d+)`)},
	{"state_of_inc", regexp.MustCompile(`STATE OF INCORPORATION:\s+([A-Z]+)`)},
	{"sic", regexp.MustCompile(`STANDARD INDUSTRIAL CLASSIFICATION:\s+([^[]+)`)},
	{"organization_name", regexp.MustCompile(`ORGANIZATION NAME:\s+(.+)`)},
	{"fiscal_year_end", regexp.MustCompile(`FISCAL YEAR END:\s+(\d+)`)},
	{"business_street_1", regexp.MustCompile(`STREET 1:\s+(.+)`)},
	{"business_street_2", regexp.MustCompile(`STREET 2:\s+(.+)`)},
	{"business_city", regexp.MustCompile(`CITY:\s+([A-Za-z ]+)`)},
	{"business_state", regexp.MustCompile(`STATE:\s+([A-Z]+)`)},
	{"business_zip", regexp.MustCompile(`ZIP:\s+(\d+)`)},
	{"business_phone", regexp.MustCompile(`BUSINESS PHONE:\s+(\d+)`)},
	{"former_name", regexp.MustCompile(`FORMER CONFORMED NAME:\s+(.+)`)},
	{"name_change_date", regexp.MustCompile(`DATE OF NAME CHANGE:\s+(\d+)`)},
}

// Mail address rules search only the MAIL ADDRESS block so the shared
// STREET/CITY/STATE/ZIP labels don't collide with the business block.
var mailBlockRe = regexp.MustCompile(`(?s)MAIL ADDRESS:(.*?)(?:\n\s*\n|FORMER COMPANY:|FILER:|$)`)

var mailRules = []rule{
	{"mail_street_1", regexp.MustCompile(`STREET 1:\s+(.+)`)},
	{"mail_street_2", regexp.MustCompile(`STREET 2:\s+(.+)`)},
	{"mail_city", regexp.MustCompile(`CITY:\s+([A-Za-z ]+)`)},
	{"mail_state", regexp.MustCompile(`STATE:\s+([A-Z]+)`)},
	{"mail_zip", regexp.MustCompile(`ZIP:\s+(\d+)`)},
}

// Filing metadata rules, spanning labeled lines and inline XML tag values.
var filingRules = []rule{
	{"cik", regexp.MustCompile(`CENTRAL INDEX KEY:\s+(\d{10})`)},
	{"accession", regexp.MustCompile(`ACCESSION NUMBER:\s+(\d+-\d+-\d+)`)},
	{"submission_type", regexp.MustCompile(`CONFORMED SUBMISSION TYPE:\s+([\w-]+)`)},
	{"document_type", regexp.MustCompile(`<type>([\w-]+)</type>`)},
	{"period", regexp.MustCompile(`CONFORMED PERIOD OF REPORT:\s+(\d+)`)},
	{"filed_date", regexp.MustCompile(`FILED AS OF DATE:\s+(\d+)`)},
	{"effectiveness_date", regexp.MustCompile(`EFFECTIVENESS DATE:\s+(\d+)`)},
	{"document_count", regexp.MustCompile(`PUBLIC DOCUMENT COUNT:\s+(\d+)`)},
	{"sec_act", regexp.MustCompile(`SEC ACT:\s+(.+)`)},
	{"sec_file_number", regexp.MustCompile(`SEC FILE NUMBER:\s+(.+)`)},
	{"film_number", regexp.MustCompile(`FILM NUMBER:\s+(\d+)`)},
}

// Holdings-family summary rules over the cover page XML.
var holdingsSummaryRules = []rule{
	{"trade_count", regexp.MustCompile(`tableEntryTotal>(\d+)</`)},
	{"total_value", regexp.MustCompile(`tableValueTotal>(\d+)</`)},
	{"other_managers_count", regexp.MustCompile(`otherIncludedManagersCount>(\d+)</`)},
	{"confidential_omitted", regexp.MustCompile(`isConfidentialOmitted>(true|false)</`)},
	{"report_type", regexp.MustCompile(`reportType>(.+)</`)},
	{"form_13f_file_number", regexp.MustCompile(`form13FFileNumber>(.+)</`)},
	{"instruction_5", regexp.MustCompile(`provideInfoForInstruction5>(Y|N)</`)},
	{"signature_name", regexp.MustCompile(`(?s)<signatureBlock>\s*<name>(.+?)</name>`)},
	{"signature_title", regexp.MustCompile(`<title>(.+?)</title>`)},
	{"signature_phone", regexp.MustCompile(`<phone>([\d\-\(\)\s]+)</phone>`)},
}

// submissionTypeRe sniffs the form type when none was declared.
var submissionTypeRe = regexp.MustCompile(`CONFORMED SUBMISSION TYPE:\s+([\w-/]+)`)

// parseDate parses the archive's YYYYMMDD date fields. Unparsable input
// yields the zero time, the record-level absent value.
func parseDate(s string) time.Time {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseOptionalInt returns nil for missing or unparsable values. Metadata
// numerics are absent on miss, unlike holdings numerics.
func parseOptionalInt(s string, ok bool) *int64 {
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseOptionalBool maps the literal tokens true/false; anything else is
// absent.
func parseOptionalBool(s string, ok bool) *bool {
	if !ok {
		return nil
	}
	switch s {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
