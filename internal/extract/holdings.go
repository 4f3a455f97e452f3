package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/edgar"
)

var (
	xmlOpenRe   = regexp.MustCompile(`<XML>`)
	xmlCloseRe  = regexp.MustCompile(`</XML>`)
	xmlPrologRe = regexp.MustCompile(`\n<\?xml.*?\?>`)
	// infoTableRe is the hardening fallback when no <XML> region wraps the
	// holdings table.
	infoTableRe = regexp.MustCompile(`(?si)<informationTable[^>]*>.*?</informationTable>`)
)

// HoldingsVariant extends the base extraction with the holdings-table
// family's summary fields and the inline-XML table parse.
type HoldingsVariant struct {
	BaseVariant
	logger *zap.Logger
}

// NewHoldingsVariant returns the holdings-table extraction variant.
func NewHoldingsVariant(logger *zap.Logger) *HoldingsVariant {
	return &HoldingsVariant{logger: logger}
}

// Name implements Variant.
func (*HoldingsVariant) Name() string { return "holdings" }

// ExtractFilingMeta adds the holdings-family summary fields on top of the
// generic accession block.
func (v *HoldingsVariant) ExtractFilingMeta(text string) edgar.FilingRecord {
	rec := v.BaseVariant.ExtractFilingMeta(text)

	fields := applyRules(text, holdingsSummaryRules)
	tradeCount, tradeOK := fields["trade_count"]
	totalValue, totalOK := fields["total_value"]
	managers, managersOK := fields["other_managers_count"]
	confidential, confidentialOK := fields["confidential_omitted"]

	rec.TradeCount = parseOptionalInt(tradeCount, tradeOK)
	rec.TotalValue = parseOptionalInt(totalValue, totalOK)
	rec.OtherManagersCount = parseOptionalInt(managers, managersOK)
	rec.ConfidentialOmitted = parseOptionalBool(confidential, confidentialOK)
	rec.ReportType = fields["report_type"]
	rec.Form13FFileNumber = fields["form_13f_file_number"]
	rec.Instruction5 = fields["instruction_5"]
	rec.SignatureName = fields["signature_name"]
	rec.SignatureTitle = fields["signature_title"]
	rec.SignaturePhone = fields["signature_phone"]
	return rec
}

// ExtractHoldings locates the holdings XML region and parses its table
// entries. Absence of a region or a fragment that fails to parse both
// degrade to an empty slice.
func (v *HoldingsVariant) ExtractHoldings(text string) []edgar.HoldingRecord {
	fragment := LocateHoldingsSection(text)
	if fragment == "" {
		return nil
	}
	meta := applyRules(text, filingRules)
	return v.parseHoldingsTable(fragment, edgar.StripAccession(meta["accession"]), meta["period"])
}

// LocateHoldingsSection returns the XML fragment holding the table. The
// archive's documents embed one or more <XML> regions; the holdings table
// is conventionally the second when at least two exist, else the first.
// That positional rule is a structural assumption of this archive's format,
// kept literally. When no region exists at all, an informationTable element
// anywhere in the document is accepted as a fallback.
func LocateHoldingsSection(text string) string {
	opens := xmlOpenRe.FindAllStringIndex(text, -1)
	closes := xmlCloseRe.FindAllStringIndex(text, -1)

	n := min(len(opens), len(closes))
	if n > 0 {
		pick := 0
		if n > 1 {
			pick = 1
		}
		fragment := text[opens[pick][0]:closes[pick][1]]
		return xmlPrologRe.ReplaceAllString(fragment, "")
	}

	if m := infoTableRe.FindString(text); m != "" {
		return "<XML>" + m + "</XML>"
	}
	return ""
}

// parseHoldingsTable walks the repeated infoTable entries. Each sub-field
// is extracted independently; a missing element never drops the entry.
// A fragment that fails to parse as XML yields an empty slice, logged.
func (v *HoldingsVariant) parseHoldingsTable(fragment, accession, period string) []edgar.HoldingRecord {
	doc, err := xmlquery.Parse(strings.NewReader(fragment))
	if err != nil {
		v.logger.Warn("holdings fragment failed to parse",
			zap.String("accession", accession),
			zap.Error(err),
		)
		return nil
	}

	entries := xmlquery.Find(doc, "//*[local-name()='infoTable']")
	out := make([]edgar.HoldingRecord, 0, len(entries))
	for _, entry := range entries {
		rec := edgar.HoldingRecord{
			AccessionID:  accession,
			Period:       period,
			IssuerName:   elementText(entry, "nameOfIssuer"),
			ClassTitle:   elementText(entry, "titleOfClass"),
			CUSIP:        elementText(entry, "cusip"),
			QuantityType: elementText(entry, "shrsOrPrnAmt/sshPrnamtType"),
			PutCall:      elementText(entry, "putCall"),
			Discretion:   elementText(entry, "investmentDiscretion"),
		}
		rec.Value = normalizeNumeric(elementText(entry, "value"))
		rec.Quantity = normalizeNumeric(elementText(entry, "shrsOrPrnAmt/sshPrnamt"))
		rec.SoleVoting = normalizeNumeric(elementText(entry, "votingAuthority/Sole"))
		rec.SharedVoting = normalizeNumeric(elementText(entry, "votingAuthority/Shared"))
		rec.NoneVoting = normalizeNumeric(elementText(entry, "votingAuthority/None"))
		out = append(out, rec)
	}
	return out
}

// elementText resolves a namespace-tolerant element path below entry and
// returns its trimmed text, empty when the element is missing.
func elementText(entry *xmlquery.Node, path string) string {
	parts := strings.Split(path, "/")
	steps := make([]string, len(parts))
	for i, p := range parts {
		steps[i] = "*[local-name()='" + p + "']"
	}
	node := xmlquery.FindOne(entry, strings.Join(steps, "/"))
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.InnerText())
}

// whitespaceRe strips embedded whitespace from numeric holdings fields
// before parsing.
var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeNumeric applies the holdings zero-fill policy: embedded
// whitespace is stripped, and an empty or unparsable value becomes 0, not
// absent. This is deliberately different from the metadata fields' absence
// policy.
func normalizeNumeric(s string) int64 {
	s = whitespaceRe.ReplaceAllString(s, "")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
