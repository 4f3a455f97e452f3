package edgar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultHost is the public archive host.
const DefaultHost = "www.sec.gov"

// filingPathRe extracts the numeric CIK and hyphenated accession id from an
// index Filename column.
var filingPathRe = regexp.MustCompile(`edgar/data/(\d+)/([0-9-]+)\.txt`)

// NormalizeCIK zero-pads an entity id to the archive's fixed 10-digit form.
func NormalizeCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// StripAccession removes the hyphens from an accession id, producing the
// canonical stored form.
func StripAccession(accession string) string {
	return strings.ReplaceAll(accession, "-", "")
}

// baseURL turns a configured host into a full scheme://host prefix. A bare
// host gets https.
func baseURL(host string) string {
	if strings.Contains(host, "://") {
		return strings.TrimSuffix(host, "/")
	}
	return "https://" + host
}

// documentURL builds the deterministic URL of one filing document. The CIK
// loses its zero padding in the path; the directory segment is the
// hyphen-stripped accession id.
func documentURL(base, cik, accession string) (string, error) {
	numeric, err := strconv.ParseInt(strings.TrimSpace(cik), 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse cik %q: %w", cik, err)
	}
	return fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s.txt",
		base, numeric, StripAccession(accession), accession), nil
}

// indexURL builds the URL of one quarterly form index.
func indexURL(base string, year, quarter int) string {
	return fmt.Sprintf("%s/Archives/edgar/full-index/%d/QTR%d/form.idx", base, year, quarter)
}
