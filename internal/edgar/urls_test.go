package edgar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCIK(t *testing.T) {
	assert.Equal(t, "0000123456", NormalizeCIK("123456"))
	assert.Equal(t, "0000123456", NormalizeCIK("  123456 "))
	assert.Equal(t, "0001234567", NormalizeCIK("0001234567"))
	assert.Equal(t, "12345678901", NormalizeCIK("12345678901"))
}

func TestStripAccession(t *testing.T) {
	assert.Equal(t, "000012345624000789", StripAccession("0000123456-24-000789"))
	assert.Equal(t, "000012345624000789", StripAccession("000012345624000789"))
}

func TestDocumentURL(t *testing.T) {
	url, err := documentURL("https://www.sec.gov", "0000123456", "0000123456-24-000789")
	require.NoError(t, err)

	// Zero padding drops from the path segment; the directory segment is
	// the hyphen-stripped accession id while the file keeps the hyphens.
	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/data/123456/000012345624000789/0000123456-24-000789.txt",
		url)
}

func TestDocumentURLRejectsNonNumericCIK(t *testing.T) {
	_, err := documentURL("https://www.sec.gov", "not-a-cik", "0000123456-24-000789")
	require.Error(t, err)
}

func TestIndexURL(t *testing.T) {
	assert.Equal(t,
		"https://www.sec.gov/Archives/edgar/full-index/2024/QTR3/form.idx",
		indexURL("https://www.sec.gov", 2024, 3))
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://www.sec.gov", baseURL("www.sec.gov"))
	assert.Equal(t, "http://127.0.0.1:8080", baseURL("http://127.0.0.1:8080/"))
}
