package edgar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// IndexResolver turns a (cik, form type, year range) query into document
// locators by parsing the archive's fixed-width quarterly indexes.
type IndexResolver struct {
	fetcher *Fetcher
	clock   Clock
	logger  *zap.Logger
}

// NewIndexResolver constructs an IndexResolver on top of the shared
// rate-limited fetcher.
func NewIndexResolver(fetcher *Fetcher, clock Clock, logger *zap.Logger) *IndexResolver {
	return &IndexResolver{
		fetcher: fetcher,
		clock:   clock,
		logger:  logger,
	}
}

// ListFilings returns locators for every filing by cik whose form type
// contains formType, filed within [startYear, endYear]. endYear of zero
// means the current year. Quarters whose index is unavailable contribute
// nothing; an empty result is not an error.
func (r *IndexResolver) ListFilings(ctx context.Context, cik, formType string, startYear, endYear int) ([]DocumentLocator, error) {
	if endYear == 0 {
		endYear = r.clock.Now().Year()
	}
	if startYear > endYear {
		return nil, fmt.Errorf("start year %d after end year %d", startYear, endYear)
	}
	want := NormalizeCIK(cik)

	var out []DocumentLocator
	for year := startYear; year <= endYear; year++ {
		for quarter := 1; quarter <= 4; quarter++ {
			if err := ctx.Err(); err != nil {
				return out, fmt.Errorf("list filings interrupted: %w", err)
			}
			text, err := r.fetcher.FetchIndex(ctx, year, quarter)
			if err != nil {
				if errors.Is(err, ErrDocumentUnavailable) {
					r.logger.Debug("index unavailable",
						zap.Int("year", year),
						zap.Int("quarter", quarter),
					)
					continue
				}
				return out, err
			}
			for _, loc := range parseFormIndex(text) {
				if loc.CIK == want && strings.Contains(loc.FormType, formType) {
					out = append(out, loc)
				}
			}
		}
	}
	return out, nil
}

// Fixed column offsets of the form.idx layout.
const (
	idxFormTypeEnd = 12
	idxNameEnd     = 74
	idxCIKEnd      = 86
	idxDateEnd     = 98
)

// parseFormIndex parses one quarterly index. Everything after the dash
// separator line is a fixed-column record; rows whose filename does not
// match the archive's data path are skipped individually.
func parseFormIndex(text string) []DocumentLocator {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && strings.Count(trimmed, "-") == len(trimmed) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []DocumentLocator
	for _, line := range lines[start:] {
		if len(line) <= idxDateEnd {
			continue
		}
		filename := strings.TrimSpace(line[idxDateEnd:])
		m := filingPathRe.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		out = append(out, DocumentLocator{
			FormType:       strings.TrimSpace(line[:idxFormTypeEnd]),
			CompanyName:    strings.TrimSpace(line[idxFormTypeEnd:idxNameEnd]),
			CIK:            NormalizeCIK(m[1]),
			FiledDate:      strings.TrimSpace(line[idxCIKEnd:idxDateEnd]),
			AccessionID:    m[2],
			SourceFilename: filename,
		})
	}
	return out
}
