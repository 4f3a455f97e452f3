package extract

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry maps form-type markers to extraction variants. The marker set is
// open: new form families register a variant without touching dispatch.
type Registry struct {
	mu       sync.RWMutex
	variants []registration
	base     Variant
	logger   *zap.Logger
}

type registration struct {
	marker  string
	variant Variant
}

// NewRegistry returns a Registry with the holdings-table family ("13F")
// pre-registered and the base variant as fallback.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		base:   NewBaseVariant(),
		logger: logger,
	}
	r.Register("13F", NewHoldingsVariant(logger))
	return r
}

// Register adds a variant for every form type whose identifier contains
// marker. Later registrations win over earlier ones for overlapping
// markers.
func (r *Registry) Register(marker string, v Variant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants = append([]registration{{marker: marker, variant: v}}, r.variants...)
}

// Select picks the variant for a document. When declaredFormType is empty
// the type is sniffed from the document's submission-type label; an
// unmatched or unknown type gets the base variant.
func (r *Registry) Select(declaredFormType, content string) Variant {
	formType := declaredFormType
	if formType == "" {
		if m := submissionTypeRe.FindStringSubmatch(content); m != nil {
			formType = strings.TrimSpace(m[1])
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.variants {
		if strings.Contains(formType, reg.marker) {
			r.logger.Debug("variant selected",
				zap.String("form_type", formType),
				zap.String("variant", reg.variant.Name()),
			)
			return reg.variant
		}
	}
	return r.base
}
