package model

import (
	"strings"

	"github.com/ppiankov/mapleads/internal/normalize"
	"github.com/rotisserie/eris"
)

// Unbounded is the target value meaning "collect everything discoverable"
const Unbounded = 0

// SearchSpec describes one discovery run. It is immutable once built.
type SearchSpec struct {
	SearchTerm           string `json:"search_term"`            // Business category or, for individual searches, a business name
	AreaQuery            string `json:"area_query"`             // Free-text geographic area
	CountryCode          string `json:"country_code,omitempty"` // ISO-3166 alpha-2, used for phone canonicalization
	Target               int    `json:"target"`                 // Desired record count (Unbounded = 0)
	IndividualNameSearch bool   `json:"individual_name_search"` // SearchTerm is a specific business name
	EnrichOwners         bool   `json:"enrich_owners"`          // Ask the AI service when the website has no owner
	VerifyEmails         bool   `json:"verify_emails"`          // Run deliverability checks after processing

	exclusions map[string]struct{}
}

// NewSearchSpec builds a SearchSpec and folds the exclusion list into a lookup set.
func NewSearchSpec(term, area, country string, target int, exclusions []string) (SearchSpec, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return SearchSpec{}, eris.New("search spec: search term is required")
	}
	if target < 0 {
		return SearchSpec{}, eris.Errorf("search spec: target must be >= 0, got %d", target)
	}

	spec := SearchSpec{
		SearchTerm:  term,
		AreaQuery:   strings.TrimSpace(area),
		CountryCode: strings.ToUpper(strings.TrimSpace(country)),
		Target:      target,
		exclusions:  make(map[string]struct{}, len(exclusions)),
	}
	for _, name := range exclusions {
		if key := normalize.Key(name); key != "" {
			spec.exclusions[key] = struct{}{}
		}
	}
	return spec, nil
}

// Bounded reports whether the run stops at a fixed record count
func (s SearchSpec) Bounded() bool {
	return s.Target > Unbounded
}

// Excludes reports whether a business name is on the exclusion list (case-insensitive)
func (s SearchSpec) Excludes(name string) bool {
	if len(s.exclusions) == 0 {
		return false
	}
	_, ok := s.exclusions[normalize.Key(name)]
	return ok
}

// Exclusions returns the folded exclusion keys
func (s SearchSpec) Exclusions() []string {
	keys := make([]string, 0, len(s.exclusions))
	for k := range s.exclusions {
		keys = append(keys, k)
	}
	return keys
}
