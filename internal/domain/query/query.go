package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed query length.
	MaxTextLength = 4096
	MaxLimit      = 100
	// MaxRecencyDays bounds the recency window to ten years.
	MaxRecencyDays = 3650
)

// CategoryFilters maps a source to the categories its results must match.
// Built once through NewCategoryFilters and read-only afterwards.
type CategoryFilters struct {
	bySource map[source.Source][]string
}

// NewCategoryFilters validates raw per-source category lists against the
// requested sources. Lists for unrequested sources are dropped, blank
// entries are removed, and a non-empty list for a source without category
// support is rejected.
func NewCategoryFilters(requested []source.Source, raw map[source.Source][]string) (CategoryFilters, error) {
	want := make(map[source.Source]bool, len(requested))
	for _, s := range requested {
		want[s] = true
	}

	out := make(map[source.Source][]string)
	for src, cats := range raw {
		if !want[src] {
			continue
		}
		cleaned := cleanCategories(cats)
		if len(cleaned) == 0 {
			continue
		}
		if !src.SupportsCategories() {
			return CategoryFilters{}, fmt.Errorf("%s: %w", src, domain.ErrUnsupportedFilter)
		}
		out[src] = cleaned
	}
	return CategoryFilters{bySource: out}, nil
}

// For returns a copy of the categories for src, or nil when unfiltered.
func (c CategoryFilters) For(src source.Source) []string {
	cats := c.bySource[src]
	if len(cats) == 0 {
		return nil
	}
	return append([]string(nil), cats...)
}

// IsEmpty reports whether no source carries a filter.
func (c CategoryFilters) IsEmpty() bool { return len(c.bySource) == 0 }

func cleanCategories(cats []string) []string {
	var out []string
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// SplitCSV splits a comma-separated parameter into trimmed, non-empty parts.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Query is one validated search request. It is immutable.
type Query struct {
	text        string
	sources     []source.Source
	limit       int
	recencyDays int
	categories  CategoryFilters
}

// New validates search parameters.
func New(
	text string,
	sources []source.Source,
	limit, recencyDays int,
	categories map[source.Source][]string,
) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("query text is required: %w", domain.ErrInvalidQuery)
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query too long (max %d chars): %w", MaxTextLength, domain.ErrInvalidQuery)
	}
	srcs, err := dedupSources(sources)
	if err != nil {
		return Query{}, err
	}
	if len(srcs) == 0 {
		return Query{}, fmt.Errorf("at least one source is required: %w", domain.ErrInvalidQuery)
	}
	if limit <= 0 {
		return Query{}, fmt.Errorf("num_results must be positive: %w", domain.ErrInvalidQuery)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if recencyDays < 0 {
		return Query{}, fmt.Errorf("recency must not be negative: %w", domain.ErrInvalidQuery)
	}
	if recencyDays > MaxRecencyDays {
		recencyDays = MaxRecencyDays
	}
	cf, err := NewCategoryFilters(srcs, categories)
	if err != nil {
		return Query{}, err
	}

	return Query{
		text:        text,
		sources:     srcs,
		limit:       limit,
		recencyDays: recencyDays,
		categories:  cf,
	}, nil
}

func dedupSources(in []source.Source) ([]source.Source, error) {
	out := make([]source.Source, 0, len(in))
	seen := make(map[source.Source]bool, len(in))
	for _, s := range in {
		if !s.IsValid() {
			return nil, fmt.Errorf("%q: %w", s, domain.ErrUnknownSource)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// Text returns the raw query text.
func (q Query) Text() string { return q.text }

// Sources returns a copy of the requested sources in request order.
func (q Query) Sources() []source.Source {
	return append([]source.Source(nil), q.sources...)
}

// Limit returns the maximum number of results to deliver.
func (q Query) Limit() int { return q.limit }

// RecencyDays returns the recency window. Zero means unbounded.
func (q Query) RecencyDays() int { return q.recencyDays }

// Categories returns the validated category filters.
func (q Query) Categories() CategoryFilters { return q.categories }

// Has reports whether src was requested.
func (q Query) Has(src source.Source) bool {
	for _, s := range q.sources {
		if s == src {
			return true
		}
	}
	return false
}

// Partition splits the requested sources into indexed sources and
// whether the literature source was requested.
func (q Query) Partition() (indexed []source.Source, literature bool) {
	for _, s := range q.sources {
		if s.Kind() == source.Literature {
			literature = true
			continue
		}
		indexed = append(indexed, s)
	}
	return indexed, literature
}
