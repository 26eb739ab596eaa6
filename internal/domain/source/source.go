package source

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ideascout/internal/domain"
)

// Source identifies where an item comes from. The value is the wire name
// used by the HTTP API and the source tag stored in the catalog.
type Source string

// Known sources.
const (
	Reddit      Source = "reddit"
	ProductHunt Source = "product_hunt"
	YCombinator Source = "y_combinator"
	HackerNews  Source = "hacker_news"
	// Arxiv is queried by keyword through the literature API.
	Arxiv Source = "arxiv"
)

// Kind groups sources by query mechanics.
type Kind int

const (
	// Indexed sources are pre-embedded in the catalog and queried with KNN.
	Indexed Kind = iota
	// Literature sources are queried by keyword and embedded on the fly.
	Literature
)

// All lists every known source in a stable order.
var All = []Source{Reddit, ProductHunt, YCombinator, HackerNews, Arxiv}

// Parse validates a wire name.
func Parse(s string) (Source, error) {
	src := Source(strings.TrimSpace(s))
	if !src.IsValid() {
		return "", fmt.Errorf("%q: %w", s, domain.ErrUnknownSource)
	}
	return src, nil
}

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	switch s {
	case Reddit, ProductHunt, YCombinator, HackerNews, Arxiv:
		return true
	}
	return false
}

// Kind returns the query mechanics for the source.
func (s Source) Kind() Kind {
	if s == Arxiv {
		return Literature
	}
	return Indexed
}

// SupportsCategories reports whether category filters apply to the source.
func (s Source) SupportsCategories() bool {
	return s.IsValid() && s != HackerNews
}

func (s Source) String() string { return string(s) }
