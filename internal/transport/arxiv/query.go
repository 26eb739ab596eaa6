package arxiv

import (
	"regexp"
	"strings"
)

// DefaultScope restricts searches to computer science.
const DefaultScope = "cs.*"

// categoryPattern matches archive names with an optional subject class,
// e.g. "hep-th", "cs.AI" or "math.*".
var categoryPattern = regexp.MustCompile(`^[A-Za-z-]+(\.([A-Za-z-]+|\*))?$`)

// BuildQuery renders the search_query expression: every keyword must appear
// in the abstract, and when categories are given at least one must match.
// Categories that are not archive names are dropped. Returns "" when there
// are no keywords.
func BuildQuery(scope string, keywords, categories []string) string {
	if len(keywords) == 0 {
		return ""
	}
	if scope == "" {
		scope = DefaultScope
	}

	abs := make([]string, len(keywords))
	for i, k := range keywords {
		abs[i] = `abs:"` + strings.ReplaceAll(k, `"`, "") + `"`
	}

	var b strings.Builder
	b.WriteString("cat:")
	b.WriteString(scope)
	b.WriteString(" AND (")
	b.WriteString(strings.Join(abs, " AND "))
	b.WriteString(")")

	var cats []string
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if !categoryPattern.MatchString(c) {
			continue
		}
		cats = append(cats, "cat:"+c)
	}
	if len(cats) > 0 {
		b.WriteString(" AND (")
		b.WriteString(strings.Join(cats, " OR "))
		b.WriteString(")")
	}
	return b.String()
}
