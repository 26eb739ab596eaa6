package enrichment

import "strings"

// Result holds the signals extracted from a raw query. When Err is set the
// result is degraded and callers search with the raw query alone.
type Result struct {
	ProblemStatement string
	TargetUsers      string
	Terms            []string
	Err              error
}

// Degraded returns a result that carries only the failure.
func Degraded(err error) Result {
	return Result{Err: err}
}

// Degraded reports whether enrichment failed.
func (r Result) Degraded() bool { return r.Err != nil }

// HasTerms reports whether at least one term was extracted.
func (r Result) HasTerms() bool { return len(r.Terms) > 0 }

// EnrichedQuery builds the text that gets embedded for retrieval.
func (r Result) EnrichedQuery(raw string) string {
	if r.Degraded() {
		return raw
	}
	return raw + " " + r.ProblemStatement + " " + r.TargetUsers + " " + strings.Join(r.Terms, ", ")
}

// SplitTerms normalizes a term list that may arrive as one comma-separated
// string. Blank entries are dropped.
func SplitTerms(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, t := range strings.Split(entry, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
