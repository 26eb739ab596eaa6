package db

import "github.com/kailas-cloud/ideascout/internal/domain/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit from a search. Score is the cosine
// similarity (1 - distance) and is only valid when HasScore is set.
type SearchEntry struct {
	Key      string
	Score    float64
	HasScore bool
	Fields   map[string]string
}
