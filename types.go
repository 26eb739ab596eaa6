package ideascout

import (
	"fmt"

	"github.com/kailas-cloud/ideascout/internal/domain/event"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// Source identifies where an item comes from.
type Source string

// Source constants. All but SourceArxiv are served from the indexed catalog.
const (
	SourceReddit      Source = Source(source.Reddit)
	SourceProductHunt Source = Source(source.ProductHunt)
	SourceYCombinator Source = Source(source.YCombinator)
	SourceHackerNews  Source = Source(source.HackerNews)
	SourceArxiv       Source = Source(source.Arxiv)
)

// SearchRequest describes one search.
type SearchRequest struct {
	Query       string
	Sources     []Source
	Limit       int
	RecencyDays int // 0 = no recency filter
	Categories  map[Source][]string
}

func (r *SearchRequest) toQuery() (query.Query, error) {
	srcs := make([]source.Source, len(r.Sources))
	for i, s := range r.Sources {
		srcs[i] = source.Source(s)
	}
	var cats map[source.Source][]string
	if len(r.Categories) > 0 {
		cats = make(map[source.Source][]string, len(r.Categories))
		for s, c := range r.Categories {
			cats[source.Source(s)] = c
		}
	}
	q, err := query.New(r.Query, srcs, r.Limit, r.RecencyDays, cats)
	if err != nil {
		return query.Query{}, fmt.Errorf("build query: %w", err)
	}
	return q, nil
}

// EventType discriminates progress events.
type EventType string

// Event type constants.
const (
	EventStatus  EventType = EventType(event.TypeStatus)
	EventResults EventType = EventType(event.TypeResults)
	EventError   EventType = EventType(event.TypeError)
)

// Event is one progress update of a search. Items is only set on results.
type Event struct {
	Type    EventType
	Message string
	Items   []map[string]any
}

// Terminal reports whether the event ends the search.
func (e Event) Terminal() bool {
	return e.Type == EventResults || e.Type == EventError
}

func eventFromDomain(ev event.Event) Event {
	switch e := ev.(type) {
	case event.Status:
		return Event{Type: EventStatus, Message: e.Message}
	case event.Results:
		return Event{Type: EventResults, Items: e.Items}
	case event.Error:
		return Event{Type: EventError, Message: e.Message}
	default:
		return Event{Type: EventType(ev.Type())}
	}
}

// Item is a catalog entry to ingest.
type Item struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Link             string   `json:"link"`
	Source           Source   `json:"source"`
	SourceLink       string   `json:"source_link,omitempty"`
	CreatedAt        string   `json:"created_at"`
	ImageURL         string   `json:"image_url,omitempty"`
	AuthorName       string   `json:"author_name,omitempty"`
	AuthorProfileURL string   `json:"author_profile_url,omitempty"`
	Categories       []string `json:"categories,omitempty"`
}

func (it *Item) toDomain() item.Item {
	return item.Item{
		Title:            it.Title,
		Description:      it.Description,
		Link:             it.Link,
		Source:           source.Source(it.Source),
		SourceLink:       it.SourceLink,
		CreatedAt:        it.CreatedAt,
		ImageURL:         it.ImageURL,
		AuthorName:       it.AuthorName,
		AuthorProfileURL: it.AuthorProfileURL,
		Categories:       it.Categories,
	}
}

// IngestReport summarizes an ingestion run.
type IngestReport struct {
	Stored  int
	Skipped int
}
