package item

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// Item is a source-agnostic search result.
type Item struct {
	Title            string
	Description      string
	Link             string
	Source           source.Source
	SourceLink       string
	CreatedAt        string
	ImageURL         string
	AuthorName       string
	AuthorProfileURL string
	Categories       []string

	// Extra carries additional columns returned by the store.
	Extra map[string]any

	similarity float64
	scored     bool
}

// WithSimilarity returns a copy of the item carrying score.
func (it Item) WithSimilarity(score float64) Item {
	it.similarity = score
	it.scored = true
	return it
}

// Similarity returns the similarity score. Only meaningful when Scored.
func (it Item) Similarity() float64 { return it.similarity }

// Scored reports whether a finite similarity has been set.
func (it Item) Scored() bool {
	return it.scored && !math.IsNaN(it.similarity) && !math.IsInf(it.similarity, 0)
}

// EmbeddingText is the text embedded for items that arrive without a vector.
func (it Item) EmbeddingText() string {
	text := it.Title + " " + it.Description
	for i, c := range it.Categories {
		if i == 0 {
			text += " " + c
			continue
		}
		text += ", " + c
	}
	return text
}

// Normalize produces the uniform JSON shape delivered to clients.
func (it Item) Normalize() map[string]any {
	cats := it.Categories
	if cats == nil {
		cats = []string{}
	}
	out := make(map[string]any, 11+len(it.Extra))
	for k, v := range it.Extra {
		out[k] = NormalizeValue(v)
	}
	out["title"] = it.Title
	out["description"] = it.Description
	out["link"] = it.Link
	out["source"] = string(it.Source)
	out["source_link"] = it.SourceLink
	out["created_at"] = it.CreatedAt
	out["image_url"] = it.ImageURL
	out["author_name"] = it.AuthorName
	out["author_profile_url"] = it.AuthorProfileURL
	out["categories"] = cats
	out["similarity"] = it.similarity
	return out
}

// NormalizeValue keeps JSON-representable primitives, slices and maps as they
// are and turns any other value into its string form.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v
	case float32:
		return normalizeFloat(float64(t), v)
	case float64:
		return normalizeFloat(t, v)
	case time.Time:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func normalizeFloat(f float64, orig any) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return orig
}
