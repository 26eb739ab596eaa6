package catalog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// Hash field names.
const (
	fieldTitle            = "title"
	fieldDescription      = "description"
	fieldLink             = "link"
	fieldSource           = "source"
	fieldSourceLink       = "source_link"
	fieldImageURL         = "image_url"
	fieldCreatedAt        = "created_at"
	fieldCreatedTS        = "created_ts"
	fieldAuthorName       = "author_name"
	fieldAuthorProfileURL = "author_profile_url"
	fieldCategories       = "categories"
	fieldExtra            = "extra"
	fieldVector           = "vector"
)

// returnFields are fetched with every KNN hit. The vector stays server-side.
var returnFields = []string{
	fieldTitle, fieldDescription, fieldLink, fieldSource, fieldSourceLink,
	fieldImageURL, fieldCreatedAt, fieldAuthorName, fieldAuthorProfileURL,
	fieldCategories, fieldExtra,
}

const categorySeparator = ","

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseCreatedAt accepts the timestamp shapes produced by the scrapers.
// Values without a zone are read as UTC.
func parseCreatedAt(s string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// itemKey derives a stable key from the item link so re-ingesting the same
// item overwrites it.
func itemKey(it *item.Item) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(it.Link))
	return domain.CatalogItemPrefix + string(it.Source) + ":" + id.String()
}

// buildHashFields converts an item and its embedding into a flat map for HSET.
func buildHashFields(it *item.Item, vec []float32) (map[string]string, error) {
	created, err := parseCreatedAt(it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	m := map[string]string{
		fieldTitle:            it.Title,
		fieldDescription:      it.Description,
		fieldLink:             it.Link,
		fieldSource:           string(it.Source),
		fieldSourceLink:       it.SourceLink,
		fieldImageURL:         it.ImageURL,
		fieldCreatedAt:        created.Format(time.RFC3339),
		fieldCreatedTS:        strconv.FormatInt(created.Unix(), 10),
		fieldAuthorName:       it.AuthorName,
		fieldAuthorProfileURL: it.AuthorProfileURL,
		fieldCategories:       joinCategories(it.Categories),
		fieldVector:           vectorToBytes(vec),
	}
	if len(it.Extra) > 0 {
		extra, err := json.Marshal(it.Extra)
		if err != nil {
			return nil, fmt.Errorf("extra: %w", err)
		}
		m[fieldExtra] = string(extra)
	}
	return m, nil
}

// parseHashFields converts returned hash fields back into an item.
// Unknown fields land in Extra.
func parseHashFields(fields map[string]string) item.Item {
	it := item.Item{
		Title:            fields[fieldTitle],
		Description:      fields[fieldDescription],
		Link:             fields[fieldLink],
		Source:           source.Source(fields[fieldSource]),
		SourceLink:       fields[fieldSourceLink],
		ImageURL:         fields[fieldImageURL],
		CreatedAt:        fields[fieldCreatedAt],
		AuthorName:       fields[fieldAuthorName],
		AuthorProfileURL: fields[fieldAuthorProfileURL],
		Categories:       splitCategories(fields[fieldCategories]),
	}

	if raw := fields[fieldExtra]; raw != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(raw), &extra); err == nil {
			it.Extra = extra
		}
	}
	for k, v := range fields {
		if isKnownField(k) {
			continue
		}
		if it.Extra == nil {
			it.Extra = make(map[string]any)
		}
		it.Extra[k] = v
	}
	return it
}

func isKnownField(k string) bool {
	switch k {
	case fieldCreatedTS, fieldVector:
		return true
	}
	for _, f := range returnFields {
		if f == k {
			return true
		}
	}
	return false
}

func joinCategories(cats []string) string {
	cleaned := make([]string, 0, len(cats))
	for _, c := range cats {
		c = strings.TrimSpace(strings.ReplaceAll(c, categorySeparator, " "))
		if c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return strings.Join(cleaned, categorySeparator)
}

func splitCategories(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, categorySeparator)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
