package literature

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// minKeywordLen drops short tokens such as "ai" or "ui" that match too broadly.
const minKeywordLen = 3

var nounTags = map[string]bool{
	"NN":   true,
	"NNS":  true,
	"NNP":  true,
	"NNPS": true,
}

// Keywords returns the lowercased, deduplicated nouns of text in order of appearance.
func Keywords(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tag query: %w", err)
	}

	var out []string
	seen := make(map[string]bool)
	for _, tok := range doc.Tokens() {
		if !nounTags[tok.Tag] {
			continue
		}
		word := strings.ToLower(strings.Trim(tok.Text, `"'.,;:!?()[]{}`))
		if len(word) < minKeywordLen || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
	}
	return out, nil
}
