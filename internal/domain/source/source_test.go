package source

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/ideascout/internal/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"reddit", Reddit, false},
		{" product_hunt ", ProductHunt, false},
		{"y_combinator", YCombinator, false},
		{"hacker_news", HackerNews, false},
		{"arxiv", Arxiv, false},
		{"twitter", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnknownSource) {
					t.Fatalf("expected ErrUnknownSource, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKind(t *testing.T) {
	if Arxiv.Kind() != Literature {
		t.Error("arxiv should be a literature source")
	}
	for _, s := range []Source{Reddit, ProductHunt, YCombinator, HackerNews} {
		if s.Kind() != Indexed {
			t.Errorf("%s should be indexed", s)
		}
	}
}

func TestSupportsCategories(t *testing.T) {
	if HackerNews.SupportsCategories() {
		t.Error("hacker_news has no categories")
	}
	if !Reddit.SupportsCategories() || !Arxiv.SupportsCategories() {
		t.Error("reddit and arxiv support categories")
	}
	if Source("nope").SupportsCategories() {
		t.Error("unknown source must not support categories")
	}
}
