package chat

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/ideascout/internal/domain"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"normal", Normal},
		{"", Normal},
		{"Agent", Agent},
		{"ai search", AISearch},
		{"ai_search", AISearch},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tt.in, err)
		}
		if got != tt.want || !got.IsValid() {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMode_Unknown(t *testing.T) {
	_, err := ParseMode("brainstorm")
	if !errors.Is(err, domain.ErrUnknownChatMode) {
		t.Fatalf("expected ErrUnknownChatMode, got %v", err)
	}
}
