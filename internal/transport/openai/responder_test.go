package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/chat"
)

func TestResponder_Respond(t *testing.T) {
	var body map[string]any
	server := chatServer(t, "Consider a freemium tier.", &body)
	defer server.Close()

	r := NewResponder(&Config{APIKey: "k", BaseURL: server.URL, Model: "test-model"}, "")
	reply, err := r.Respond(context.Background(), chat.Turn{
		IdeaName:    "Chordsmith",
		IdeaContent: "AI songwriting helper",
		Prompt:      "How should I price it?",
	})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if reply.Message != "Consider a freemium tier." {
		t.Errorf("Message = %q", reply.Message)
	}
	if reply.UpdatedContent != nil {
		t.Errorf("UpdatedContent must be nil outside editing mode, got %q", *reply.UpdatedContent)
	}
	if _, ok := body["response_format"]; ok {
		t.Error("plain chat must not request json mode")
	}
}

func TestResponder_Editing(t *testing.T) {
	var body map[string]any
	server := chatServer(t, `{"user_response":"Tightened the summary.","updated_content":"New text"}`, &body)
	defer server.Close()

	r := NewResponder(&Config{APIKey: "k", BaseURL: server.URL, Model: "test-model"}, "")
	reply, err := r.Respond(context.Background(), chat.Turn{
		Prompt:         "shorten it",
		EditingActive:  true,
		Section:        "summary",
		SectionContent: "Old text",
	})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if reply.Message != "Tightened the summary." {
		t.Errorf("Message = %q", reply.Message)
	}
	if reply.UpdatedContent == nil || *reply.UpdatedContent != "New text" {
		t.Errorf("UpdatedContent = %v", reply.UpdatedContent)
	}
	rf, _ := body["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("expected json_object response format, got %v", body["response_format"])
	}
}

func TestResponder_EditingInvalidJSON(t *testing.T) {
	server := chatServer(t, "not json", nil)
	defer server.Close()

	r := NewResponder(&Config{APIKey: "k", BaseURL: server.URL, Model: "test-model"}, "")
	_, err := r.Respond(context.Background(), chat.Turn{Prompt: "p", EditingActive: true})
	if !errors.Is(err, domain.ErrChatProviderError) {
		t.Errorf("expected ErrChatProviderError, got %v", err)
	}
}

func TestBuildChatMessage(t *testing.T) {
	msg := BuildChatMessage(chat.Turn{
		Context:     "earlier turns",
		IdeaName:    "Chordsmith",
		IdeaContent: "AI songwriting helper",
		Prompt:      "ideas for growth?",
	})
	for _, want := range []string{
		"# CHAT CONTEXT:\nearlier turns",
		"# IDEA NAME:\nChordsmith",
		"# IDEA DESCRIPTION:\nAI songwriting helper",
		"# USER PROMPT:\nideas for growth?",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "# CURRENT IDEA SECTION") {
		t.Error("section block must be omitted without section content")
	}

	withSection := BuildChatMessage(chat.Turn{Section: "pricing", SectionContent: "$5/mo", Prompt: "p"})
	if !strings.Contains(withSection, "# CURRENT IDEA SECTION:\npricing\n\n# CURRENT SECTION CONTENT:\n$5/mo") {
		t.Errorf("section block missing:\n%s", withSection)
	}
}
