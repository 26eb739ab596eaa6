package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/chat"
)

const (
	chatPrompt = "You will be given some information about the idea and a user prompt. " +
		"You will provide a response to the user's prompt based on the idea."

	editPrompt = `You will analyze the existing idea document of the user and update the document based on your insights and the prompt. You will respond in the following json format:
{
  "user_response": "the response sent to the user, describing the changes you made with a brief justification",
  "updated_content": "the updated content of the selected section as a string; keep the initial text and only change what the prompt asks for"
}`
)

// Responder answers chat turns with a single chat completion.
type Responder struct {
	client   *openai.Client
	model    string
	preamble string
	logger   *zap.Logger
}

// NewResponder creates a chat responder on the OpenAI-compatible chat API.
// preamble, when set, is prepended to the system prompt.
func NewResponder(cfg *Config, preamble string) *Responder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{
		client:   newClient(cfg),
		model:    cfg.Model,
		preamble: preamble,
		logger:   logger,
	}
}

// Respond runs one completion. Editing requests use JSON mode and return
// the rewritten section alongside the message.
func (r *Responder) Respond(ctx context.Context, req chat.Turn) (chat.Reply, error) {
	system := chatPrompt
	if req.EditingActive {
		system = editPrompt
	}
	if r.preamble != "" {
		system = r.preamble + "\n\n" + system
	}

	creq := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: BuildChatMessage(req)},
		},
	}
	if req.EditingActive {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := r.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return chat.Reply{}, parseAPIError("chat", err, domain.ErrChatProviderError)
	}
	if len(resp.Choices) == 0 {
		return chat.Reply{}, fmt.Errorf("empty chat response: %w", domain.ErrChatProviderError)
	}
	content := resp.Choices[0].Message.Content

	if !req.EditingActive {
		return chat.Reply{Message: content}, nil
	}

	var edit struct {
		UserResponse   string `json:"user_response"`
		UpdatedContent string `json:"updated_content"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &edit); err != nil {
		r.logger.Warn("edit response is not valid json", zap.Error(err))
		return chat.Reply{}, fmt.Errorf("decode edit response: %w: %w", domain.ErrChatProviderError, err)
	}
	return chat.Reply{Message: edit.UserResponse, UpdatedContent: &edit.UpdatedContent}, nil
}

// BuildChatMessage renders the user message sent with every chat turn.
func BuildChatMessage(req chat.Turn) string {
	var b strings.Builder
	b.WriteString("# CHAT CONTEXT:\n")
	b.WriteString(req.Context)
	b.WriteString("\n\n# IDEA NAME:\n")
	b.WriteString(req.IdeaName)
	b.WriteString("\n\n# IDEA DESCRIPTION:\n")
	b.WriteString(req.IdeaContent)
	if req.SectionContent != "" {
		b.WriteString("\n\n# CURRENT IDEA SECTION:\n")
		b.WriteString(req.Section)
		b.WriteString("\n\n# CURRENT SECTION CONTENT:\n")
		b.WriteString(req.SectionContent)
	}
	b.WriteString("\n\n# USER PROMPT:\n")
	b.WriteString(req.Prompt)
	return b.String()
}
