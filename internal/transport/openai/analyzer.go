package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/enrichment"
)

const analyzerSystemPrompt = `You are a product analyst who helps identify core information from product ideas.
Extract the vital information from the prompt. Your response should be extremely concise, around 8-12 words.
Focus only on the specific and unique aspects and terms of the idea. For example, given a prompt like
"AI music composition tool", focus more on the music aspects than the "tool" aspects.
Respond with a JSON object with exactly these keys:
{"problem_statement": "the core problem in at most 12 words",
 "target_users": "who experiences this problem",
 "terms": ["specific niche terms, not generic category words"]}`

// Analyzer extracts problem statement, audience and niche terms from a
// raw query via a JSON-mode chat completion.
type Analyzer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewAnalyzer creates a query analyzer on the OpenAI-compatible chat API.
func NewAnalyzer(cfg *Config) *Analyzer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		client: newClient(cfg),
		model:  cfg.Model,
		logger: logger,
	}
}

type analysisPayload struct {
	ProblemStatement string          `json:"problem_statement"`
	TargetUsers      string          `json:"target_users"`
	Terms            json.RawMessage `json:"terms"`
}

// Analyze returns the extracted signals. All failures wrap domain.ErrEnrichmentFailed.
func (a *Analyzer) Analyze(ctx context.Context, text string) (enrichment.Result, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analyzerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Please analyze this product/project idea.\n" + text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return enrichment.Result{}, parseAPIError("analysis", err, domain.ErrEnrichmentFailed)
	}
	if len(resp.Choices) == 0 {
		return enrichment.Result{}, fmt.Errorf("empty analysis response: %w", domain.ErrEnrichmentFailed)
	}

	res, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		return enrichment.Result{}, err
	}

	a.logger.Debug("query analyzed",
		zap.String("problem_statement", res.ProblemStatement),
		zap.Strings("terms", res.Terms),
	)
	return res, nil
}

func parseAnalysis(content string) (enrichment.Result, error) {
	var p analysisPayload
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &p); err != nil {
		return enrichment.Result{}, fmt.Errorf("decode analysis: %w: %w", domain.ErrEnrichmentFailed, err)
	}

	terms, err := decodeTerms(p.Terms)
	if err != nil {
		return enrichment.Result{}, fmt.Errorf("decode terms: %w: %w", domain.ErrEnrichmentFailed, err)
	}

	return enrichment.Result{
		ProblemStatement: strings.TrimSpace(p.ProblemStatement),
		TargetUsers:      strings.TrimSpace(p.TargetUsers),
		Terms:            terms,
	}, nil
}

// decodeTerms accepts a JSON array of strings or one comma-separated string.
func decodeTerms(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return enrichment.SplitTerms(list), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return enrichment.SplitTerms([]string{s}), nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
